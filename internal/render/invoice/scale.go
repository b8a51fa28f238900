// Package invoice prints invoices on a single page, shrinking the page as the
// number of line items grows.
package invoice

import "math"

const (
	// MinScale is the smallest scale factor applied to an invoice page.
	MinScale = 0.65
	// scaleStep is the shrink per item beyond the first two.
	scaleStep = 0.02
)

// ScaleFactor returns the page scale for an invoice with n line items: 1 for
// up to two items, then 2% less per extra item, never below MinScale.
func ScaleFactor(n int) float64 {
	if n <= 2 {
		return 1.0
	}
	f := 1 - float64(n-2)*scaleStep
	// keep 0.92 exact rather than 0.9199999999999999
	f = math.Round(f*1e6) / 1e6
	return math.Max(MinScale, f)
}
