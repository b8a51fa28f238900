// Package integrity decides when a stored invoice PDF is stale and allocates
// document serial numbers.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	fieldSep = "|"
	itemSep  = "||"
	dateOnly = "2006-01-02"
)

// Snapshot is the part of an invoice that determines its printed content.
type Snapshot struct {
	Number    string
	IssueDate time.Time
	DueDate   time.Time
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Balance   decimal.Decimal
	Status    string
	Notes     string
	UpdatedAt time.Time
	Items     []ItemSnapshot
}

// ItemSnapshot is the hashed part of one line item.
type ItemSnapshot struct {
	ServiceName string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// ContentHash returns the hex SHA-256 digest of s. Decimal values hash by
// value, so 10.50 and 10.5 are the same amount. Times hash in UTC.
func ContentHash(s Snapshot) string {
	header := []string{
		s.Number,
		formatDate(s.IssueDate),
		formatDate(s.DueDate),
		s.Subtotal.String(),
		s.Tax.String(),
		s.Discount.String(),
		s.Total.String(),
		s.Paid.String(),
		s.Balance.String(),
		s.Status,
		s.Notes,
		formatStamp(s.UpdatedAt),
	}

	items := make([]string, len(s.Items))
	for i, it := range s.Items {
		items[i] = strings.Join([]string{
			it.ServiceName,
			it.Description,
			it.Quantity.String(),
			it.UnitPrice.String(),
		}, fieldSep)
	}

	sum := sha256.Sum256([]byte(strings.Join(header, fieldSep) + itemSep + strings.Join(items, itemSep)))
	return hex.EncodeToString(sum[:])
}

// Digest returns the hex SHA-256 digest of parts. Each part is written with
// its length, so "ab","c" and "a","bc" digest differently.
func Digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p)) + ":" + p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NeedsRegeneration reports whether a PDF generated with storedHash at
// generatedAt no longer matches current. A missing hash or timestamp always
// needs regeneration.
func NeedsRegeneration(storedHash string, generatedAt *time.Time, current Snapshot) bool {
	if storedHash == "" || generatedAt == nil || generatedAt.IsZero() {
		return true
	}
	return storedHash != ContentHash(current)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateOnly)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
