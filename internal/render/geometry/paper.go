// Package geometry holds the paper size table and the physical length type
// shared by the Word and PDF encoders.
//
// Lengths are stored in inches and converted to each encoder's native unit
// at the edge: twips (1/1440 in) for OOXML, points (1/72 in) for PDF.
package geometry

import (
	"fmt"
	"math"
	"strings"
)

const (
	twipsPerInch  = 1440
	pointsPerInch = 72
	cmPerInch     = 2.54
	emuPerInch    = 914400
)

// Length is a physical length measured in inches.
type Length float64

// Inches returns a Length of v inches.
func Inches(v float64) Length { return Length(v) }

// Centimeters returns a Length of v centimeters.
func Centimeters(v float64) Length { return Length(v / cmPerInch) }

// Points returns a Length of v typographic points.
func Points(v float64) Length { return Length(v / pointsPerInch) }

// Twips returns a Length of v twips.
func Twips(v int) Length { return Length(float64(v) / twipsPerInch) }

// Inches returns the length in inches.
func (l Length) Inches() float64 { return float64(l) }

// Twips returns the length rounded to the nearest twip.
func (l Length) Twips() int { return int(math.Round(float64(l) * twipsPerInch)) }

// Points returns the length in points.
func (l Length) Points() float64 { return float64(l) * pointsPerInch }

// Millimeters returns the length in millimeters.
func (l Length) Millimeters() float64 { return float64(l) * cmPerInch * 10 }

// EMU returns the length in English Metric Units (DrawingML).
func (l Length) EMU() int64 { return int64(math.Round(float64(l) * emuPerInch)) }

// CSS renders the length as a CSS inch value.
func (l Length) CSS() string { return fmt.Sprintf("%.4fin", float64(l)) }

// Scale multiplies the length by f.
func (l Length) Scale(f float64) Length { return Length(float64(l) * f) }

// PaperSize identifies a supported paper format.
type PaperSize string

const (
	PaperUSLetter PaperSize = "us_letter"
	PaperA4       PaperSize = "a4"
	PaperLegal    PaperSize = "legal"
	PaperCustom   PaperSize = "custom"
)

// Custom paper limits, in inches.
const (
	MinCustomWidth  = 1.0
	MaxCustomWidth  = 20.0
	MinCustomHeight = 1.0
	MaxCustomHeight = 30.0
)

// Unit is a target encoder unit.
type Unit string

const (
	UnitTwips  Unit = "twips"
	UnitPoints Unit = "pt"
	UnitInches Unit = "in"
)

type paperEntry struct {
	label  string
	width  Length
	height Length
}

var paperTable = map[PaperSize]paperEntry{
	PaperUSLetter: {label: "US Letter (8.5 x 11 in)", width: Inches(8.5), height: Inches(11)},
	PaperA4:       {label: "A4 (21 x 29.7 cm)", width: Centimeters(21), height: Centimeters(29.7)},
	PaperLegal:    {label: "Legal (8.5 x 14 in)", width: Inches(8.5), height: Inches(14)},
}

// ParsePaperSize normalizes a paper size identifier. Unknown values are
// returned as-is so the caller's fallback policy can decide.
func ParsePaperSize(s string) PaperSize {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "letter", "usletter", "us-letter":
		return PaperUSLetter
	}
	return PaperSize(v)
}

// Known reports whether p is one of the supported paper sizes.
func (p PaperSize) Known() bool {
	if p == PaperCustom {
		return true
	}
	_, ok := paperTable[p]
	return ok
}

// Label returns a human readable name.
func (p PaperSize) Label() string {
	if p == PaperCustom {
		return "Custom"
	}
	if e, ok := paperTable[p]; ok {
		return e.label
	}
	return string(p)
}

// PaperSizes lists the supported sizes in display order.
func PaperSizes() []PaperSize {
	return []PaperSize{PaperUSLetter, PaperA4, PaperLegal, PaperCustom}
}

// ValidCustom reports whether custom dimensions (in inches) are present and
// inside the accepted range.
func ValidCustom(width, height *float64) bool {
	if width == nil || height == nil {
		return false
	}
	return *width >= MinCustomWidth && *width <= MaxCustomWidth &&
		*height >= MinCustomHeight && *height <= MaxCustomHeight
}

// Dimensions resolves a paper size to physical width and height. Custom
// dimensions are only consulted for PaperCustom. When the size is unknown or
// the custom dimensions are invalid, US Letter is returned with ok=false.
func Dimensions(size PaperSize, customWidth, customHeight *float64) (width, height Length, ok bool) {
	if size == PaperCustom {
		if ValidCustom(customWidth, customHeight) {
			return Inches(*customWidth), Inches(*customHeight), true
		}
		letter := paperTable[PaperUSLetter]
		return letter.width, letter.height, false
	}
	if e, found := paperTable[size]; found {
		return e.width, e.height, true
	}
	letter := paperTable[PaperUSLetter]
	return letter.width, letter.height, false
}

// PaperDimensions returns the paper size converted into unit.
func PaperDimensions(size PaperSize, customWidth, customHeight *float64, unit Unit) (float64, float64) {
	w, h, _ := Dimensions(size, customWidth, customHeight)
	return Convert(w, unit), Convert(h, unit)
}

// Convert expresses l in unit. Twips are rounded to whole twips.
func Convert(l Length, unit Unit) float64 {
	switch unit {
	case UnitTwips:
		return float64(l.Twips())
	case UnitPoints:
		return l.Points()
	default:
		return l.Inches()
	}
}
