package layout

import (
	"strings"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

// TemplateID names one of the letterhead designs.
type TemplateID string

const (
	Classic       TemplateID = "classic"
	ModernGreen   TemplateID = "modern_green"
	CorporateBlue TemplateID = "corporate_blue"
	ElegantGray   TemplateID = "elegant_gray"
)

// ParseTemplateID normalizes a template identifier. Dashes are accepted in
// place of underscores.
func ParseTemplateID(s string) TemplateID {
	return TemplateID(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
}

// Slug returns the identifier with dashes, as used in filenames.
func (t TemplateID) Slug() string {
	return strings.ReplaceAll(string(t), "_", "-")
}

// Known reports whether t has a style entry.
func (t TemplateID) Known() bool {
	_, ok := styles[t]
	return ok
}

// FallbackMode selects what is drawn in the logo slot when there is no logo.
type FallbackMode int

const (
	// FallbackCompanyName draws the company name.
	FallbackCompanyName FallbackMode = iota
	// FallbackMonogram draws the first letter of the company name.
	FallbackMonogram
)

// headerRule describes how header height is derived.
type headerRule struct {
	fixed    geometry.Length
	fraction float64 // of paper height, used when fixed is zero
}

func (r headerRule) height(paperHeight geometry.Length) geometry.Length {
	if r.fixed > 0 {
		return r.fixed
	}
	return paperHeight.Scale(r.fraction)
}

// Style is the constant description of a template.
type Style struct {
	ID          TemplateID
	Name        string
	FontFamily  string
	Accent      string
	Muted       string
	Margins     Margins
	Fallback    FallbackMode
	Separator   Rule
	header      headerRule
	logoWidth   geometry.Length // fixed logo cell width; zero means share of content width
	logoShare   float64
	headerFill  float64 // share of header height usable by the logo
	fallbackPt  float64 // fallback text size per point of header height
	companyPt   float64
	contactPt   float64
	bodyPt      float64
	recipientPt float64
}

const (
	fontTimes = "Times New Roman"
	fontArial = "Arial"
)

var betaMargins = Margins{
	Top:    geometry.Inches(0.3),
	Right:  geometry.Inches(0.5),
	Bottom: geometry.Inches(0.5),
	Left:   geometry.Inches(0.5),
}

var styles = map[TemplateID]Style{
	Classic: {
		ID:         Classic,
		Name:       "Classic",
		FontFamily: fontTimes,
		Accent:     "#000000",
		Muted:      "#333333",
		Margins: Margins{
			Top:    geometry.Inches(1.5),
			Right:  geometry.Inches(1.5),
			Bottom: geometry.Inches(1.5),
			Left:   geometry.Inches(1.5),
		},
		Fallback:    FallbackCompanyName,
		Separator:   Rule{Width: geometry.Points(1.5), Color: "#000000"},
		header:      headerRule{fixed: geometry.Inches(1.25)},
		logoWidth:   geometry.Inches(2),
		headerFill:  0.8,
		fallbackPt:  0.2,
		companyPt:   20,
		contactPt:   10,
		bodyPt:      12,
		recipientPt: 12,
	},
	ModernGreen: {
		ID:          ModernGreen,
		Name:        "Modern Green",
		FontFamily:  fontArial,
		Accent:      "#2E7D32",
		Muted:       "#555555",
		Margins:     betaMargins,
		Fallback:    FallbackCompanyName,
		Separator:   Rule{Width: geometry.Points(3), Color: "#2E7D32"},
		header:      headerRule{fraction: 0.2},
		logoShare:   0.35,
		headerFill:  0.7,
		fallbackPt:  0.16,
		companyPt:   22,
		contactPt:   9,
		bodyPt:      11,
		recipientPt: 11,
	},
	CorporateBlue: {
		ID:          CorporateBlue,
		Name:        "Corporate Blue",
		FontFamily:  fontArial,
		Accent:      "#1565C0",
		Muted:       "#4A4A4A",
		Margins:     betaMargins,
		Fallback:    FallbackCompanyName,
		Separator:   Rule{Width: geometry.Points(2), Color: "#1565C0"},
		header:      headerRule{fraction: 0.2},
		logoShare:   0.35,
		headerFill:  0.7,
		fallbackPt:  0.16,
		companyPt:   22,
		contactPt:   9,
		bodyPt:      11,
		recipientPt: 11,
	},
	ElegantGray: {
		ID:          ElegantGray,
		Name:        "Elegant Gray",
		FontFamily:  fontTimes,
		Accent:      "#2C2C2C",
		Muted:       "#6B6B6B",
		Margins:     betaMargins,
		Fallback:    FallbackMonogram,
		Separator:   Rule{Width: geometry.Points(1), Color: "#2C2C2C"},
		header:      headerRule{fraction: 0.2},
		logoShare:   0.3,
		headerFill:  0.7,
		fallbackPt:  0.4,
		companyPt:   24,
		contactPt:   9,
		bodyPt:      11,
		recipientPt: 11,
	},
}

// Templates lists every template style in display order.
func Templates() []Style {
	ids := []TemplateID{Classic, ModernGreen, CorporateBlue, ElegantGray}
	out := make([]Style, 0, len(ids))
	for _, id := range ids {
		out = append(out, styles[id])
	}
	return out
}

// Lookup returns the style for id.
func Lookup(id TemplateID) (Style, bool) {
	s, ok := styles[id]
	return s, ok
}
