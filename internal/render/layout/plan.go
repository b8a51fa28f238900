// Package layout computes the page geometry and typography for a letterhead
// from a template and a paper size. Both document encoders consume the same
// Plan, which keeps Word and PDF output consistent.
package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

// Margins are the four page margins.
type Margins struct {
	Top, Right, Bottom, Left geometry.Length
}

// Rule is a horizontal separator line.
type Rule struct {
	Width geometry.Length
	Color string
}

// Font is the styling of one text role. Size is in points.
type Font struct {
	Family string
	Size   float64
	Color  string
	Bold   bool
	Italic bool
}

// Typography holds the font of every text role on the page.
type Typography struct {
	CompanyName   Font
	Contact       Font
	Address       Font
	RecipientName Font
	Body          Font
	Fallback      Font
}

// Plan is the computed layout for one render. It is a value and is never
// modified after Planner.Plan returns it.
type Plan struct {
	Template    TemplateID
	Style       Style
	Paper       geometry.PaperSize
	PaperWidth  geometry.Length
	PaperHeight geometry.Length
	Margins     Margins

	HeaderHeight geometry.Length
	LogoWidth    geometry.Length
	LogoHeight   geometry.Length
	ContactWidth geometry.Length
	ContentWidth geometry.Length

	Type      Typography
	Separator Rule
	Fallback  FallbackMode
	HasLogo   bool
	// TextScale shrinks type and fixed spacing on paper smaller than
	// half letter. It is 1 for every standard size.
	TextScale float64

	// Substitutions lists the fallbacks applied while planning, for logging.
	Substitutions []string
}

// FallbackText returns the text drawn in the logo slot when there is no logo.
func (p Plan) FallbackText(company string) string {
	company = strings.TrimSpace(company)
	if p.Fallback != FallbackMonogram {
		return company
	}
	r, _ := utf8.DecodeRuneInString(company)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Space scales a fixed gap, in points, by TextScale.
func (p Plan) Space(pt float64) float64 {
	if p.TextScale <= 0 || p.TextScale >= 1 {
		return pt
	}
	return pt * p.TextScale
}

// ContentHeight is the vertical space between the top and bottom margins.
func (p Plan) ContentHeight() geometry.Length {
	return p.PaperHeight - p.Margins.Top - p.Margins.Bottom
}

const (
	// maxMarginShare caps each margin pair as a share of the paper dimension.
	maxMarginShare = 0.5
	// maxHeaderShare caps the header as a share of the content height.
	maxHeaderShare = 0.25
	// minFontSize is the smallest size the planner emits, in points.
	minFontSize = 1
)

// Below this page size type and spacing shrink proportionally.
var (
	textReferenceWidth  = geometry.Inches(5.5)
	textReferenceHeight = geometry.Inches(8.5)
)

// fitMargins scales each margin pair down so that it leaves at least half of
// the paper for content.
func fitMargins(m Margins, width, height geometry.Length) Margins {
	if f := marginFactor(m.Left+m.Right, width); f < 1 {
		m.Left, m.Right = m.Left.Scale(f), m.Right.Scale(f)
	}
	if f := marginFactor(m.Top+m.Bottom, height); f < 1 {
		m.Top, m.Bottom = m.Top.Scale(f), m.Bottom.Scale(f)
	}
	return m
}

func marginFactor(pair, dim geometry.Length) float64 {
	limit := dim.Scale(maxMarginShare)
	if pair <= limit || pair <= 0 {
		return 1
	}
	return float64(limit) / float64(pair)
}

func textScale(width, height geometry.Length) float64 {
	return math.Min(1, math.Min(float64(width)/float64(textReferenceWidth), float64(height)/float64(textReferenceHeight)))
}

// Planner builds plans under a fallback policy.
type Planner struct {
	Policy FallbackPolicy
}

// NewPlanner returns a planner using policy.
func NewPlanner(policy FallbackPolicy) Planner {
	return Planner{Policy: policy}
}

// Plan resolves a template and paper size into page geometry. Custom width
// and height are in inches and only read for geometry.PaperCustom.
func (pl Planner) Plan(id TemplateID, paper geometry.PaperSize, customWidth, customHeight *float64, hasLogo bool) (Plan, error) {
	var subs []string

	style, ok := styles[id]
	if !ok {
		if pl.Policy.Strict {
			return Plan{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
		}
		fb := pl.Policy.template()
		subs = append(subs, fmt.Sprintf("template %q replaced by %q", id, fb))
		style = styles[fb]
	}

	width, height, ok := geometry.Dimensions(paper, customWidth, customHeight)
	if !ok {
		if pl.Policy.Strict {
			return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPaperSize, paper)
		}
		fb := pl.Policy.paper()
		subs = append(subs, fmt.Sprintf("paper size %q replaced by %q", paper, fb))
		paper = fb
		width, height, _ = geometry.Dimensions(fb, nil, nil)
	}

	plan := Plan{
		Template:      style.ID,
		Style:         style,
		Paper:         paper,
		PaperWidth:    width,
		PaperHeight:   height,
		Margins:       fitMargins(style.Margins, width, height),
		Separator:     style.Separator,
		Fallback:      style.Fallback,
		HasLogo:       hasLogo,
		TextScale:     textScale(width, height),
		Substitutions: subs,
	}
	plan.ContentWidth = width - plan.Margins.Left - plan.Margins.Right

	plan.HeaderHeight = style.header.height(height)
	if limit := plan.ContentHeight().Scale(maxHeaderShare); plan.HeaderHeight > limit {
		plan.HeaderHeight = limit
	}

	plan.LogoWidth = style.logoWidth
	if plan.LogoWidth == 0 {
		plan.LogoWidth = plan.ContentWidth.Scale(style.logoShare)
	}
	if plan.LogoWidth > plan.ContentWidth {
		plan.LogoWidth = plan.ContentWidth.Scale(0.5)
	}
	plan.LogoHeight = plan.HeaderHeight.Scale(style.headerFill)
	plan.ContactWidth = max(plan.ContentWidth-plan.LogoWidth, 0)

	plan.Type = typography(style, plan.HeaderHeight, plan.TextScale)
	return plan, nil
}

func typography(s Style, header geometry.Length, scale float64) Typography {
	font := func(size float64, color string, bold bool) Font {
		return Font{Family: s.FontFamily, Size: max(size, minFontSize), Color: color, Bold: bold}
	}
	scaled := func(size float64) float64 {
		if scale >= 1 {
			return size
		}
		return halfPoint(size * scale)
	}
	return Typography{
		CompanyName:   font(scaled(s.companyPt), s.Accent, true),
		Contact:       font(scaled(s.contactPt), s.Muted, false),
		Address:       font(scaled(s.contactPt), s.Muted, false),
		RecipientName: font(scaled(s.recipientPt), "#000000", true),
		Body:          font(scaled(s.bodyPt), "#000000", false),
		Fallback:      font(halfPoint(header.Points()*s.fallbackPt), s.Accent, true),
	}
}

// halfPoint rounds to the nearest half point, the smallest size step OOXML
// can express.
func halfPoint(v float64) float64 {
	return math.Round(v*2) / 2
}
