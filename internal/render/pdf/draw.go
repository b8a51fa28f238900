package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/content"
	"github.com/zlovtnik/gletter/internal/render/geometry"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/letter"
)

// lineFactor is the leading applied to font sizes.
const lineFactor = 1.25

// Canvas wraps an fpdf document with the font, color and text helpers shared
// by the letter and invoice drawings. Coordinates are points.
type Canvas struct {
	Doc      *fpdf.Fpdf
	Options  Options
	tr       func(string) string
	imageSeq int
}

// NewCanvas prepares doc for drawing UTF-8 text with the core fonts.
func NewCanvas(doc *fpdf.Fpdf, opts Options) *Canvas {
	return &Canvas{Doc: doc, Options: opts, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

// Text converts UTF-8 to the core font encoding.
func (c *Canvas) Text(s string) string {
	return c.tr(s)
}

// CoreFamily maps a template font family to an fpdf core font.
func CoreFamily(family, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "times new roman", "times", "serif", "georgia":
		return "Times"
	case "arial", "helvetica", "sans-serif", "verdana":
		return "Arial"
	case "courier", "courier new", "monospace":
		return "Courier"
	}
	if fallback != "" && !strings.EqualFold(fallback, family) {
		return CoreFamily(fallback, "")
	}
	return "Helvetica"
}

// HexRGB parses #RGB or #RRGGBB. Invalid input is black.
func HexRGB(hex string) (int, int, int) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// SetFont applies f. extra adds fpdf style letters such as "I" or "U".
func (c *Canvas) SetFont(f layout.Font, extra string) {
	style := extra
	if f.Bold && !strings.Contains(style, "B") {
		style += "B"
	}
	if f.Italic && !strings.Contains(style, "I") {
		style += "I"
	}
	c.Doc.SetFont(CoreFamily(f.Family, c.Options.DefaultFont), style, f.Size)
	c.Doc.SetTextColor(HexRGB(f.Color))
}

// LineHeight is the leading for f.
func LineHeight(f layout.Font) float64 {
	return f.Size * lineFactor
}

// Image places img inside the box at (x, y), keeping its aspect ratio and
// centering it vertically.
func (c *Canvas) Image(img *assets.Image, x, y float64, boxW, boxH geometry.Length) {
	w, h := img.Fit(boxW, boxH)
	c.imageSeq++
	name := fmt.Sprintf("img%d", c.imageSeq)
	opt := fpdf.ImageOptions{ImageType: strings.ToUpper(img.Format)}
	if info := c.Doc.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data)); info != nil && c.Options.DPI > 0 {
		info.SetDpi(c.Options.DPI)
	}
	offset := (boxH.Points() - h.Points()) / 2
	c.Doc.ImageOptions(name, x, y+offset, w.Points(), h.Points(), false, opt, 0, "")
}

// Rule draws a horizontal line.
func (c *Canvas) Rule(x1, x2, y float64, r layout.Rule) {
	c.Doc.SetDrawColor(HexRGB(r.Color))
	c.Doc.SetLineWidth(r.Width.Points())
	c.Doc.Line(x1, y, x2, y)
}

// Blocks draws content blocks from the current position across width.
// Paragraph emphasis is kept through the font style.
func (c *Canvas) Blocks(blocks []content.Block, body layout.Font, width float64) {
	doc := c.Doc
	left, _, _, _ := doc.GetMargins()
	lh := LineHeight(body)

	for _, blk := range blocks {
		switch b := blk.(type) {
		case *content.Paragraph:
			doc.SetX(left)
			for _, r := range b.Runs {
				if r.Break {
					doc.Ln(lh)
				}
				var style string
				if r.Bold {
					style += "B"
				}
				if r.Italic {
					style += "I"
				}
				if r.Underline {
					style += "U"
				}
				c.SetFont(body, style)
				doc.Write(lh, c.Text(r.Text))
			}
			doc.Ln(lh * 1.6)
		case *content.List:
			c.SetFont(body, "")
			for i := range b.Items {
				doc.SetX(left + 18)
				doc.MultiCell(width-18, lh, c.Text(b.Line(i)), "", "L", false)
			}
			doc.Ln(lh * 0.6)
		case *content.Table:
			cols := b.Columns()
			if cols == 0 {
				continue
			}
			colW := width / float64(cols)
			doc.SetDrawColor(0x33, 0x33, 0x33)
			doc.SetLineWidth(0.75)
			doc.SetFillColor(0xF2, 0xF2, 0xF2)
			for i, row := range b.Rows {
				header := i == 0 && b.Header
				style := ""
				if header {
					style = "B"
				}
				c.SetFont(body, style)
				doc.SetX(left)
				for _, cell := range row {
					doc.CellFormat(colW, lh+6, c.Text(cell), "1", 0, "L", header, 0, "")
				}
				doc.Ln(lh + 6)
			}
			doc.Ln(lh * 0.6)
		}
	}
}

// DrawLetter returns the native drawing of a letterhead. It mirrors the
// HTML layout produced by Encoder.RenderHTML from the same plan.
func DrawLetter(plan layout.Plan, blocks []content.Block, l letter.Letter, opts Options) func(*fpdf.Fpdf) error {
	return func(doc *fpdf.Fpdf) error {
		c := NewCanvas(doc, opts)
		m := plan.Margins
		left, top := m.Left.Points(), m.Top.Points()
		width := plan.ContentWidth.Points()
		headerH := plan.HeaderHeight.Points()

		doc.SetMargins(left, top, m.Right.Points())
		doc.SetAutoPageBreak(true, m.Bottom.Points())
		doc.AddPage()

		// logo slot
		if l.Logo != nil {
			c.Image(l.Logo, left, top, plan.LogoWidth, plan.LogoHeight)
		} else {
			c.SetFont(plan.Type.Fallback, "")
			doc.SetXY(left, top)
			doc.CellFormat(plan.LogoWidth.Points(), headerH, c.Text(plan.FallbackText(l.Sender.Company)), "", 0, "LM", false, 0, "")
		}

		// contact column, vertically centered in the header
		type line struct {
			text string
			font layout.Font
		}
		lines := []line{{l.Sender.Company, plan.Type.CompanyName}}
		for _, s := range l.Sender.ContactLines() {
			lines = append(lines, line{s, plan.Type.Contact})
		}
		var total float64
		for _, ln := range lines {
			total += LineHeight(ln.font)
		}
		x := left + plan.LogoWidth.Points()
		y := top + (headerH-total)/2
		for _, ln := range lines {
			c.SetFont(ln.font, "")
			doc.SetXY(x, y)
			doc.CellFormat(plan.ContactWidth.Points(), LineHeight(ln.font), c.Text(ln.text), "", 0, "RM", false, 0, "")
			y += LineHeight(ln.font)
		}

		sepY := top + headerH + plan.Space(4)
		c.Rule(left, left+width, sepY, plan.Separator)
		doc.SetXY(left, sepY+plan.Space(10))

		c.SetFont(plan.Type.Address, "")
		for _, s := range l.Sender.AddressLines() {
			doc.CellFormat(width, LineHeight(plan.Type.Address), c.Text(s), "", 1, "L", false, 0, "")
		}
		doc.Ln(plan.Space(12))

		body := plan.Type.Body
		c.SetFont(body, "")
		doc.CellFormat(width, LineHeight(body), c.Text(l.DateLine()), "", 1, "L", false, 0, "")
		doc.Ln(plan.Space(12))

		if r := l.Recipient; r != nil {
			if name := strings.TrimSpace(r.Name); name != "" {
				c.SetFont(plan.Type.RecipientName, "")
				doc.CellFormat(width, LineHeight(plan.Type.RecipientName), c.Text(name), "", 1, "L", false, 0, "")
			}
			c.SetFont(body, "")
			if title := strings.TrimSpace(r.Title); title != "" {
				doc.CellFormat(width, LineHeight(body), c.Text(title), "", 1, "L", false, 0, "")
			}
			for _, s := range r.AddressLines() {
				doc.CellFormat(width, LineHeight(body), c.Text(s), "", 1, "L", false, 0, "")
			}
			doc.Ln(plan.Space(12))
		}

		c.Blocks(blocks, body, width)

		if s := l.Signature; s != nil {
			c.signature(*s, body, left, width, plan.Space(1))
		}
		return doc.Error()
	}
}

// signature draws the signature block. scale shrinks the image boxes and the
// gap above them on small paper.
func (c *Canvas) signature(s letter.Signature, body layout.Font, left, width, scale float64) {
	doc := c.Doc
	doc.Ln(18 * scale)
	y := doc.GetY()
	stampBox := geometry.Inches(1.25).Scale(scale)
	if s.Image != nil {
		c.Image(s.Image, left, y, geometry.Inches(2).Scale(scale), geometry.Inches(0.75).Scale(scale))
	}
	if s.Stamp != nil {
		c.Image(s.Stamp, left+geometry.Inches(2.25).Scale(scale).Points(), y, stampBox, stampBox)
	}
	if s.Image != nil || s.Stamp != nil {
		doc.SetY(y + stampBox.Points())
	}

	font := body
	if s.Font != "" {
		font.Family = s.Font
	}
	if s.FontSize > 0 {
		font.Size = s.FontSize
	}
	if s.Color != "" {
		font.Color = s.Color
	}
	c.SetFont(font, "")
	for _, ln := range s.Lines() {
		doc.SetX(left)
		doc.CellFormat(width, LineHeight(font), c.Text(ln), "", 1, "L", false, 0, "")
	}
}
