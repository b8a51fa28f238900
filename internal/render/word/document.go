package word

import (
	"fmt"
	"math"
	"strings"

	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/content"
	"github.com/zlovtnik/gletter/internal/render/geometry"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/letter"
)

// Signature image boxes.
var (
	signatureBoxWidth  = geometry.Inches(2)
	signatureBoxHeight = geometry.Inches(0.75)
	stampBox           = geometry.Inches(1.25)
)

// Encoder renders a plan, blocks and letter into a .docx package.
type Encoder struct {
	// Application is recorded in the document properties.
	Application string
}

// NewEncoder returns an encoder that stamps documents with application.
func NewEncoder(application string) *Encoder {
	return &Encoder{Application: application}
}

// Render builds the complete package in memory. Content runs are written
// without emphasis; lists become prefixed lines and tables become Word tables.
func (e *Encoder) Render(plan layout.Plan, blocks []content.Block, l letter.Letter) ([]byte, error) {
	d := &document{plan: plan}
	d.open()
	d.header(l)
	d.separator()
	d.senderAddress(l.Sender)
	d.dateLine(l)
	if l.Recipient != nil {
		d.recipient(*l.Recipient)
	}
	for _, blk := range blocks {
		d.block(blk)
	}
	if l.Signature != nil {
		d.signature(*l.Signature)
	}
	d.close()

	parts := []part{
		{name: "[Content_Types].xml", data: []byte(contentTypes)},
		{name: "_rels/.rels", data: []byte(packageRels)},
		{name: "docProps/core.xml", data: corePart(l.DocumentTitle(), l.Sender.Company, e.Application, l.Date)},
		{name: "docProps/app.xml", data: appPart(e.Application, l.Sender.Company)},
		{name: "word/document.xml", data: []byte(d.b.String())},
		{name: "word/styles.xml", data: stylesPart(plan.Type.Body.Family, plan.Type.Body.Size)},
		{name: "word/_rels/document.xml.rels", data: documentRels(d.media)},
	}
	for _, m := range d.media {
		parts = append(parts, part{name: "word/" + m.target, data: m.data})
	}
	return writePackage(parts, l.Date)
}

type document struct {
	b     strings.Builder
	plan  layout.Plan
	media []media
}

func (d *document) open() {
	d.b.WriteString(xmlHeader)
	d.b.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP +
		`" xmlns:a="` + nsA + `" xmlns:pic="` + nsPic + `"><w:body>`)
}

func (d *document) close() {
	p := d.plan
	orient := ""
	if p.PaperWidth > p.PaperHeight {
		orient = ` w:orient="landscape"`
	}
	fmt.Fprintf(&d.b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"%s/>`, p.PaperWidth.Twips(), p.PaperHeight.Twips(), orient)
	fmt.Fprintf(&d.b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`,
		p.Margins.Top.Twips(), p.Margins.Right.Twips(), p.Margins.Bottom.Twips(), p.Margins.Left.Twips())
	d.b.WriteString(`</w:sectPr></w:body></w:document>`)
}

// header writes the two-cell table: logo slot on the left, company name and
// contact lines on the right.
func (d *document) header(l letter.Letter) {
	p := d.plan
	logoW := p.LogoWidth.Twips()
	contactW := p.ContactWidth.Twips()

	fmt.Fprintf(&d.b, `<w:tbl><w:tblPr><w:tblW w:w="%d" w:type="dxa"/>`, p.ContentWidth.Twips())
	d.b.WriteString(`<w:tblBorders><w:top w:val="nil"/><w:left w:val="nil"/><w:bottom w:val="nil"/><w:right w:val="nil"/>` +
		`<w:insideH w:val="nil"/><w:insideV w:val="nil"/></w:tblBorders><w:tblLayout w:type="fixed"/>`)
	d.b.WriteString(`<w:tblCellMar><w:left w:w="0" w:type="dxa"/><w:right w:w="0" w:type="dxa"/></w:tblCellMar></w:tblPr>`)
	fmt.Fprintf(&d.b, `<w:tblGrid><w:gridCol w:w="%d"/><w:gridCol w:w="%d"/></w:tblGrid>`, logoW, contactW)
	fmt.Fprintf(&d.b, `<w:tr><w:trPr><w:trHeight w:val="%d" w:hRule="exact"/></w:trPr>`, p.HeaderHeight.Twips())

	// logo cell
	fmt.Fprintf(&d.b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:vAlign w:val="center"/></w:tcPr>`, logoW)
	d.b.WriteString(`<w:p><w:pPr><w:jc w:val="left"/></w:pPr>`)
	if l.Logo != nil {
		w, h := l.Logo.Fit(p.LogoWidth, p.LogoHeight)
		d.image(l.Logo, "Logo", w, h)
	} else {
		d.run(p.FallbackText(l.Sender.Company), p.Type.Fallback, false)
	}
	d.b.WriteString(`</w:p></w:tc>`)

	// contact cell
	fmt.Fprintf(&d.b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:vAlign w:val="center"/></w:tcPr>`, contactW)
	d.paragraph("right", 0, func() {
		d.run(l.Sender.Company, p.Type.CompanyName, false)
	})
	for _, line := range l.Sender.ContactLines() {
		d.paragraph("right", 0, func() {
			d.run(line, p.Type.Contact, false)
		})
	}
	d.b.WriteString(`</w:tc></w:tr></w:tbl>`)
}

// separator draws the template rule as a paragraph bottom border.
func (d *document) separator() {
	rule := d.plan.Separator
	size := int(math.Max(2, math.Round(rule.Width.Points()*8)))
	fmt.Fprintf(&d.b, `<w:p><w:pPr><w:pBdr><w:bottom w:val="single" w:sz="%d" w:space="1" w:color="%s"/></w:pBdr>`,
		size, hexColor(rule.Color))
	d.b.WriteString(`<w:spacing w:after="120"/></w:pPr></w:p>`)
}

func (d *document) senderAddress(s letter.Sender) {
	lines := s.AddressLines()
	for i, line := range lines {
		after := 0
		if i == len(lines)-1 {
			after = 240
		}
		d.paragraph("", after, func() { d.run(line, d.plan.Type.Address, false) })
	}
}

func (d *document) dateLine(l letter.Letter) {
	d.paragraph("", 240, func() { d.run(l.DateLine(), d.plan.Type.Body, false) })
}

func (d *document) recipient(r letter.Recipient) {
	t := d.plan.Type
	if name := strings.TrimSpace(r.Name); name != "" {
		d.paragraph("", 0, func() { d.run(name, t.RecipientName, false) })
	}
	if title := strings.TrimSpace(r.Title); title != "" {
		d.paragraph("", 0, func() { d.run(title, t.Body, false) })
	}
	for _, line := range r.AddressLines() {
		d.paragraph("", 0, func() { d.run(line, t.Body, false) })
	}
	d.paragraph("", 240, nil)
}

func (d *document) block(blk content.Block) {
	body := d.plan.Type.Body
	switch b := blk.(type) {
	case *content.Paragraph:
		d.paragraph("", 200, func() {
			for _, r := range b.Runs {
				d.run(r.Text, body, r.Break)
			}
		})
	case *content.List:
		for i := range b.Items {
			line := b.Line(i)
			d.b.WriteString(`<w:p><w:pPr><w:spacing w:after="60"/><w:ind w:left="360"/></w:pPr>`)
			d.run(line, body, false)
			d.b.WriteString(`</w:p>`)
		}
		d.paragraph("", 120, nil)
	case *content.Table:
		d.table(b)
	}
}

func (d *document) table(t *content.Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	total := d.plan.ContentWidth.Twips()
	colW := total / cols
	body := d.plan.Type.Body

	fmt.Fprintf(&d.b, `<w:tbl><w:tblPr><w:tblW w:w="%d" w:type="dxa"/>`, total)
	d.b.WriteString(`<w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&d.b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="333333"/>`, side)
	}
	d.b.WriteString(`</w:tblBorders><w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		fmt.Fprintf(&d.b, `<w:gridCol w:w="%d"/>`, colW)
	}
	d.b.WriteString(`</w:tblGrid>`)

	for i, row := range t.Rows {
		d.b.WriteString(`<w:tr>`)
		header := i == 0 && t.Header
		if header {
			d.b.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
		}
		for _, cell := range row {
			fmt.Fprintf(&d.b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, colW)
			if header {
				d.b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="F2F2F2"/>`)
			}
			d.b.WriteString(`</w:tcPr><w:p>`)
			d.run(cell, body, false)
			d.b.WriteString(`</w:p></w:tc>`)
		}
		d.b.WriteString(`</w:tr>`)
	}
	d.b.WriteString(`</w:tbl>`)
	d.paragraph("", 120, nil)
}

func (d *document) signature(s letter.Signature) {
	font := d.plan.Type.Body
	if s.Font != "" {
		font.Family = s.Font
	}
	if s.FontSize > 0 {
		font.Size = s.FontSize
	}
	if s.Color != "" {
		font.Color = s.Color
	}

	d.b.WriteString(`<w:p><w:pPr><w:spacing w:before="480"/></w:pPr>`)
	if s.Image != nil {
		w, h := s.Image.Fit(signatureBoxWidth, signatureBoxHeight)
		d.image(s.Image, "Signature", w, h)
	}
	if s.Stamp != nil {
		w, h := s.Stamp.Fit(stampBox, stampBox)
		d.image(s.Stamp, "Stamp", w, h)
	}
	d.b.WriteString(`</w:p>`)

	for _, line := range s.Lines() {
		d.paragraph("", 0, func() { d.run(line, font, false) })
	}
}

// paragraph writes one w:p. fill may be nil for an empty spacer.
func (d *document) paragraph(align string, after int, fill func()) {
	d.b.WriteString(`<w:p>`)
	if align != "" || after > 0 {
		d.b.WriteString(`<w:pPr>`)
		if after > 0 {
			fmt.Fprintf(&d.b, `<w:spacing w:after="%d"/>`, after)
		}
		if align != "" {
			fmt.Fprintf(&d.b, `<w:jc w:val="%s"/>`, align)
		}
		d.b.WriteString(`</w:pPr>`)
	}
	if fill != nil {
		fill()
	}
	d.b.WriteString(`</w:p>`)
}

// run writes a text run in font. A leading line break is emitted when br
// is set.
func (d *document) run(text string, f layout.Font, br bool) {
	d.b.WriteString(`<w:r>`)
	d.runProps(f)
	if br {
		d.b.WriteString(`<w:br/>`)
	}
	d.b.WriteString(`<w:t xml:space="preserve">` + esc(text) + `</w:t></w:r>`)
}

func (d *document) runProps(f layout.Font) {
	d.b.WriteString(`<w:rPr>`)
	if f.Family != "" {
		fam := esc(f.Family)
		d.b.WriteString(`<w:rFonts w:ascii="` + fam + `" w:hAnsi="` + fam + `" w:cs="` + fam + `"/>`)
	}
	if f.Bold {
		d.b.WriteString(`<w:b/><w:bCs/>`)
	}
	if f.Italic {
		d.b.WriteString(`<w:i/><w:iCs/>`)
	}
	if c := hexColor(f.Color); c != "" {
		d.b.WriteString(`<w:color w:val="` + c + `"/>`)
	}
	if f.Size > 0 {
		fmt.Fprintf(&d.b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, halfPoints(f.Size), halfPoints(f.Size))
	}
	d.b.WriteString(`</w:rPr>`)
}

// image embeds img as an inline picture of the given size.
func (d *document) image(img *assets.Image, name string, w, h geometry.Length) {
	n := len(d.media) + 1
	m := media{
		relID:  fmt.Sprintf("rIdImg%d", n),
		target: fmt.Sprintf("media/image%d.%s", n, img.Ext()),
		data:   img.Data,
	}
	d.media = append(d.media, m)

	cx, cy := w.EMU(), h.EMU()
	fmt.Fprintf(&d.b, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="%s"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic><a:graphicData uri="%s"><pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, n, esc(name), nsPic, n, esc(m.target), m.relID, cx, cy)
}

// hexColor strips the leading '#' from a CSS hex color.
func hexColor(c string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}
