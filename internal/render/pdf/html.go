package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/zlovtnik/gletter/internal/render/content"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/letter"
)

const letterHTMLTemplate = `{{if .HTML5}}<!DOCTYPE html>{{else}}<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">{{end}}
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    @page {
      size: {{.PageWidth}} {{.PageHeight}};
      margin: {{.MarginTop}} {{.MarginRight}} {{.MarginBottom}} {{.MarginLeft}};
    }
    * { box-sizing: border-box; }
    html, body {
      margin: 0;
      padding: 0;
      -webkit-print-color-adjust: exact;
      print-color-adjust: exact;
    }
    body {
      font-family: "{{.Font}}", "{{.DefaultFont}}", serif;
      font-size: {{.BodySize}}pt;
      color: #000000;
      line-height: 1.4;
    }
    .header {
      display: flex;
      align-items: center;
      width: {{.ContentWidth}};
      height: {{.HeaderHeight}};
      border-bottom: {{.RuleWidth}} solid {{.Accent}};
      margin-bottom: {{.GapHeader}};
    }
    .logo {
      width: {{.LogoWidth}};
      height: {{.HeaderHeight}};
      display: flex;
      align-items: center;
      flex: none;
    }
    .logo img {
      max-width: {{.LogoWidth}};
      max-height: {{.LogoHeight}};
    }
    .company-name-logo {
      font-size: {{.FallbackSize}}pt;
      font-weight: bold;
      color: {{.Accent}};
      line-height: 1;
    }
    .contact {
      width: {{.ContactWidth}};
      text-align: right;
    }
    .company-name {
      font-size: {{.CompanySize}}pt;
      font-weight: bold;
      color: {{.Accent}};
    }
    .contact-line, .address-line {
      font-size: {{.ContactSize}}pt;
      color: {{.Muted}};
    }
    .address { margin-bottom: {{.GapBlock}}; }
    .date { margin-bottom: {{.GapBlock}}; }
    .recipient { margin-bottom: {{.GapBlock}}; }
    .recipient-name { font-size: {{.RecipientSize}}pt; font-weight: bold; }
    .content { width: {{.ContentWidth}}; }
    .signature { margin-top: {{.GapSignature}}; }
    .signature img.sig { max-width: {{.SignatureWidth}}; max-height: {{.SignatureHeight}}; }
    .signature img.stamp { max-width: {{.StampSize}}; max-height: {{.StampSize}}; margin-left: {{.StampGap}}; }
    .signature-lines { {{.SignatureStyle}} }
  </style>
</head>
<body>
  <div class="header">
    <div class="logo">
      {{if .LogoURI}}<img src="{{.LogoURI}}" alt="{{.Company}}" />{{else}}<div class="company-name-logo">{{.FallbackText}}</div>{{end}}
    </div>
    <div class="contact">
      <div class="company-name">{{.Company}}</div>
      {{range .Contact}}<div class="contact-line">{{.}}</div>
      {{end}}
    </div>
  </div>
  <div class="address">
    {{range .Address}}<div class="address-line">{{.}}</div>
    {{end}}
  </div>
  <div class="date">{{.Date}}</div>
  {{with .Recipient}}<div class="recipient">
    {{if .Name}}<div class="recipient-name">{{.Name}}</div>{{end}}
    {{if .Title}}<div>{{.Title}}</div>{{end}}
    {{range .AddressLines}}<div>{{.}}</div>
    {{end}}
  </div>{{end}}
  <div class="content">{{.Content}}</div>
  {{if .Signature}}<div class="signature">
    {{if .SignatureURI}}<img class="sig" src="{{.SignatureURI}}" alt="signature" />{{end}}
    {{if .StampURI}}<img class="stamp" src="{{.StampURI}}" alt="stamp" />{{end}}
    <div class="signature-lines">
      {{range .SignatureLines}}<div>{{.}}</div>
      {{end}}
    </div>
  </div>{{end}}
</body>
</html>
`

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamilyFilter = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
)

// Document is an encoded PDF.
type Document struct {
	Data  []byte
	Pages int
}

// Encoder builds print HTML for a letterhead and converts it to PDF.
type Encoder struct {
	Converter Converter
	Options   Options
	tpl       *template.Template
}

// NewEncoder returns an encoder printing through conv.
func NewEncoder(conv Converter, opts Options) *Encoder {
	return &Encoder{
		Converter: conv,
		Options:   opts,
		tpl:       template.Must(template.New("letter").Parse(letterHTMLTemplate)),
	}
}

type letterView struct {
	HTML5       bool
	Title       string
	DefaultFont string
	Font        string
	Accent      string
	Muted       string

	PageWidth    string
	PageHeight   string
	MarginTop    string
	MarginRight  string
	MarginBottom string
	MarginLeft   string
	ContentWidth string
	HeaderHeight string
	LogoWidth    string
	LogoHeight   string
	ContactWidth string
	RuleWidth    string

	GapHeader       string
	GapBlock        string
	GapSignature    string
	SignatureWidth  string
	SignatureHeight string
	StampSize       string
	StampGap        string

	BodySize      float64
	CompanySize   float64
	ContactSize   float64
	RecipientSize float64
	FallbackSize  float64

	LogoURI      template.URL
	FallbackText string
	Company      string
	Contact      []string
	Address      []string
	Date         string
	Recipient    *letter.Recipient
	Content      template.HTML

	Signature      bool
	SignatureURI   template.URL
	StampURI       template.URL
	SignatureLines []string
	SignatureStyle template.CSS
}

// RenderHTML returns the self-contained print HTML for l laid out by plan.
// Source markup in l.Content is cleaned and passed through; when it is empty
// the blocks are rendered instead.
func (e *Encoder) RenderHTML(plan layout.Plan, blocks []content.Block, l letter.Letter) (string, error) {
	m := plan.Margins
	v := letterView{
		HTML5:       e.Options.HTML5,
		Title:       l.DocumentTitle(),
		DefaultFont: sanitizeFont(e.Options.DefaultFont, "Helvetica"),
		Font:        sanitizeFont(plan.Style.FontFamily, "Times New Roman"),
		Accent:      sanitizeColor(plan.Style.Accent),
		Muted:       sanitizeColor(plan.Style.Muted),

		PageWidth:    plan.PaperWidth.CSS(),
		PageHeight:   plan.PaperHeight.CSS(),
		MarginTop:    m.Top.CSS(),
		MarginRight:  m.Right.CSS(),
		MarginBottom: m.Bottom.CSS(),
		MarginLeft:   m.Left.CSS(),
		ContentWidth: plan.ContentWidth.CSS(),
		HeaderHeight: plan.HeaderHeight.CSS(),
		LogoWidth:    plan.LogoWidth.CSS(),
		LogoHeight:   plan.LogoHeight.CSS(),
		ContactWidth: plan.ContactWidth.CSS(),
		RuleWidth:    fmt.Sprintf("%.2fpt", plan.Separator.Width.Points()),

		GapHeader:       cssPoints(plan.Space(10)),
		GapBlock:        cssPoints(plan.Space(12)),
		GapSignature:    cssPoints(plan.Space(18)),
		SignatureWidth:  cssPoints(plan.Space(144)),
		SignatureHeight: cssPoints(plan.Space(54)),
		StampSize:       cssPoints(plan.Space(90)),
		StampGap:        cssPoints(plan.Space(18)),

		BodySize:      plan.Type.Body.Size,
		CompanySize:   plan.Type.CompanyName.Size,
		ContactSize:   plan.Type.Contact.Size,
		RecipientSize: plan.Type.RecipientName.Size,
		FallbackSize:  plan.Type.Fallback.Size,

		FallbackText: plan.FallbackText(l.Sender.Company),
		Company:      strings.TrimSpace(l.Sender.Company),
		Contact:      l.Sender.ContactLines(),
		Address:      l.Sender.AddressLines(),
		Date:         l.DateLine(),
		Recipient:    l.Recipient,
	}
	if l.Logo != nil {
		v.LogoURI = template.URL(l.Logo.DataURI())
	}

	body := ""
	if strings.TrimSpace(l.Content) != "" {
		body = content.PrintHTML(l.Content)
	}
	if strings.TrimSpace(body) == "" {
		body = content.BlocksHTML(blocks)
	}
	v.Content = template.HTML(body)

	if s := l.Signature; s != nil {
		v.Signature = true
		v.SignatureLines = s.Lines()
		if s.Image != nil {
			v.SignatureURI = template.URL(s.Image.DataURI())
		}
		if s.Stamp != nil {
			v.StampURI = template.URL(s.Stamp.DataURI())
		}
		v.SignatureStyle = signatureStyle(*s)
	}

	var buf bytes.Buffer
	if err := e.tpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("letter template: %w", err)
	}
	return buf.String(), nil
}

// Render prints l to PDF. The output is validated before it is returned.
func (e *Encoder) Render(ctx context.Context, plan layout.Plan, blocks []content.Block, l letter.Letter) (Document, error) {
	html, err := e.RenderHTML(plan, blocks, l)
	if err != nil {
		return Document{}, err
	}

	p := Page{
		Title:   l.DocumentTitle(),
		Author:  l.Sender.Company,
		Created: l.Date,
		HTML:    []byte(html),
		Width:   plan.PaperWidth,
		Height:  plan.PaperHeight,
		Options: e.Options,
		Draw:    DrawLetter(plan, blocks, l, e.Options),
	}
	return Convert(ctx, e.Converter, p)
}

// Convert runs conv on p and validates the result.
func Convert(ctx context.Context, conv Converter, p Page) (Document, error) {
	var out bytes.Buffer
	if err := conv.Convert(ctx, p, &out); err != nil {
		return Document{}, fmt.Errorf("convert: %w", err)
	}
	pages, err := Inspect(out.Bytes())
	if err != nil {
		return Document{}, err
	}
	return Document{Data: out.Bytes(), Pages: pages}, nil
}

func signatureStyle(s letter.Signature) template.CSS {
	var parts []string
	if s.Font != "" {
		parts = append(parts, fmt.Sprintf("font-family: %q;", sanitizeFont(s.Font, "Times New Roman")))
	}
	if s.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("font-size: %gpt;", s.FontSize))
	}
	if s.Color != "" {
		parts = append(parts, "color: "+sanitizeColor(s.Color)+";")
	}
	return template.CSS(strings.Join(parts, " "))
}

func cssPoints(pt float64) string {
	return fmt.Sprintf("%.2fpt", pt)
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return "#000000"
}

func sanitizeFont(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && fontFamilyFilter.MatchString(trimmed) {
		return trimmed
	}
	return fallback
}
