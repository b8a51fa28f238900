package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/geometry"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/letter"
	"github.com/zlovtnik/gletter/internal/render/pdf"
)

const invoiceHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Number}}</title>
  <style>
    @page {
      size: {{.PageWidth}} {{.PageHeight}};
      margin: {{.Margin}};
    }
    * { box-sizing: border-box; }
    html, body {
      margin: 0;
      padding: 0;
      -webkit-print-color-adjust: exact;
      print-color-adjust: exact;
    }
    body {
      font-family: "{{.Font}}", Arial, sans-serif;
      font-size: 10pt;
      color: #111111;
    }
    .invoice {
      width: {{.ScaledWidth}};
      transform: scale({{.Scale}});
      transform-origin: top left;
    }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      border-bottom: 2pt solid {{.Accent}};
      padding-bottom: 10pt;
      margin-bottom: 14pt;
    }
    .brand img { max-height: 0.9in; max-width: 2.5in; }
    .brand .company-name { font-size: 18pt; font-weight: bold; color: {{.Accent}}; }
    .brand .line { font-size: 9pt; color: #555555; }
    .meta { text-align: right; }
    .meta h1 { margin: 0 0 6pt 0; font-size: 22pt; color: {{.Accent}}; letter-spacing: 0.05em; }
    .meta .label { color: #6b7280; font-size: 8pt; text-transform: uppercase; }
    .badge {
      display: inline-block;
      padding: 2pt 8pt;
      border-radius: 8pt;
      font-size: 8pt;
      font-weight: bold;
      text-transform: uppercase;
      color: #ffffff;
      background: {{.StatusColor}};
    }
    .bill-to { margin-bottom: 14pt; }
    .bill-to .label { color: #6b7280; font-size: 8pt; text-transform: uppercase; }
    table.items { width: 100%; border-collapse: collapse; }
    table.items th {
      background: {{.Accent}};
      color: #ffffff;
      text-align: left;
      padding: 5pt;
      font-size: 8pt;
      text-transform: uppercase;
    }
    table.items td { padding: 5pt; border-bottom: 1px solid #e5e7eb; vertical-align: top; }
    table.items td.num, table.items th.num { text-align: right; }
    .description { color: #555555; font-size: 8.5pt; }
    .totals { margin-top: 10pt; margin-left: auto; width: 45%; }
    .totals div { display: flex; justify-content: space-between; padding: 2pt 0; }
    .totals .grand { font-weight: bold; font-size: 12pt; border-top: 1pt solid {{.Accent}}; padding-top: 4pt; }
    .totals .balance { font-weight: bold; color: {{.Accent}}; }
    .payment { margin-top: 16pt; display: flex; gap: 24pt; }
    .payment h3 { margin: 0 0 4pt 0; font-size: 10pt; color: {{.Accent}}; }
    .notes { margin-top: 14pt; font-size: 9pt; color: #333333; white-space: pre-line; }
  </style>
</head>
<body>
<div class="invoice">
  <div class="header">
    <div class="brand">
      {{if .LogoURI}}<img src="{{.LogoURI}}" alt="{{.Company.CompanyName}}" />{{else}}<div class="company-name">{{.Company.CompanyName}}</div>{{end}}
      {{range .CompanyLines}}<div class="line">{{.}}</div>
      {{end}}
    </div>
    <div class="meta">
      <h1>INVOICE</h1>
      <div><span class="label">Number</span> {{.Number}}</div>
      <div><span class="label">Issued</span> {{.IssueDate}}</div>
      <div><span class="label">Due</span> {{.DueDate}}</div>
      <div><span class="badge">{{.Status}}</span></div>
    </div>
  </div>
  <div class="bill-to">
    <div class="label">Bill to</div>
    <div><strong>{{.Client.Name}}</strong></div>
    {{range .ClientLines}}<div>{{.}}</div>
    {{end}}
  </div>
  <table class="items">
    <thead>
      <tr><th>#</th><th>Service</th><th>Period</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Tax</th><th class="num">Discount</th><th class="num">Amount</th></tr>
    </thead>
    <tbody>
      {{range .Items}}<tr>
        <td>{{.Index}}</td>
        <td>{{.ServiceName}}{{if .Description}}<div class="description">{{.Description}}</div>{{end}}</td>
        <td>{{.Period}}</td>
        <td class="num">{{.Quantity}}{{if .Unit}} {{.Unit}}{{end}}</td>
        <td class="num">{{.UnitPrice}}</td>
        <td class="num">{{.TaxRate}}</td>
        <td class="num">{{.DiscountRate}}</td>
        <td class="num">{{.Amount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <div class="totals">
    {{range .Totals}}<div class="{{.Class}}"><span>{{.Label}}</span><span>{{.Value}}</span></div>
    {{end}}
  </div>
  {{if or .Payment.HasMpesa .Payment.HasBank}}<div class="payment">
    {{if .Payment.HasMpesa}}<div class="mpesa">
      <h3>M-Pesa</h3>
      {{range .MpesaLines}}<div>{{.}}</div>
      {{end}}
    </div>{{end}}
    {{if .Payment.HasBank}}<div class="bank">
      <h3>Bank transfer</h3>
      {{range .BankLines}}<div>{{.}}</div>
      {{end}}
    </div>{{end}}
  </div>{{end}}
  {{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
</div>
</body>
</html>
`

// pageMargin is the invoice page margin on every side.
var pageMargin = geometry.Inches(0.5)

var statusColors = map[models.InvoiceStatus]string{
	models.InvoiceStatusDraft:     "#6B7280",
	models.InvoiceStatusSent:      "#1565C0",
	models.InvoiceStatusPartial:   "#EF6C00",
	models.InvoiceStatusPaid:      "#2E7D32",
	models.InvoiceStatusOverdue:   "#C62828",
	models.InvoiceStatusCancelled: "#424242",
}

// Renderer prints invoices through a PDF converter.
type Renderer struct {
	Converter pdf.Converter
	Options   pdf.Options
	Planner   layout.Planner
	tpl       *template.Template
}

// NewRenderer returns a renderer converting with conv.
func NewRenderer(conv pdf.Converter, opts pdf.Options, planner layout.Planner) *Renderer {
	return &Renderer{
		Converter: conv,
		Options:   opts,
		Planner:   planner,
		tpl:       template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
	}
}

type itemView struct {
	Index        int
	ServiceName  string
	Description  string
	Period       string
	Quantity     string
	Unit         string
	UnitPrice    string
	TaxRate      string
	DiscountRate string
	Amount       string
}

type totalView struct {
	Label string
	Value string
	Class string
}

type invoiceView struct {
	Number      string
	IssueDate   string
	DueDate     string
	Status      string
	StatusColor string
	Notes       string

	PageWidth   string
	PageHeight  string
	Margin      string
	ScaledWidth string
	Scale       string
	Font        string
	Accent      string

	LogoURI      template.URL
	Company      models.Sender
	CompanyLines []string
	Client       models.Client
	ClientLines  []string
	Items        []itemView
	Totals       []totalView
	Payment      models.PaymentDetails
	MpesaLines   []string
	BankLines    []string
}

// page is the resolved page setup of one invoice.
type page struct {
	plan  layout.Plan
	scale float64
}

func (r *Renderer) page(inv models.InvoiceRenderContext, hasLogo bool) (page, error) {
	tpl := layout.ParseTemplateID(inv.Template)
	if inv.Template == "" {
		tpl = layout.CorporateBlue
	}
	paper := geometry.ParsePaperSize(inv.PaperSize)
	if paper == "" {
		paper = geometry.PaperA4
	}
	plan, err := r.Planner.Plan(tpl, paper, nil, nil, hasLogo)
	if err != nil {
		return page{}, err
	}
	return page{plan: plan, scale: ScaleFactor(len(inv.Items))}, nil
}

// RenderHTML returns the print HTML of inv scaled to fit one page.
func (r *Renderer) RenderHTML(inv models.InvoiceRenderContext, logo *assets.Image) (string, error) {
	pg, err := r.page(inv, logo != nil)
	if err != nil {
		return "", err
	}
	content := pg.plan.PaperWidth - 2*pageMargin
	cur := inv.CurrencyCode()

	v := invoiceView{
		Number:      inv.Number,
		IssueDate:   formatDate(inv.IssueDate),
		DueDate:     formatDate(inv.DueDate),
		Status:      statusLabel(inv.Status),
		StatusColor: statusColor(inv.Status),
		Notes:       strings.TrimSpace(inv.Notes),

		PageWidth:  pg.plan.PaperWidth.CSS(),
		PageHeight: pg.plan.PaperHeight.CSS(),
		Margin:     pageMargin.CSS(),
		// widen the box so the scaled page still spans the printable width
		ScaledWidth: content.Scale(1 / pg.scale).CSS(),
		Scale:       fmt.Sprintf("%.2f", pg.scale),
		Font:        pg.plan.Style.FontFamily,
		Accent:      pg.plan.Style.Accent,

		Company:      inv.Company,
		CompanyLines: companyLines(inv.Company),
		Client:       inv.Client,
		ClientLines:  clientLines(inv.Client),
		Totals:       totals(inv.Totals, cur),
		Payment:      inv.Payment,
		MpesaLines:   mpesaLines(inv),
		BankLines:    bankLines(inv.Payment),
	}
	if logo != nil {
		v.LogoURI = template.URL(logo.DataURI())
	}
	for i, it := range inv.Items {
		v.Items = append(v.Items, itemView{
			Index:        i + 1,
			ServiceName:  it.ServiceName,
			Description:  it.Description,
			Period:       it.Period,
			Quantity:     formatQuantity(it.Quantity),
			Unit:         it.Unit,
			UnitPrice:    formatMoney(it.UnitPrice, cur),
			TaxRate:      formatRate(it.TaxRate),
			DiscountRate: formatRate(it.DiscountRate),
			Amount:       formatMoney(it.Amount, cur),
		})
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("invoice template: %w", err)
	}
	return buf.String(), nil
}

// Render prints inv to a validated single-page-fit PDF.
func (r *Renderer) Render(ctx context.Context, inv models.InvoiceRenderContext, logo *assets.Image, now time.Time) (pdf.Document, error) {
	html, err := r.RenderHTML(inv, logo)
	if err != nil {
		return pdf.Document{}, err
	}
	pg, err := r.page(inv, logo != nil)
	if err != nil {
		return pdf.Document{}, err
	}
	return pdf.Convert(ctx, r.Converter, pdf.Page{
		Title:   "Invoice " + inv.Number,
		Author:  inv.Company.CompanyName,
		Created: now,
		HTML:    []byte(html),
		Width:   pg.plan.PaperWidth,
		Height:  pg.plan.PaperHeight,
		Options: r.Options,
		Draw:    r.draw(inv, logo, pg),
	})
}

// draw lays the invoice out natively. Every size is multiplied by the page
// scale so long invoices shrink the same way as the HTML transform.
func (r *Renderer) draw(inv models.InvoiceRenderContext, logo *assets.Image, pg page) func(*fpdf.Fpdf) error {
	return func(doc *fpdf.Fpdf) error {
		c := pdf.NewCanvas(doc, r.Options)
		s := pg.scale
		left := pageMargin.Points()
		width := (pg.plan.PaperWidth - 2*pageMargin).Points()
		cur := inv.CurrencyCode()
		accent := pg.plan.Style.Accent
		family := pg.plan.Style.FontFamily

		font := func(size float64, color string, bold bool) layout.Font {
			return layout.Font{Family: family, Size: size * s, Color: color, Bold: bold}
		}
		row := func(size float64) float64 { return size * s * 1.5 }

		doc.SetMargins(left, left, left)
		doc.SetAutoPageBreak(false, left)
		doc.AddPage()

		// brand
		top := left
		if logo != nil {
			c.Image(logo, left, top, geometry.Inches(2.5*s), geometry.Inches(0.9*s))
			doc.SetXY(left, top+geometry.Inches(0.9*s).Points())
		} else {
			c.SetFont(font(18, accent, true), "")
			doc.SetXY(left, top)
			doc.CellFormat(width/2, row(18), c.Text(inv.Company.CompanyName), "", 1, "L", false, 0, "")
		}
		c.SetFont(font(9, "#555555", false), "")
		for _, ln := range companyLines(inv.Company) {
			doc.SetX(left)
			doc.CellFormat(width/2, row(9), c.Text(ln), "", 1, "L", false, 0, "")
		}
		brandBottom := doc.GetY()

		// meta
		metaX := left + width/2
		doc.SetXY(metaX, top)
		c.SetFont(font(22, accent, true), "")
		doc.CellFormat(width/2, row(22), "INVOICE", "", 1, "R", false, 0, "")
		c.SetFont(font(10, "#111111", false), "")
		for _, ln := range []string{
			"Number: " + inv.Number,
			"Issued: " + formatDate(inv.IssueDate),
			"Due: " + formatDate(inv.DueDate),
		} {
			doc.SetX(metaX)
			doc.CellFormat(width/2, row(10), c.Text(ln), "", 1, "R", false, 0, "")
		}
		badge := statusLabel(inv.Status)
		c.SetFont(font(8, "#FFFFFF", true), "")
		bw := doc.GetStringWidth(badge) + 12*s
		doc.SetFillColor(pdf.HexRGB(statusColor(inv.Status)))
		doc.SetX(left + width - bw)
		doc.CellFormat(bw, row(8), badge, "", 1, "C", true, 0, "")

		y := max(brandBottom, doc.GetY()) + 6*s
		c.Rule(left, left+width, y, layout.Rule{Width: geometry.Points(2 * s), Color: accent})
		doc.SetXY(left, y+10*s)

		// bill to
		c.SetFont(font(8, "#6B7280", false), "")
		doc.CellFormat(width, row(8), "BILL TO", "", 1, "L", false, 0, "")
		c.SetFont(font(10, "#111111", true), "")
		doc.CellFormat(width, row(10), c.Text(inv.Client.Name), "", 1, "L", false, 0, "")
		c.SetFont(font(10, "#111111", false), "")
		for _, ln := range clientLines(inv.Client) {
			doc.CellFormat(width, row(10), c.Text(ln), "", 1, "L", false, 0, "")
		}
		doc.Ln(10 * s)

		// items
		cols := []struct {
			title string
			share float64
			align string
		}{
			{"#", 0.05, "L"}, {"Service", 0.31, "L"}, {"Period", 0.12, "L"}, {"Qty", 0.08, "R"},
			{"Unit price", 0.13, "R"}, {"Tax", 0.08, "R"}, {"Disc.", 0.08, "R"}, {"Amount", 0.15, "R"},
		}
		c.SetFont(font(8, "#FFFFFF", true), "")
		doc.SetFillColor(pdf.HexRGB(accent))
		for _, col := range cols {
			doc.CellFormat(width*col.share, row(8)+4*s, col.title, "", 0, col.align, true, 0, "")
		}
		doc.Ln(row(8) + 4*s)

		c.SetFont(font(9, "#111111", false), "")
		doc.SetDrawColor(0xE5, 0xE7, 0xEB)
		doc.SetLineWidth(0.5 * s)
		for i, it := range inv.Items {
			service := it.ServiceName
			if it.Description != "" {
				service += " - " + it.Description
			}
			qty := formatQuantity(it.Quantity)
			if it.Unit != "" {
				qty += " " + it.Unit
			}
			cells := []string{
				fmt.Sprint(i + 1), service, it.Period, qty,
				formatMoney(it.UnitPrice, cur), formatRate(it.TaxRate), formatRate(it.DiscountRate), formatMoney(it.Amount, cur),
			}
			for j, col := range cols {
				doc.CellFormat(width*col.share, row(9)+2*s, c.Text(fit(doc, cells[j], width*col.share)), "B", 0, col.align, false, 0, "")
			}
			doc.Ln(row(9) + 2*s)
		}
		doc.Ln(8 * s)

		// totals
		tx := left + width*0.55
		for _, t := range totals(inv.Totals, cur) {
			bold := t.Class != ""
			size := 10.0
			if t.Class == "grand" {
				size = 12
			}
			color := "#111111"
			if t.Class == "balance" {
				color = accent
			}
			c.SetFont(font(size, color, bold), "")
			doc.SetX(tx)
			doc.CellFormat(width*0.25, row(size), t.Label, "", 0, "L", false, 0, "")
			doc.CellFormat(width*0.20, row(size), c.Text(t.Value), "", 1, "R", false, 0, "")
		}
		doc.Ln(12 * s)

		// payment
		section := func(title string, lines []string) {
			c.SetFont(font(10, accent, true), "")
			doc.SetX(left)
			doc.CellFormat(width, row(10), title, "", 1, "L", false, 0, "")
			c.SetFont(font(9, "#111111", false), "")
			for _, ln := range lines {
				doc.SetX(left)
				doc.CellFormat(width, row(9), c.Text(ln), "", 1, "L", false, 0, "")
			}
			doc.Ln(6 * s)
		}
		if inv.Payment.HasMpesa() {
			section("M-Pesa", mpesaLines(inv))
		}
		if inv.Payment.HasBank() {
			section("Bank transfer", bankLines(inv.Payment))
		}

		if notes := strings.TrimSpace(inv.Notes); notes != "" {
			c.SetFont(font(9, "#333333", false), "")
			doc.SetX(left)
			doc.MultiCell(width, row(9), c.Text(notes), "", "L", false)
		}
		return doc.Error()
	}
}

// fit truncates s with an ellipsis so it fits in w points at the current font.
func fit(doc *fpdf.Fpdf, s string, w float64) string {
	limit := w - 4
	if doc.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && doc.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func companyLines(s models.Sender) []string {
	l := letter.Sender{Address: s.Address, Phone: s.Phone, Email: s.Email, Website: s.Website}
	return append(l.AddressLines(), l.ContactLines()...)
}

func clientLines(c models.Client) []string {
	lines := letter.Lines(c.Address)
	if v := strings.TrimSpace(c.Email); v != "" {
		lines = append(lines, v)
	}
	if v := strings.TrimSpace(c.Phone); v != "" {
		lines = append(lines, v)
	}
	return lines
}

func mpesaLines(inv models.InvoiceRenderContext) []string {
	p := inv.Payment
	var lines []string
	if p.MpesaPaybill != "" {
		lines = append(lines, "Paybill: "+p.MpesaPaybill)
		account := p.MpesaAccount
		if account == "" {
			account = inv.Number
		}
		lines = append(lines, "Account: "+account)
	}
	if p.MpesaTill != "" {
		lines = append(lines, "Till: "+p.MpesaTill)
	}
	if p.MpesaPhone != "" {
		lines = append(lines, "Phone: "+p.MpesaPhone)
	}
	return lines
}

func bankLines(p models.PaymentDetails) []string {
	var lines []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Bank", p.BankName)
	add("Account name", p.BankAccountName)
	add("Account number", p.BankAccountNumber)
	add("Branch", p.BankBranch)
	add("SWIFT", p.SwiftCode)
	return lines
}

func totals(t models.InvoiceTotals, cur string) []totalView {
	out := []totalView{{Label: "Subtotal", Value: formatMoney(t.Subtotal, cur)}}
	if !t.Discount.IsZero() {
		out = append(out, totalView{Label: "Discount", Value: "-" + formatMoney(t.Discount, cur)})
	}
	out = append(out,
		totalView{Label: "Tax", Value: formatMoney(t.Tax, cur)},
		totalView{Label: "Total", Value: formatMoney(t.Total, cur), Class: "grand"},
	)
	if !t.Paid.IsZero() {
		out = append(out,
			totalView{Label: "Paid", Value: formatMoney(t.Paid, cur)},
			totalView{Label: "Balance due", Value: formatMoney(t.Balance, cur), Class: "balance"},
		)
	}
	return out
}

func statusLabel(s models.InvoiceStatus) string {
	if s == "" {
		return "DRAFT"
	}
	return strings.ToUpper(string(s))
}

func statusColor(s models.InvoiceStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[models.InvoiceStatusDraft]
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// formatMoney renders d with two decimals and thousands separators.
func formatMoney(d decimal.Decimal, currency string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s %s%s.%s", currency, sign, b.String(), frac)
}

func formatQuantity(d decimal.Decimal) string {
	return d.Round(2).String()
}

func formatRate(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	return d.Round(2).String() + "%"
}
