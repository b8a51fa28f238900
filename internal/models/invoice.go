package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/pkg/fp"
)

// InvoiceStatus is the payment state printed on the invoice badge
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceItem is one line of an invoice. Amount is computed by the invoice
// owner and printed as given.
type InvoiceItem struct {
	ServiceName  string          `json:"service_name"`
	Description  string          `json:"description,omitempty"`
	Period       string          `json:"period,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	Amount       decimal.Decimal `json:"amount"`
}

// InvoiceTotals are the precomputed invoice totals
type InvoiceTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Paid     decimal.Decimal `json:"paid"`
	Balance  decimal.Decimal `json:"balance"`
}

// PaymentDetails holds how the client can pay
type PaymentDetails struct {
	MpesaPaybill      string `json:"mpesa_paybill,omitempty"`
	MpesaTill         string `json:"mpesa_till,omitempty"`
	MpesaAccount      string `json:"mpesa_account,omitempty"`
	MpesaPhone        string `json:"mpesa_phone,omitempty"`
	BankName          string `json:"bank_name,omitempty"`
	BankAccountName   string `json:"bank_account_name,omitempty"`
	BankAccountNumber string `json:"bank_account_number,omitempty"`
	BankBranch        string `json:"bank_branch,omitempty"`
	SwiftCode         string `json:"swift_code,omitempty"`
}

// HasMpesa reports whether any M-Pesa field is set
func (p PaymentDetails) HasMpesa() bool {
	return p.MpesaPaybill != "" || p.MpesaTill != "" || p.MpesaPhone != ""
}

// HasBank reports whether any bank field is set
func (p PaymentDetails) HasBank() bool {
	return p.BankName != "" || p.BankAccountNumber != ""
}

// Client is the billed party
type Client struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// InvoiceRenderContext is a read-only view of an invoice ready for printing
type InvoiceRenderContext struct {
	ID        string         `json:"id"`
	Number    string         `json:"number"`
	IssueDate time.Time      `json:"issue_date"`
	DueDate   time.Time      `json:"due_date"`
	Status    InvoiceStatus  `json:"status"`
	Currency  string         `json:"currency,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Template  string         `json:"template,omitempty"`
	PaperSize string         `json:"paper_size,omitempty"`
	Company   Sender         `json:"company"`
	Client    Client         `json:"client"`
	Items     []InvoiceItem  `json:"items"`
	Totals    InvoiceTotals  `json:"totals"`
	Payment   PaymentDetails `json:"payment"`
	Logo      *Logo          `json:"logo,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
	// ContentHash is the hash of the last generated PDF, if any.
	ContentHash string     `json:"content_hash,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

// Snapshot returns the fields that determine the printed invoice
func (c InvoiceRenderContext) Snapshot() integrity.Snapshot {
	items := make([]integrity.ItemSnapshot, len(c.Items))
	for i, it := range c.Items {
		items[i] = integrity.ItemSnapshot{
			ServiceName: it.ServiceName,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return integrity.Snapshot{
		Number:    c.Number,
		IssueDate: c.IssueDate,
		DueDate:   c.DueDate,
		Subtotal:  c.Totals.Subtotal,
		Tax:       c.Totals.Tax,
		Discount:  c.Totals.Discount,
		Total:     c.Totals.Total,
		Paid:      c.Totals.Paid,
		Balance:   c.Totals.Balance,
		Status:    string(c.Status),
		Notes:     c.Notes,
		UpdatedAt: c.UpdatedAt,
		Items:     items,
	}
}

// RenderKey digests the printed inputs Snapshot leaves out, such as the
// template, paper size and logo. A stored PDF is reused only when both its
// content hash and render key still match.
func (c InvoiceRenderContext) RenderKey() string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(c.Template)),
		strings.ToLower(strings.TrimSpace(c.PaperSize)),
		c.Logo.digest(),
		c.CurrencyCode(),
		c.Company.CompanyName, c.Company.Address, c.Company.Phone, c.Company.Email, c.Company.Website,
		c.Client.Name, c.Client.Address, c.Client.Email, c.Client.Phone,
		c.Payment.MpesaPaybill, c.Payment.MpesaTill, c.Payment.MpesaAccount, c.Payment.MpesaPhone,
		c.Payment.BankName, c.Payment.BankAccountName, c.Payment.BankAccountNumber,
		c.Payment.BankBranch, c.Payment.SwiftCode,
		strconv.Itoa(len(c.Items)),
	}
	for _, it := range c.Items {
		parts = append(parts,
			it.Period,
			it.Unit,
			it.TaxRate.String(),
			it.DiscountRate.String(),
			it.Amount.String(),
		)
	}
	return integrity.Digest(parts...)
}

// CurrencyCode returns the upper-cased currency, KES when unset
func (c InvoiceRenderContext) CurrencyCode() string {
	if v := strings.ToUpper(strings.TrimSpace(c.Currency)); v != "" {
		return v
	}
	return "KES"
}

// Validate checks the invoice is printable
func (c InvoiceRenderContext) Validate() fp.Result[InvoiceRenderContext] {
	return fp.Validate(c,
		func(c InvoiceRenderContext) error { return fp.Required("id")(c.ID) },
		func(c InvoiceRenderContext) error { return fp.Required("number")(c.Number) },
		func(c InvoiceRenderContext) error { return fp.Required("company.company_name")(c.Company.CompanyName) },
		func(c InvoiceRenderContext) error { return fp.Required("client.name")(c.Client.Name) },
		func(c InvoiceRenderContext) error {
			return fp.Each("items", func(it InvoiceItem) error {
				return fp.Required("service_name")(it.ServiceName)
			})(c.Items)
		},
	)
}

// InvoiceHashResponse reports the cache state of an invoice PDF
type InvoiceHashResponse struct {
	ContentHash       string  `json:"content_hash"`
	NeedsRegeneration bool    `json:"needs_regeneration"`
	ScaleFactor       float64 `json:"scale_factor"`
}
