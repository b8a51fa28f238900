package models

import "time"

// DocumentKind is the kind of a persisted generated document
type DocumentKind string

const (
	DocumentKindInvoice    DocumentKind = "invoice"
	DocumentKindLetterhead DocumentKind = "letterhead"
)

// RenderedDocument is a finished document ready for download
type RenderedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
	Pages       int
	// Cached is set when the bytes came from storage instead of a fresh render
	Cached bool
}

// GeneratedDocument records a document written to storage
type GeneratedDocument struct {
	ID          string       `json:"id"`
	Kind        DocumentKind `json:"kind"`
	Ref         string       `json:"ref"`
	ContentHash string       `json:"content_hash"`
	Path        string       `json:"path"`
	Pages       int          `json:"pages"`
	SizeBytes   int64        `json:"size_bytes"`
	GeneratedAt time.Time    `json:"generated_at"`
	// RenderKey digests the printed inputs ContentHash leaves out, such as
	// template, paper and logo
	RenderKey string `json:"render_key,omitempty"`
}

// SerialRequest asks for the next serial number of a document type
type SerialRequest struct {
	DocumentType string `json:"document_type"`
	Year         int    `json:"year,omitempty"`
}

// SerialResponse carries an allocated serial number
type SerialResponse struct {
	Serial string `json:"serial"`
	Prefix string `json:"prefix"`
	Year   int    `json:"year"`
	Number int64  `json:"number"`
}

// RegenerateRequest lists invoices to check and regenerate when stale
type RegenerateRequest struct {
	Invoices []InvoiceRenderContext `json:"invoices"`
}

// RegenerateResponse summarizes a regeneration run
type RegenerateResponse struct {
	Total       int      `json:"total"`
	Regenerated int      `json:"regenerated"`
	Cached      int      `json:"cached"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
}
