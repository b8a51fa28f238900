package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/invoice"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/pdf"
	"github.com/zlovtnik/gletter/internal/render/word"
	"github.com/zlovtnik/gletter/internal/repository"
	"github.com/zlovtnik/gletter/internal/service"
)

var fixedNow = time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 30, 10))))
	return buf.Bytes()
}

func newLetterheadHandler(t *testing.T) *LetterheadHandler {
	t.Helper()
	svc := service.NewLetterheadService(
		layout.NewPlanner(layout.DefaultPolicy()),
		word.NewEncoder("gletter"),
		pdf.NewEncoder(pdf.NewNativeConverter(), pdf.DefaultOptions()),
		assets.NewLibrary(t.TempDir()),
		clock.Fixed{T: fixedNow},
		t.TempDir(),
		discardLogger(),
	)
	return NewLetterheadHandler(svc, discardLogger())
}

func newInvoiceHandler(t *testing.T) *InvoiceHandler {
	t.Helper()
	svc, err := service.NewInvoiceService(
		invoice.NewRenderer(pdf.NewNativeConverter(), pdf.DefaultOptions(), layout.NewPlanner(layout.DefaultPolicy())),
		repository.NewMemoryDocumentRepository(),
		nil,
		t.TempDir(),
		2,
		clock.Fixed{T: fixedNow},
		discardLogger(),
	)
	require.NoError(t, err)
	return NewInvoiceHandler(svc, discardLogger())
}

const letterJSON = `{
	"template": "corporate_blue",
	"paper_size": "us_letter",
	"format": "%s",
	"sender": {"company_name": "Acme Ltd", "address": "1 Main St", "email": "hello@acme.test"},
	"letter_content": "<p>Hello</p>"
}`

func postJSON(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLetterheadRenderJSON(t *testing.T) {
	h := newLetterheadHandler(t)

	tests := []struct {
		format      string
		contentType string
		filename    string
		magic       string
	}{
		{"pdf", pdf.ContentType, "letterhead_corporate-blue_acme_ltd_2025-03-07.pdf", "%PDF-"},
		{"word", word.ContentType, "letterhead_corporate-blue_acme_ltd_2025-03-07.docx", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := postJSON(h.Render, "/api/v1/letterheads/render", fmt.Sprintf(letterJSON, tt.format))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename="+tt.filename)
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "filename*=UTF-8''"+tt.filename)
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.magic))
		})
	}
}

func TestLetterheadRenderMultipart(t *testing.T) {
	h := newLetterheadHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("request", fmt.Sprintf(letterJSON, "pdf")))
	fw, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write(tinyPNG(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/letterheads/render", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Render(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pdf.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Page-Count"))
}

func TestLetterheadRenderErrors(t *testing.T) {
	h := newLetterheadHandler(t)

	t.Run("bad json", func(t *testing.T) {
		rec := postJSON(h.Render, "/api/v1/letterheads/render", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ErrCodeInvalidJSON, decodeBody(t, rec).Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec := postJSON(h.Render, "/api/v1/letterheads/render", `{"format":"rtf","sender":{}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, ErrCodeValidationErr, resp.Error.Code)
		details, ok := resp.Error.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "format")
	})

	t.Run("media type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/letterheads/render", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.Render(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLetterheadPreview(t *testing.T) {
	rec := postJSON(newLetterheadHandler(t).Preview, "/api/v1/letterheads/preview", fmt.Sprintf(letterJSON, "pdf"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, rec.Body.String(), "Acme Ltd")
}

func TestTemplates(t *testing.T) {
	rec := httptest.NewRecorder()
	newLetterheadHandler(t).Templates(rec, httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool                   `json:"success"`
		Data    models.CatalogResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Templates, 4)
	assert.ElementsMatch(t, []string{"pdf", "word"}, resp.Data.Formats)
}

func invoiceJSON(t *testing.T) string {
	t.Helper()
	inv := models.InvoiceRenderContext{
		ID:        "inv-1",
		Number:    "INV-2025-0001",
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    models.InvoiceStatusSent,
		Company:   models.Sender{CompanyName: "Acme Ltd"},
		Client:    models.Client{Name: "Globex"},
		UpdatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		Items: []models.InvoiceItem{{
			ServiceName: "Hosting",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			Amount:      decimal.NewFromInt(100),
		}},
		Totals: models.InvoiceTotals{
			Subtotal: decimal.NewFromInt(100),
			Total:    decimal.NewFromInt(100),
			Balance:  decimal.NewFromInt(100),
		},
	}
	b, err := json.Marshal(inv)
	require.NoError(t, err)
	return string(b)
}

func TestInvoiceRenderCacheHeader(t *testing.T) {
	h := newInvoiceHandler(t)
	body := invoiceJSON(t)

	first := postJSON(h.Render, "/api/v1/invoices/render", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Contains(t, first.Header().Get("Content-Disposition"), "invoice_INV-2025-0001.pdf")

	second := postJSON(h.Render, "/api/v1/invoices/render", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/documents?page=1&page_size=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)
}

func TestInvoiceHash(t *testing.T) {
	rec := postJSON(newInvoiceHandler(t).Hash, "/api/v1/invoices/hash", invoiceJSON(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.InvoiceHashResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.ContentHash, 64)
	assert.True(t, resp.Data.NeedsRegeneration)
	assert.Equal(t, 1.0, resp.Data.ScaleFactor)
}

func TestInvoiceRegenerate(t *testing.T) {
	body := fmt.Sprintf(`{"invoices":[%s]}`, invoiceJSON(t))
	rec := postJSON(newInvoiceHandler(t).Regenerate, "/api/v1/invoices/regenerate", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.RegenerateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Regenerated)
}

type exhaustedAllocator struct{}

func (exhaustedAllocator) Next(context.Context, string, int) (int64, error) {
	return 0, integrity.ErrSerialConflict
}

func TestSerialGenerate(t *testing.T) {
	h := NewSerialHandler(service.NewSerialService(integrity.NewMemoryAllocator(), clock.Fixed{T: fixedNow}, discardLogger()), discardLogger())

	rec := postJSON(h.Generate, "/api/v1/serials", `{"document_type":"invoice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"serial":"INV-2025-000001"`)

	busy := NewSerialHandler(service.NewSerialService(exhaustedAllocator{}, clock.Fixed{T: fixedNow}, discardLogger()), discardLogger())
	rec = postJSON(busy.Generate, "/api/v1/serials", `{"document_type":"invoice"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeSerialUnavailable, decodeBody(t, rec).Error.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	dir := t.TempDir()
	h := NewHealthHandler(nil, dir, "native")

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"memory"`)
	assert.Contains(t, rec.Body.String(), `"pdf_backend":"native"`)
}

func TestReadyFailures(t *testing.T) {
	dir := t.TempDir()

	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}, dir, "native").
		Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database connection failed")

	file := filepath.Join(dir, "taken")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, file, "chromium").
		Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"oracle"`)
	assert.Contains(t, rec.Body.String(), "not a directory")
}

func TestContentDisposition(t *testing.T) {
	got := contentDisposition("lettre \"é\".pdf")
	assert.NotContains(t, got, "\"é\"")
	assert.Contains(t, got, "filename*=UTF-8''")

	assert.Contains(t, contentDisposition(""), "document")
}
