package handlers

import (
	"log/slog"
	"net/http"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/service"
)

// InvoiceHandler handles invoice PDF HTTP requests
type InvoiceHandler struct {
	svc    *service.InvoiceService
	logger *slog.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(svc *service.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, logger: logger}
}

// Render handles POST /api/v1/invoices/render
func (h *InvoiceHandler) Render(w http.ResponseWriter, r *http.Request) {
	var inv models.InvoiceRenderContext
	if !decodeJSON(w, r, &inv) {
		return
	}
	doc, err := h.svc.RenderPDF(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, h.logger, "invoice render", err)
		return
	}
	if doc.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeDocument(w, doc)
}

// Hash handles POST /api/v1/invoices/hash
func (h *InvoiceHandler) Hash(w http.ResponseWriter, r *http.Request) {
	var inv models.InvoiceRenderContext
	if !decodeJSON(w, r, &inv) {
		return
	}
	res, err := h.svc.Hash(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, h.logger, "invoice hash", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(res))
}

// Regenerate handles POST /api/v1/invoices/regenerate
//
// Individual failures are reported in the response body; the request itself
// only fails when it cannot be read.
func (h *InvoiceHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req models.RegenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.RegenerateStale(r.Context(), req.Invoices)
	if err != nil {
		h.logger.Warn("invoice regeneration had failures", "failed", res.Failed, "error", err)
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(res))
}

// List handles GET /api/v1/invoices/documents
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)

	docs, total, err := h.svc.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, h.logger, "list invoice documents", err)
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(models.NewPage(docs, page, int(total))))
}
