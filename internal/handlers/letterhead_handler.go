package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/service"
)

// maxMultipartMemory is how much of a multipart form is held in memory
const maxMultipartMemory = 2 << 20

// LetterheadHandler handles letterhead rendering HTTP requests
type LetterheadHandler struct {
	svc    *service.LetterheadService
	logger *slog.Logger
}

// NewLetterheadHandler creates a new LetterheadHandler
func NewLetterheadHandler(svc *service.LetterheadService, logger *slog.Logger) *LetterheadHandler {
	return &LetterheadHandler{svc: svc, logger: logger}
}

// Render handles POST /api/v1/letterheads/render
//
// A JSON body is a DocumentRequest. A multipart body carries the request as
// JSON in the "request" field and an optional "logo" file.
func (h *LetterheadHandler) Render(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		doc *models.RenderedDocument
		err error
	)
	switch mediaType {
	case "multipart/form-data":
		doc, err = h.renderMultipart(w, r)
		if doc == nil && err == nil {
			return
		}
	case "application/json", "":
		var req models.DocumentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doc, err = h.svc.Render(r.Context(), req)
	default:
		writeError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, MsgUnsupportedMedia)
		return
	}
	if err != nil {
		writeServiceError(w, r, h.logger, "letterhead render", err)
		return
	}
	writeDocument(w, doc)
}

// renderMultipart returns (nil, nil) after it has already written an error
func (h *LetterheadHandler) renderMultipart(w http.ResponseWriter, r *http.Request) (*models.RenderedDocument, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody+assets.MaxBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, MsgRequestTooLarge)
			return nil, nil
		}
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, MsgInvalidMultipart)
		return nil, nil
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var req models.DocumentRequest
	if raw := r.FormValue("request"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, MsgInvalidRequestBody)
			return nil, nil
		}
	}

	file, _, err := r.FormFile("logo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return h.svc.Render(r.Context(), req)
	case err != nil:
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, MsgInvalidLogoField)
		return nil, nil
	}
	defer file.Close()
	return h.svc.RenderUpload(r.Context(), req, file)
}

// Preview handles POST /api/v1/letterheads/preview
func (h *LetterheadHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req models.DocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	html, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, "letterhead preview", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// Templates handles GET /api/v1/templates
func (h *LetterheadHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SuccessResponse(h.svc.Catalog()))
}
