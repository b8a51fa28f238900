package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/service"
	"github.com/zlovtnik/gletter/pkg/fp"
)

// maxJSONBody bounds JSON request bodies. Inline base64 images make them large.
const maxJSONBody = 16 << 20

// parsePagination reads ?page= and ?page_size=. Malformed values fall back
// to the defaults.
func parsePagination(r *http.Request) models.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return models.NewPageRequest(page, size)
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, MsgRequestTooLarge)
			return false
		}
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, MsgInvalidRequestBody)
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent, log the error
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response in the standard format
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse(code, message, nil))
}

// contentDisposition builds an attachment header with both filename and the
// RFC 5987 filename* form.
func contentDisposition(filename string) string {
	safeName := strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r < 32 {
			return -1
		}
		if r == '"' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	if safeName == "" {
		safeName = "document"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": safeName,
	})
	return disposition + "; filename*=UTF-8''" + url.PathEscape(safeName)
}

// writeDocument sends a rendered document as a download
func writeDocument(w http.ResponseWriter, doc *models.RenderedDocument) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if doc.Pages > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(doc.Pages))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		slog.Warn("failed to write document", "filename", doc.Filename, "error", err)
	}
}

// fieldErrors flattens validation errors into field -> message
func fieldErrors(errs fp.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		field := e.Field
		if field == "" {
			field = "request"
		}
		out[field] = e.Message
	}
	return out
}

// writeServiceError maps service and render errors to HTTP responses
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var (
		verrs fp.ValidationErrors
		rerr  *service.RenderError
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(ErrCodeValidationErr, MsgValidationFailed, fieldErrors(verrs)))
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidationErr, err.Error())
	case errors.Is(err, layout.ErrUnknownTemplate):
		writeError(w, http.StatusBadRequest, ErrCodeUnknownTemplate, err.Error())
	case errors.Is(err, layout.ErrUnknownPaperSize):
		writeError(w, http.StatusBadRequest, ErrCodeUnknownPaperSize, err.Error())
	case errors.Is(err, layout.ErrImageUnavailable):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeImageUnavailable, err.Error())
	case errors.Is(err, service.ErrFormatNotSupported):
		writeError(w, http.StatusBadRequest, ErrCodeUnsupportedFormat, err.Error())
	case errors.Is(err, service.ErrSerialExhausted):
		writeError(w, http.StatusConflict, ErrCodeSerialUnavailable, MsgSerialUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn(op+" timed out", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, MsgRenderTimeout)
	case errors.Is(err, context.Canceled):
		logger.Info(op+" canceled by client", "path", r.URL.Path)
	case errors.As(err, &rerr):
		logger.Error(op+" failed", "step", rerr.Op, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeRenderFailed, rerr.Error())
	default:
		logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, MsgInternalServerError)
	}
}
