package handlers

import (
	"log/slog"
	"net/http"

	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/service"
)

// SerialHandler handles serial number allocation
type SerialHandler struct {
	svc    *service.SerialService
	logger *slog.Logger
}

// NewSerialHandler creates a new SerialHandler
func NewSerialHandler(svc *service.SerialService, logger *slog.Logger) *SerialHandler {
	return &SerialHandler{svc: svc, logger: logger}
}

// Generate handles POST /api/v1/serials
func (h *SerialHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.SerialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Generate(r.Context(), req.DocumentType, req.Year)
	if err != nil {
		writeServiceError(w, r, h.logger, "serial allocation", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SuccessResponse(res))
}
