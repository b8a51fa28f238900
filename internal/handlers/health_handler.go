package handlers

import (
	"context"
	"net/http"
	"os"
	"time"
)

// Pinger is the part of *sql.DB readiness needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// readinessTimeout bounds the database ping.
const readinessTimeout = 5 * time.Second

// HealthHandler reports liveness and whether documents can be produced:
// the store answers and the output directory is usable.
type HealthHandler struct {
	db         Pinger
	outputPath string
	backend    string
}

// NewHealthHandler creates a HealthHandler. db is nil when the service runs
// on in-memory stores.
func NewHealthHandler(db Pinger, outputPath, backend string) *HealthHandler {
	return &HealthHandler{db: db, outputPath: outputPath, backend: backend}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"storage":     "memory",
		"output_path": "ok",
	}
	ready := true

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		checks["storage"] = "oracle"
		if err := h.db.PingContext(ctx); err != nil {
			checks["storage"] = "database connection failed"
			ready = false
		}
	}

	// Invoice PDFs are written lazily, so a missing directory is fine as long
	// as the path is not taken by a file.
	if info, err := os.Stat(h.outputPath); err == nil && !info.IsDir() {
		checks["output_path"] = "not a directory"
		ready = false
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":      status,
		"pdf_backend": h.backend,
		"checks":      checks,
	})
}
