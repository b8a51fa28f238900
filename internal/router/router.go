package router

import (
	"log/slog"
	"net/http"

	"github.com/zlovtnik/gletter/internal/handlers"
	"github.com/zlovtnik/gletter/internal/middleware"
)

// Token scopes guarding the rendering routes
const (
	ScopeLetterheads = "letterheads"
	ScopeInvoices    = "invoices"
	ScopeSerials     = "serials"
)

// Router holds all route handlers
type Router struct {
	mux               *http.ServeMux
	jwtSecret         string
	logger            *slog.Logger
	letterheadHandler *handlers.LetterheadHandler
	invoiceHandler    *handlers.InvoiceHandler
	serialHandler     *handlers.SerialHandler
	authHandler       *handlers.AuthHandler
	healthHandler     *handlers.HealthHandler
	cors              middleware.CORSConfig
}

// NewRouter creates a new Router
func NewRouter(
	jwtSecret string,
	logger *slog.Logger,
	letterheadHandler *handlers.LetterheadHandler,
	invoiceHandler *handlers.InvoiceHandler,
	serialHandler *handlers.SerialHandler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		jwtSecret:         jwtSecret,
		logger:            logger,
		letterheadHandler: letterheadHandler,
		invoiceHandler:    invoiceHandler,
		serialHandler:     serialHandler,
		authHandler:       authHandler,
		healthHandler:     healthHandler,
		cors:              middleware.DefaultCORSConfig(),
	}
}

// WithCORS replaces the default allow-any-origin CORS policy.
func (r *Router) WithCORS(cfg middleware.CORSConfig) *Router {
	r.cors = cfg
	return r
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {
	// Health endpoints (no auth required)
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)

	r.mux.HandleFunc("GET /api/v1/auth/me", r.authHandler.Me)

	// Letterhead endpoints
	r.handle("POST /api/v1/letterheads/render", ScopeLetterheads, r.letterheadHandler.Render)
	r.handle("POST /api/v1/letterheads/preview", ScopeLetterheads, r.letterheadHandler.Preview)
	r.mux.HandleFunc("GET /api/v1/templates", r.letterheadHandler.Templates)

	// Invoice endpoints
	r.handle("POST /api/v1/invoices/render", ScopeInvoices, r.invoiceHandler.Render)
	r.handle("POST /api/v1/invoices/hash", ScopeInvoices, r.invoiceHandler.Hash)
	r.handle("POST /api/v1/invoices/regenerate", ScopeInvoices, r.invoiceHandler.Regenerate)
	r.handle("GET /api/v1/invoices/documents", ScopeInvoices, r.invoiceHandler.List)

	// Serial endpoints
	r.handle("POST /api/v1/serials", ScopeSerials, r.serialHandler.Generate)

	// Apply middleware stack
	var handler http.Handler = r.mux

	// Auth middleware (skip for health endpoints and OPTIONS)
	handler = r.authMiddleware(handler)

	// CORS - applied after auth so it can set headers for preflight before auth rejects
	handler = middleware.CORSMiddleware(r.cors)(handler)

	// Logging
	handler = middleware.LoggingMiddleware(r.logger)(handler)

	// Recovery
	handler = middleware.RecoveryMiddleware(r.logger)(handler)

	// Request id outermost so every log line carries it
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

func (r *Router) handle(pattern, scope string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.RequireScope(scope, h))
}

// authMiddleware wraps the auth middleware but skips health endpoints and OPTIONS requests
func (r *Router) authMiddleware(next http.Handler) http.Handler {
	authHandler := middleware.AuthMiddleware(r.jwtSecret)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Skip auth for health endpoints
		if req.URL.Path == "/health" || req.URL.Path == "/ready" {
			next.ServeHTTP(w, req)
			return
		}

		// Skip auth for CORS preflight requests
		if req.Method == http.MethodOptions {
			next.ServeHTTP(w, req)
			return
		}

		// Apply auth middleware for all other paths
		authHandler.ServeHTTP(w, req)
	})
}
