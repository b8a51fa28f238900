package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Browsers may only read these download headers when they are exposed.
var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{"Accept", "Authorization", "Content-Type", "X-Requested-With", HeaderRequestID}, ", ")
	corsExposed = strings.Join([]string{"Content-Disposition", "X-Page-Count", "X-Cache", HeaderRequestID}, ", ")
)

// CORSConfig holds CORS configuration. "*" in AllowedOrigins admits any
// origin, which is echoed back rather than sent as a wildcard.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig admits every origin.
func DefaultCORSConfig() CORSConfig {
	return NewCORSConfig(nil)
}

// NewCORSConfig admits origins. Empty entries are ignored and an empty list
// means any origin.
func NewCORSConfig(origins []string) CORSConfig {
	cfg := CORSConfig{MaxAge: 24 * time.Hour}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return cfg
}

func (c CORSConfig) allows(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// CORSMiddleware sets CORS headers for admitted origins and answers every
// preflight with 204.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := cfg.allows(origin)
			h := w.Header()
			h.Add("Vary", "Origin")

			if allowed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Expose-Headers", corsExposed)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				if allowed && cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
