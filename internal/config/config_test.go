package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ORACLE_USER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, BackendNative, cfg.Render.PDFBackend)
	assert.Equal(t, 150.0, cfg.Render.DPI)
	assert.Equal(t, 30*time.Second, cfg.Render.PDFTimeout)
	assert.Equal(t, 4, cfg.Render.RegenerateWorkers)
	assert.False(t, cfg.Render.StrictFallback)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ORACLE_USER", "gletter")
	t.Setenv("RENDER_PDF_BACKEND", "Chromium")
	t.Setenv("RENDER_DPI", "300")
	t.Setenv("RENDER_STRICT_FALLBACK", "true")
	t.Setenv("RENDER_PDF_TIMEOUT", "5s")
	t.Setenv("RENDER_REGENERATE_WORKERS", "nope")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ORACLE_CONN_MAX_LIFETIME", "1m")

	cfg := Load()

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, BackendChromium, cfg.Render.PDFBackend)
	assert.Equal(t, 300.0, cfg.Render.DPI)
	assert.True(t, cfg.Render.StrictFallback)
	assert.Equal(t, 5*time.Second, cfg.Render.PDFTimeout)
	assert.Equal(t, 4, cfg.Render.RegenerateWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadPanics(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Panics(t, func() { Load() })

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("RENDER_PDF_BACKEND", "wkhtmltopdf")
	assert.Panics(t, func() { Load() })
}

func TestDSN(t *testing.T) {
	c := OracleConfig{Host: "db", Port: "1521", Service: "XE", User: "u", Password: `p"w`}
	assert.Equal(t, `user="u" password="p\"w" connectString="db:1521/XE"`, c.DSN())

	c.WalletPath, c.TNSAlias = "/wallet", "adb_high"
	assert.Contains(t, c.DSN(), `connectString="adb_high" configDir="/wallet"`)
}
