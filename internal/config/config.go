package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PDF backends
const (
	BackendNative   = "native"
	BackendChromium = "chromium"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database OracleConfig
	JWT      JWTConfig
	Render   RenderConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
	// CORSOrigins is empty to admit any origin
	CORSOrigins []string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// RenderConfig holds document rendering configuration
type RenderConfig struct {
	// OutputPath is where generated invoice PDFs are kept
	OutputPath string
	// ImageDir is the root for signature and stamp images referenced by path
	ImageDir string
	// TempDir spools uploaded logos
	TempDir string
	// PDFBackend is BackendNative or BackendChromium
	PDFBackend   string
	ChromiumPath string
	PDFTimeout   time.Duration
	DPI          float64
	DefaultFont  string
	// StrictFallback rejects unknown templates and paper sizes instead of
	// substituting defaults
	StrictFallback bool
	// FailOnImageError rejects documents whose images cannot be read
	FailOnImageError bool
	// Application is written into Word document properties
	Application       string
	RegenerateWorkers int
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists. Panics if required configuration is missing.
func Load() *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  getIntOrDefault("SERVER_MAX_HEADER_BYTES", 1<<20), // 1MB default
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			CORSOrigins:     getListOrDefault("CORS_ALLOWED_ORIGINS"),
		},
		Database: OracleConfig{
			Host:       getEnvOrDefault("ORACLE_HOST", "localhost"),
			Port:       getEnvOrDefault("ORACLE_PORT", "1521"),
			Service:    getEnvOrDefault("ORACLE_SERVICE", "ORCL"),
			User:       os.Getenv("ORACLE_USER"),
			Password:   os.Getenv("ORACLE_PASSWORD"),
			WalletPath: os.Getenv("ORACLE_WALLET_PATH"),
			TNSAlias:   os.Getenv("ORACLE_TNS_ALIAS"),

			MaxOpenConns:    getIntOrDefault("ORACLE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntOrDefault("ORACLE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getDurationOrDefault("ORACLE_CONN_MAX_LIFETIME", 5*time.Minute),
			PingTimeout:     getDurationOrDefault("ORACLE_PING_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret:     requireEnv("JWT_SECRET"),
			Expiration: getDurationOrDefault("JWT_EXPIRATION", 24*time.Hour),
		},
		Render: RenderConfig{
			OutputPath:        getEnvOrDefault("RENDER_OUTPUT_PATH", "./output"),
			ImageDir:          getEnvOrDefault("RENDER_IMAGE_DIR", "./images"),
			TempDir:           getEnvOrDefault("RENDER_TEMP_DIR", filepath.Join(os.TempDir(), "gletter")),
			PDFBackend:        getBackend("RENDER_PDF_BACKEND"),
			ChromiumPath:      os.Getenv("RENDER_CHROMIUM_PATH"),
			PDFTimeout:        getDurationOrDefault("RENDER_PDF_TIMEOUT", 30*time.Second),
			DPI:               getFloatOrDefault("RENDER_DPI", 150),
			DefaultFont:       getEnvOrDefault("RENDER_DEFAULT_FONT", "Helvetica"),
			StrictFallback:    getBoolOrDefault("RENDER_STRICT_FALLBACK", false),
			FailOnImageError:  getBoolOrDefault("RENDER_FAIL_ON_IMAGE_ERROR", false),
			Application:       getEnvOrDefault("RENDER_APPLICATION", "gletter"),
			RegenerateWorkers: getIntOrDefault("RENDER_REGENERATE_WORKERS", 4),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// requireEnv returns the value of the environment variable or panics if not set
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}

func getBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getBackend panics on an unknown backend name so a typo does not silently
// fall back to a different renderer
func getBackend(key string) string {
	switch v := strings.ToLower(getEnvOrDefault(key, BackendNative)); v {
	case BackendNative, BackendChromium:
		return v
	default:
		panic(fmt.Sprintf("%s must be %q or %q, got %q", key, BackendNative, BackendChromium, v))
	}
}

// getListOrDefault splits a comma-separated variable. Unset means nil.
func getListOrDefault(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
