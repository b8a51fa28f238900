package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/config"
	"github.com/zlovtnik/gletter/internal/handlers"
	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/internal/middleware"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/invoice"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/pdf"
	"github.com/zlovtnik/gletter/internal/render/word"
	"github.com/zlovtnik/gletter/internal/repository"
	"github.com/zlovtnik/gletter/internal/router"
	"github.com/zlovtnik/gletter/internal/service"
)

func main() {
	// Load configuration first so we can use it for logger setup
	cfg := config.Load()

	// Initialize logger with configurable level
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting gletter service",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"pdf_backend", cfg.Render.PDFBackend,
	)

	// Storage: Oracle when configured, process memory otherwise
	var (
		db        *sql.DB
		pinger    handlers.Pinger
		store     repository.DocumentStore
		allocator integrity.Allocator
	)
	if cfg.Database.Enabled() {
		var err error
		db, err = config.OpenOracle(context.Background(), cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		// Note: db.Close() is called explicitly during graceful shutdown
		logger.Info("connected to database")
		pinger = db
		store = repository.NewDocumentRepository(db)
		allocator = repository.NewSerialRepository(db)
	} else {
		logger.Warn("ORACLE_USER not set, documents and serials are kept in memory")
		store = repository.NewMemoryDocumentRepository()
		allocator = integrity.NewMemoryAllocator()
	}

	if err := os.MkdirAll(cfg.Render.TempDir, 0o755); err != nil {
		logger.Error("failed to create temp dir", "path", cfg.Render.TempDir, "error", err)
		os.Exit(1)
	}

	// Rendering
	policy := layout.DefaultPolicy()
	policy.Strict = cfg.Render.StrictFallback
	if cfg.Render.FailOnImageError {
		policy.Images = layout.ImageFallbackFail
	}
	planner := layout.NewPlanner(policy)

	opts := pdf.DefaultOptions()
	opts.DPI = cfg.Render.DPI
	opts.DefaultFont = cfg.Render.DefaultFont

	var conv pdf.Converter = pdf.NewNativeConverter()
	if cfg.Render.PDFBackend == config.BackendChromium {
		conv = pdf.NewChromiumConverter(cfg.Render.ChromiumPath, cfg.Render.PDFTimeout)
	}
	images := assets.NewLibrary(cfg.Render.ImageDir)
	clk := clock.SystemClock{}

	// Initialize services
	letterheadSvc := service.NewLetterheadService(
		planner,
		word.NewEncoder(cfg.Render.Application),
		pdf.NewEncoder(conv, opts),
		images,
		clk,
		cfg.Render.TempDir,
		logger,
	)
	invoiceSvc, err := service.NewInvoiceService(
		invoice.NewRenderer(conv, opts, planner),
		store,
		images,
		cfg.Render.OutputPath,
		cfg.Render.RegenerateWorkers,
		clk,
		logger,
	)
	if err != nil {
		logger.Error("failed to create invoice service", "error", err)
		os.Exit(1)
	}
	serialSvc := service.NewSerialService(allocator, clk, logger)

	// Initialize router
	r := router.NewRouter(
		cfg.JWT.Secret,
		logger,
		handlers.NewLetterheadHandler(letterheadSvc, logger),
		handlers.NewInvoiceHandler(invoiceSvc, logger),
		handlers.NewSerialHandler(serialSvc, logger),
		handlers.NewAuthHandler(),
		handlers.NewHealthHandler(pinger, cfg.Render.OutputPath, cfg.Render.PDFBackend),
	).WithCORS(middleware.NewCORSConfig(cfg.Server.CORSOrigins))

	// Create HTTP server
	server := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        r.Setup(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Error channel for server listen errors
	serverErrCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			serverErrCh <- err
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		logger.Info("received shutdown signal")
	case err := <-serverErrCh:
		logger.Error("server listen failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		exitCode = 1
	}

	// Explicitly close database before exit
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("server stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// parseLogLevel parses a log level string into slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
