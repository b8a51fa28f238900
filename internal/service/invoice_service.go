package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/invoice"
	"github.com/zlovtnik/gletter/internal/render/pdf"
	"github.com/zlovtnik/gletter/internal/repository"
	"github.com/zlovtnik/gletter/pkg/fp"
)

// InvoiceService renders invoice PDFs and keeps the last valid file per
// invoice, regenerating only when the invoice content changed.
type InvoiceService struct {
	renderer  *invoice.Renderer
	store     repository.DocumentStore
	images    *assets.Library
	outputDir string
	workers   int
	clock     clock.Clock
	logger    *slog.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	renderer *invoice.Renderer,
	store repository.DocumentStore,
	images *assets.Library,
	outputDir string,
	workers int,
	clk clock.Clock,
	logger *slog.Logger,
) (*InvoiceService, error) {
	dir := filepath.Join(outputDir, "invoices")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	return &InvoiceService{
		renderer:  renderer,
		store:     store,
		images:    images,
		outputDir: dir,
		workers:   workers,
		clock:     clock.OrSystem(clk),
		logger:    logger,
	}, nil
}

// RenderPDF returns the invoice PDF, reusing the stored file when both its
// content hash and render key still match the invoice.
func (s *InvoiceService) RenderPDF(ctx context.Context, inv models.InvoiceRenderContext) (*models.RenderedDocument, error) {
	if err := fp.Err(inv.Validate()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	snapshot := inv.Snapshot()
	hash := integrity.ContentHash(snapshot)
	key := inv.RenderKey()
	filename := invoiceFilename(inv.Number)

	rec, err := s.store.Find(ctx, models.DocumentKindInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.RenderKey == key && !integrity.NeedsRegeneration(rec.ContentHash, &rec.GeneratedAt, snapshot) {
		if doc, ok := s.cached(rec, filename); ok {
			return doc, nil
		}
	}
	return s.generate(ctx, inv, hash, key, filename, rec)
}

// Hash reports the content hash of inv and whether its PDF is stale. The
// stored hash on inv wins; otherwise the generated document record is used.
func (s *InvoiceService) Hash(ctx context.Context, inv models.InvoiceRenderContext) (*models.InvoiceHashResponse, error) {
	snapshot := inv.Snapshot()
	stored, generatedAt := inv.ContentHash, inv.GeneratedAt
	if stored == "" && inv.ID != "" {
		rec, err := s.store.Find(ctx, models.DocumentKindInvoice, inv.ID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			stored, generatedAt = rec.ContentHash, &rec.GeneratedAt
		}
	}
	return &models.InvoiceHashResponse{
		ContentHash:       integrity.ContentHash(snapshot),
		NeedsRegeneration: integrity.NeedsRegeneration(stored, generatedAt, snapshot),
		ScaleFactor:       invoice.ScaleFactor(len(inv.Items)),
	}, nil
}

// RegenerateStale brings the stored PDF of every invoice up to date, running
// at most the configured number of renders at once. Every invoice is
// attempted; failures are counted and joined into the returned error.
func (s *InvoiceService) RegenerateStale(ctx context.Context, invoices []models.InvoiceRenderContext) (*models.RegenerateResponse, error) {
	var (
		mu   sync.Mutex
		res  = &models.RegenerateResponse{Total: len(invoices)}
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, inv := range invoices {
		g.Go(func() error {
			doc, err := s.RenderPDF(ctx, inv)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", inv.Number, err))
				errs = append(errs, fmt.Errorf("invoice %s: %w", inv.Number, err))
			case doc.Cached:
				res.Cached++
			default:
				res.Regenerated++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("invoice regeneration finished",
		"total", res.Total,
		"regenerated", res.Regenerated,
		"cached", res.Cached,
		"failed", res.Failed,
	)
	return res, errors.Join(errs...)
}

// List retrieves generated invoice records with pagination
func (s *InvoiceService) List(ctx context.Context, page models.PageRequest) ([]models.GeneratedDocument, int64, error) {
	page = models.NewPageRequest(page.Page, page.PageSize)
	return s.store.List(ctx, models.DocumentKindInvoice, page.Offset(), page.PageSize)
}

func (s *InvoiceService) cached(rec *models.GeneratedDocument, filename string) (*models.RenderedDocument, bool) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		s.logger.Warn("stored invoice unreadable, regenerating", "ref", rec.Ref, "path", rec.Path, "error", err)
		return nil, false
	}
	pages, err := pdf.Inspect(data)
	if err != nil {
		s.logger.Warn("stored invoice invalid, regenerating", "ref", rec.Ref, "path", rec.Path, "error", err)
		return nil, false
	}
	return &models.RenderedDocument{
		Filename:    filename,
		ContentType: pdf.ContentType,
		Data:        data,
		Pages:       pages,
		Cached:      true,
	}, true
}

func (s *InvoiceService) generate(ctx context.Context, inv models.InvoiceRenderContext, hash, key, filename string, prev *models.GeneratedDocument) (*models.RenderedDocument, error) {
	logo, err := requestLogo(s.images, inv.Logo)()
	if err != nil {
		if perr := s.renderer.Planner.Policy.ImageError(err); perr != nil {
			return nil, NewRenderError("logo", perr, "logo image could not be used")
		}
		s.logger.Warn("image unavailable, using text fallback", "image", "logo", "invoice", inv.Number, "error", err)
		logo = nil
	}

	now := s.clock.Now()
	out, err := s.renderer.Render(ctx, inv, logo, now)
	if err != nil {
		return nil, NewRenderError("invoice", fmt.Errorf("%w: %w", ErrGeneration, err), "failed to generate invoice PDF")
	}

	path := filepath.Join(s.outputDir, storageName(inv.ID))
	if err := WriteFileAtomic(path, out.Data); err != nil {
		return nil, NewRenderError("store", err, "failed to store invoice PDF")
	}

	record := &models.GeneratedDocument{
		ID:          uuid.NewString(),
		Kind:        models.DocumentKindInvoice,
		Ref:         inv.ID,
		ContentHash: hash,
		Path:        path,
		Pages:       out.Pages,
		SizeBytes:   int64(len(out.Data)),
		GeneratedAt: now,
		RenderKey:   key,
	}
	if prev != nil {
		record.ID = prev.ID
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		// the file is valid; a stale record only costs a regeneration later
		s.logger.Error("failed to record generated invoice",
			"invoice", inv.Number,
			"path", path,
			"error", err,
		)
	}

	s.logger.Info("invoice rendered",
		"invoice", inv.Number,
		"items", len(inv.Items),
		"scale", invoice.ScaleFactor(len(inv.Items)),
		"pages", out.Pages,
	)
	return &models.RenderedDocument{
		Filename:    filename,
		ContentType: pdf.ContentType,
		Data:        out.Data,
		Pages:       out.Pages,
	}, nil
}

func invoiceFilename(number string) string {
	safe := sanitizeFilename(number)
	if safe == "" {
		safe = "unknown"
	}
	return "invoice_" + safe + ".pdf"
}

// storageName maps an invoice id to its file. Ids are hashed so that ids
// differing only in characters a filename cannot hold never share a file.
func storageName(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:]) + ".pdf"
}
