package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/invoice"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/pdf"
	"github.com/zlovtnik/gletter/internal/repository"
)

type brokenConverter struct{}

func (brokenConverter) Convert(context.Context, pdf.Page, io.Writer) error {
	return errors.New("renderer offline")
}

func newInvoiceService(t *testing.T, conv pdf.Converter, store repository.DocumentStore, dir string) *InvoiceService {
	t.Helper()
	svc, err := NewInvoiceService(
		invoice.NewRenderer(conv, pdf.DefaultOptions(), layout.NewPlanner(layout.DefaultPolicy())),
		store,
		nil,
		dir,
		2,
		clock.Fixed{T: fixedNow},
		discardLogger(),
	)
	require.NoError(t, err)
	return svc
}

func testInvoice(id string, items int) models.InvoiceRenderContext {
	inv := models.InvoiceRenderContext{
		ID:        id,
		Number:    "INV-2025-" + id,
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    models.InvoiceStatusSent,
		Company:   models.Sender{CompanyName: "Acme Ltd"},
		Client:    models.Client{Name: "Globex"},
		UpdatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		Totals: models.InvoiceTotals{
			Subtotal: decimal.NewFromInt(int64(items) * 100),
			Total:    decimal.NewFromInt(int64(items) * 100),
			Balance:  decimal.NewFromInt(int64(items) * 100),
		},
	}
	for i := range items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			ServiceName: fmt.Sprintf("Service %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			Amount:      decimal.NewFromInt(100),
		})
	}
	return inv
}

func TestInvoiceRenderCachesByContentHash(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryDocumentRepository()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), store, t.TempDir())
	inv := testInvoice("000042", 6)

	first, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "invoice_INV-2025-000042.pdf", first.Filename)
	assert.Equal(t, 1, first.Pages)

	rec, err := store.Find(ctx, models.DocumentKindInvoice, "000042")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.FileExists(t, rec.Path)
	assert.Equal(t, int64(len(first.Data)), rec.SizeBytes)
	assert.True(t, rec.GeneratedAt.Equal(fixedNow))

	second, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Data, second.Data)

	inv.Notes = "Updated terms"
	third, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.False(t, third.Cached)

	updated, err := store.Find(ctx, models.DocumentKindInvoice, "000042")
	require.NoError(t, err)
	assert.NotEqual(t, rec.ContentHash, updated.ContentHash)
	assert.Equal(t, rec.ID, updated.ID)
}

func TestInvoiceRenderReplacesCorruptFile(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryDocumentRepository()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), store, t.TempDir())
	inv := testInvoice("7", 1)

	_, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	rec, _ := store.Find(ctx, models.DocumentKindInvoice, "7")
	require.NoError(t, os.WriteFile(rec.Path, []byte("garbage"), 0644))

	doc, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.False(t, doc.Cached)

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, doc.Data, data)
}

func TestInvoiceRenderKeyInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryDocumentRepository()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), store, t.TempDir())
	inv := testInvoice("11", 2)

	_, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	first, _ := store.Find(ctx, models.DocumentKindInvoice, "11")
	require.NotNil(t, first)
	assert.Equal(t, inv.RenderKey(), first.RenderKey)

	changes := map[string]func(*models.InvoiceRenderContext){
		"template":       func(c *models.InvoiceRenderContext) { c.Template = "classic" },
		"paper":          func(c *models.InvoiceRenderContext) { c.PaperSize = "a4" },
		"logo":           func(c *models.InvoiceRenderContext) { c.Logo = &models.Logo{Path: "brand/acme.png"} },
		"client address": func(c *models.InvoiceRenderContext) { c.Client.Address = "1 Main St" },
		"payment":        func(c *models.InvoiceRenderContext) { c.Payment.MpesaPaybill = "400200" },
		"item unit":      func(c *models.InvoiceRenderContext) { c.Items[0].Unit = "hours" },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			changed := testInvoice("11", 2)
			change(&changed)
			assert.Equal(t, inv.Snapshot(), changed.Snapshot())
			assert.NotEqual(t, inv.RenderKey(), changed.RenderKey())
		})
	}

	inv.Template = "classic"
	inv.PaperSize = "a4"
	doc, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.False(t, doc.Cached)

	rec, _ := store.Find(ctx, models.DocumentKindInvoice, "11")
	assert.Equal(t, first.ContentHash, rec.ContentHash)
	assert.NotEqual(t, first.RenderKey, rec.RenderKey)

	again, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, doc.Data, again.Data)
}

func TestInvoiceRecordWithoutRenderKeyRegenerates(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryDocumentRepository()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), store, t.TempDir())
	inv := testInvoice("12", 1)

	_, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	rec, _ := store.Find(ctx, models.DocumentKindInvoice, "12")
	rec.RenderKey = ""
	require.NoError(t, store.Upsert(ctx, rec))

	doc, err := svc.RenderPDF(ctx, inv)
	require.NoError(t, err)
	assert.False(t, doc.Cached)
}

func TestInvoiceStorageNamesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryDocumentRepository()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), store, t.TempDir())

	dotted := testInvoice("inv.1", 1)
	underscored := testInvoice("inv_1", 3)
	require.Equal(t, sanitizeFilename(dotted.ID), sanitizeFilename(underscored.ID))

	a, err := svc.RenderPDF(ctx, dotted)
	require.NoError(t, err)
	b, err := svc.RenderPDF(ctx, underscored)
	require.NoError(t, err)

	recA, _ := store.Find(ctx, models.DocumentKindInvoice, "inv.1")
	recB, _ := store.Find(ctx, models.DocumentKindInvoice, "inv_1")
	require.NotNil(t, recA)
	require.NotNil(t, recB)
	assert.NotEqual(t, recA.Path, recB.Path)

	again, err := svc.RenderPDF(ctx, dotted)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, a.Data, again.Data)
	assert.NotEqual(t, a.Data, b.Data)
}

func TestStorageName(t *testing.T) {
	assert.NotEqual(t, storageName("inv.1"), storageName("inv_1"))
	assert.NotEqual(t, storageName("../x"), storageName("x"))
	assert.Equal(t, storageName("inv.1"), storageName("inv.1"))
	assert.Regexp(t, `^[0-9a-f]{64}\.pdf$`, storageName("../../etc/passwd"))
	assert.Regexp(t, `^[0-9a-f]{64}\.pdf$`, storageName(""))
}

func TestInvoiceFailureKeepsPreviousFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := repository.NewMemoryDocumentRepository()
	inv := testInvoice("9", 2)

	_, err := newInvoiceService(t, pdf.NewNativeConverter(), store, dir).RenderPDF(ctx, inv)
	require.NoError(t, err)
	before, _ := store.Find(ctx, models.DocumentKindInvoice, "9")
	saved, err := os.ReadFile(before.Path)
	require.NoError(t, err)

	inv.Notes = "changed"
	_, err = newInvoiceService(t, brokenConverter{}, store, dir).RenderPDF(ctx, inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)

	after, _ := store.Find(ctx, models.DocumentKindInvoice, "9")
	assert.Equal(t, before.ContentHash, after.ContentHash)
	data, err := os.ReadFile(after.Path)
	require.NoError(t, err)
	assert.Equal(t, saved, data)
}

func TestInvoiceValidation(t *testing.T) {
	svc := newInvoiceService(t, pdf.NewNativeConverter(), repository.NewMemoryDocumentRepository(), t.TempDir())
	inv := testInvoice("1", 1)
	inv.Client.Name = ""
	inv.Items[0].ServiceName = ""

	_, err := svc.RenderPDF(context.Background(), inv)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "items[0].service_name")
}

func TestInvoiceHash(t *testing.T) {
	ctx := context.Background()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), repository.NewMemoryDocumentRepository(), t.TempDir())
	inv := testInvoice("3", 6)

	h, err := svc.Hash(ctx, inv)
	require.NoError(t, err)
	assert.Len(t, h.ContentHash, 64)
	assert.True(t, h.NeedsRegeneration)
	assert.Equal(t, 0.92, h.ScaleFactor)

	_, err = svc.RenderPDF(ctx, inv)
	require.NoError(t, err)

	h, err = svc.Hash(ctx, inv)
	require.NoError(t, err)
	assert.False(t, h.NeedsRegeneration)

	generated := fixedNow
	inv.ContentHash = "stale"
	inv.GeneratedAt = &generated
	h, err = svc.Hash(ctx, inv)
	require.NoError(t, err)
	assert.True(t, h.NeedsRegeneration)
}

func TestRegenerateStale(t *testing.T) {
	ctx := context.Background()
	svc := newInvoiceService(t, pdf.NewNativeConverter(), repository.NewMemoryDocumentRepository(), t.TempDir())
	bad := testInvoice("bad", 1)
	bad.Client.Name = ""
	invoices := []models.InvoiceRenderContext{testInvoice("a", 1), testInvoice("b", 3), bad}

	res, err := svc.RegenerateStale(ctx, invoices)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Regenerated)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Errors, 1)

	res, err = svc.RegenerateStale(ctx, invoices[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cached)
	assert.Zero(t, res.Regenerated)

	docs, total, err := svc.List(ctx, models.PageRequest{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)
}
