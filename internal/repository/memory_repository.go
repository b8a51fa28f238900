package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/zlovtnik/gletter/internal/models"
)

// MemoryDocumentRepository keeps generated document records in memory. It is
// used when no database is configured.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]models.GeneratedDocument
}

// NewMemoryDocumentRepository creates an empty store
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[string]models.GeneratedDocument)}
}

func memoryKey(kind models.DocumentKind, ref string) string {
	return string(kind) + "\x00" + ref
}

func (r *MemoryDocumentRepository) Find(ctx context.Context, kind models.DocumentKind, ref string) (*models.GeneratedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[memoryKey(kind, ref)]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (r *MemoryDocumentRepository) Upsert(ctx context.Context, doc *models.GeneratedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return ErrNilDocument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memoryKey(doc.Kind, doc.Ref)
	stored := *doc
	if prev, ok := r.docs[k]; ok {
		stored.ID = prev.ID
	}
	r.docs[k] = stored
	return nil
}

func (r *MemoryDocumentRepository) List(ctx context.Context, kind models.DocumentKind, offset, limit int) ([]models.GeneratedDocument, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	var all []models.GeneratedDocument
	for _, d := range r.docs {
		if d.Kind == kind {
			all = append(all, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].GeneratedAt.Equal(all[j].GeneratedAt) {
			return all[i].Ref < all[j].Ref
		}
		return all[i].GeneratedAt.After(all[j].GeneratedAt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}
