package repository

import (
	"database/sql"
	"math"
	"time"

	"github.com/zlovtnik/gletter/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// documentRow is one GENERATED_DOCUMENTS row in column order. Hash, path,
// pages, size and render key may be NULL for records written by older
// releases.
type documentRow struct {
	id          string
	kind        string
	ref         string
	contentHash sql.NullString
	path        sql.NullString
	pages       sql.NullInt64
	size        sql.NullInt64
	generatedAt time.Time
	renderKey   sql.NullString
}

func scanDocument(row rowScanner) (models.GeneratedDocument, error) {
	var d documentRow
	err := row.Scan(&d.id, &d.kind, &d.ref, &d.contentHash, &d.path, &d.pages, &d.size, &d.generatedAt, &d.renderKey)
	if err != nil {
		return models.GeneratedDocument{}, err
	}
	return d.model(), nil
}

func (d documentRow) model() models.GeneratedDocument {
	return models.GeneratedDocument{
		ID:          d.id,
		Kind:        models.DocumentKind(d.kind),
		Ref:         d.ref,
		ContentHash: d.contentHash.String,
		Path:        d.path.String,
		Pages:       clampInt(d.pages.Int64),
		SizeBytes:   d.size.Int64,
		GeneratedAt: d.generatedAt,
		RenderKey:   d.renderKey.String,
	}
}

// documentArgs binds doc to :1..:9 in column order.
func documentArgs(doc *models.GeneratedDocument) []any {
	return []any{
		doc.ID,
		string(doc.Kind),
		doc.Ref,
		nullIfEmpty(doc.ContentHash),
		nullIfEmpty(doc.Path),
		doc.Pages,
		doc.SizeBytes,
		doc.GeneratedAt,
		nullIfEmpty(doc.RenderKey),
	}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampInt(v int64) int {
	switch {
	case v > math.MaxInt:
		return math.MaxInt
	case v < math.MinInt:
		return math.MinInt
	}
	return int(v)
}
