package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zlovtnik/gletter/internal/models"
)

// TableGeneratedDocuments is the table holding generated document records
const TableGeneratedDocuments = "GENERATED_DOCUMENTS"

// DocumentStore persists generated document records. There is at most one
// record per kind and ref.
type DocumentStore interface {
	Find(ctx context.Context, kind models.DocumentKind, ref string) (*models.GeneratedDocument, error)
	Upsert(ctx context.Context, doc *models.GeneratedDocument) error
	List(ctx context.Context, kind models.DocumentKind, offset, limit int) ([]models.GeneratedDocument, int64, error)
}

// DocumentRepository stores generated document records in Oracle
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, kind, ref, content_hash, path, pages, size_bytes, generated_at, render_key`

// Find returns the record for kind and ref, or nil when there is none
func (r *DocumentRepository) Find(ctx context.Context, kind models.DocumentKind, ref string) (*models.GeneratedDocument, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM ` + TableGeneratedDocuments + `
		WHERE kind = :1 AND ref = :2`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, string(kind), ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated document: %w", err)
	}
	return &doc, nil
}

// Upsert inserts the record or replaces the one with the same kind and ref.
// The id of an existing record is kept.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *models.GeneratedDocument) error {
	if doc == nil {
		return ErrNilDocument
	}
	query := `
		MERGE INTO ` + TableGeneratedDocuments + ` t
		USING (
			SELECT :1 AS id, :2 AS kind, :3 AS ref, :4 AS content_hash,
				:5 AS path, :6 AS pages, :7 AS size_bytes, :8 AS generated_at,
				:9 AS render_key
			FROM dual
		) s
		ON (t.kind = s.kind AND t.ref = s.ref)
		WHEN MATCHED THEN UPDATE SET
			t.content_hash = s.content_hash,
			t.path = s.path,
			t.pages = s.pages,
			t.size_bytes = s.size_bytes,
			t.generated_at = s.generated_at,
			t.render_key = s.render_key
		WHEN NOT MATCHED THEN INSERT (` + documentColumns + `)
			VALUES (s.id, s.kind, s.ref, s.content_hash, s.path, s.pages, s.size_bytes, s.generated_at, s.render_key)`

	if _, err := r.db.ExecContext(ctx, query, documentArgs(doc)...); err != nil {
		return fmt.Errorf("failed to upsert generated document: %w", err)
	}
	return nil
}

// List returns one page of records of kind, newest first, with the total count
func (r *DocumentRepository) List(ctx context.Context, kind models.DocumentKind, offset, limit int) ([]models.GeneratedDocument, int64, error) {
	countQuery := `SELECT COUNT(*) FROM ` + TableGeneratedDocuments + ` WHERE kind = :1`
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, string(kind)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting generated documents: %w", err)
	}

	query := `
		SELECT ` + documentColumns + `
		FROM ` + TableGeneratedDocuments + `
		WHERE kind = :1
		ORDER BY generated_at DESC
		OFFSET :2 ROWS FETCH NEXT :3 ROWS ONLY`

	rows, err := r.db.QueryContext(ctx, query, string(kind), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying generated documents: %w", err)
	}
	defer rows.Close()

	var docs []models.GeneratedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning generated document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating generated documents: %w", err)
	}
	return docs, total, nil
}
