package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlovtnik/gletter/internal/integrity"
	"github.com/zlovtnik/gletter/internal/models"
)

var generatedAt = time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "kind", "ref", "content_hash", "path", "pages", "size_bytes", "generated_at", "render_key"})
}

func TestDocumentRepositoryFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM GENERATED_DOCUMENTS\s+WHERE kind = :1 AND ref = :2`).
		WithArgs("invoice", "inv-1").
		WillReturnRows(documentRows().AddRow("d1", "invoice", "inv-1", "abc", "/out/a.pdf", 1, 2048, generatedAt, "rk1"))

	doc, err := repo.Find(context.Background(), models.DocumentKindInvoice, "inv-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, models.DocumentKindInvoice, doc.Kind)
	assert.Equal(t, "abc", doc.ContentHash)
	assert.Equal(t, 1, doc.Pages)
	assert.Equal(t, int64(2048), doc.SizeBytes)
	assert.True(t, doc.GeneratedAt.Equal(generatedAt))
	assert.Equal(t, "rk1", doc.RenderKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryFindMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM GENERATED_DOCUMENTS`).WillReturnRows(documentRows())

	doc, err := NewDocumentRepository(db).Find(context.Background(), models.DocumentKindInvoice, "nope")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestDocumentRepositoryFindError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM GENERATED_DOCUMENTS`).WillReturnError(errors.New("connection reset"))

	_, err := NewDocumentRepository(db).Find(context.Background(), models.DocumentKindInvoice, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get generated document")
}

func TestDocumentRepositoryUpsert(t *testing.T) {
	db, mock := newMock(t)
	doc := &models.GeneratedDocument{
		ID: "d1", Kind: models.DocumentKindInvoice, Ref: "inv-1", ContentHash: "abc",
		Path: "/out/a.pdf", Pages: 1, SizeBytes: 10, GeneratedAt: generatedAt, RenderKey: "rk1",
	}
	mock.ExpectExec(`MERGE INTO GENERATED_DOCUMENTS t`).
		WithArgs("d1", "invoice", "inv-1", "abc", "/out/a.pdf", 1, int64(10), generatedAt, "rk1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewDocumentRepository(db).Upsert(context.Background(), doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpsertNil(t *testing.T) {
	db, _ := newMock(t)
	assert.ErrorIs(t, NewDocumentRepository(db).Upsert(context.Background(), nil), ErrNilDocument)
}

func TestDocumentRepositoryList(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM GENERATED_DOCUMENTS WHERE kind = :1`).
		WithArgs("invoice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`OFFSET :2 ROWS FETCH NEXT :3 ROWS ONLY`).
		WithArgs("invoice", 2, 2).
		WillReturnRows(documentRows().AddRow("d3", "invoice", "inv-3", nil, nil, nil, nil, generatedAt, nil))

	docs, total, err := NewDocumentRepository(db).List(context.Background(), models.DocumentKindInvoice, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, docs, 1)
	assert.Equal(t, "inv-3", docs[0].Ref)
	assert.Empty(t, docs[0].Path)
	assert.Zero(t, docs[0].Pages)
	assert.Empty(t, docs[0].RenderKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type oraErr struct{ code int }

func (e oraErr) Error() string { return fmt.Sprintf("ORA-%05d: oracle error", e.code) }
func (e oraErr) Code() int     { return e.code }

func TestSerialRepositoryNext(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT NVL\(MAX\(seq\), 0\) FROM DOCUMENT_SERIALS`).
		WithArgs("INV", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(41))
	mock.ExpectExec(`INSERT INTO DOCUMENT_SERIALS`).
		WithArgs("INV", 2025, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewSerialRepository(db).Next(context.Background(), "INV", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSerialRepositoryConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM DOCUMENT_SERIALS`).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO DOCUMENT_SERIALS`).WillReturnError(oraErr{code: 1})
	mock.ExpectRollback()

	_, err := NewSerialRepository(db).Next(context.Background(), "DOC", 2025)
	assert.ErrorIs(t, err, integrity.ErrSerialConflict)
	assert.Contains(t, err.Error(), "DOC-2025-000001")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSerialRepositoryInsertFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM DOCUMENT_SERIALS`).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO DOCUMENT_SERIALS`).WillReturnError(oraErr{code: 1400})
	mock.ExpectRollback()

	_, err := NewSerialRepository(db).Next(context.Background(), "DOC", 2025)
	require.Error(t, err)
	assert.NotErrorIs(t, err, integrity.ErrSerialConflict)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(oraErr{code: 1}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", oraErr{code: 1})))
	assert.True(t, isUniqueViolation(errors.New("ORA-00001: unique constraint (X) violated")))
	assert.False(t, isUniqueViolation(oraErr{code: 942}))
	assert.False(t, isUniqueViolation(errors.New("timeout")))
}

func TestMemoryDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocumentRepository()

	doc, err := repo.Find(ctx, models.DocumentKindInvoice, "inv-1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	for i := range 3 {
		require.NoError(t, repo.Upsert(ctx, &models.GeneratedDocument{
			ID:          fmt.Sprintf("d%d", i),
			Kind:        models.DocumentKindInvoice,
			Ref:         fmt.Sprintf("inv-%d", i),
			GeneratedAt: generatedAt.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Upsert(ctx, &models.GeneratedDocument{
		ID: "other", Kind: models.DocumentKindInvoice, Ref: "inv-0", ContentHash: "new", GeneratedAt: generatedAt,
	}))

	doc, err = repo.Find(ctx, models.DocumentKindInvoice, "inv-0")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "d0", doc.ID)
	assert.Equal(t, "new", doc.ContentHash)

	docs, total, err := repo.List(ctx, models.DocumentKindInvoice, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, docs, 2)
	assert.Equal(t, "inv-2", docs[0].Ref)
	assert.Equal(t, "inv-1", docs[1].Ref)

	docs, _, err = repo.List(ctx, models.DocumentKindInvoice, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, total, err = repo.List(ctx, models.DocumentKindLetterhead, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, docs)
}
