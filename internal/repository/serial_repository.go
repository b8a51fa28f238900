package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zlovtnik/gletter/internal/integrity"
)

// TableDocumentSerials holds every allocated serial, unique on (prefix, year, seq)
const TableDocumentSerials = "DOCUMENT_SERIALS"

// oraUniqueViolation is ORA-00001, unique constraint violated.
const oraUniqueViolation = 1

// SerialRepository allocates serial numbers in Oracle. Two writers that read
// the same maximum race on the unique constraint and the loser gets
// integrity.ErrSerialConflict.
type SerialRepository struct {
	db *sql.DB
}

// NewSerialRepository creates a new SerialRepository
func NewSerialRepository(db *sql.DB) *SerialRepository {
	return &SerialRepository{db: db}
}

// Next claims max(seq)+1 for prefix and year
func (r *SerialRepository) Next(ctx context.Context, prefix string, year int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf(errFmtBeginTx, err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	maxQuery := `SELECT NVL(MAX(seq), 0) FROM ` + TableDocumentSerials + ` WHERE prefix = :1 AND year = :2`
	if err := tx.QueryRowContext(ctx, maxQuery, prefix, year).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read last serial: %w", err)
	}

	next := last + 1
	insert := `INSERT INTO ` + TableDocumentSerials + ` (prefix, year, seq, created_at) VALUES (:1, :2, :3, SYSTIMESTAMP)`
	if _, err := tx.ExecContext(ctx, insert, prefix, year, next); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", integrity.ErrSerialConflict, integrity.FormatSerial(prefix, year, next))
		}
		return 0, fmt.Errorf("failed to insert serial: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", integrity.ErrSerialConflict, integrity.FormatSerial(prefix, year, next))
		}
		return 0, fmt.Errorf(errFmtCommitTx, err)
	}
	return next, nil
}

// isUniqueViolation matches godror's *OraErr through its Code method, with a
// message check for drivers that only report text.
func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code() == oraUniqueViolation
	}
	return strings.Contains(err.Error(), "ORA-00001")
}
