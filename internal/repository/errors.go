package repository

import "errors"

// ErrNilDocument is returned by Upsert for a nil record.
var ErrNilDocument = errors.New("generated document cannot be nil")

const (
	errFmtBeginTx  = "failed to begin transaction: %w"
	errFmtCommitTx = "failed to commit transaction: %w"
)
