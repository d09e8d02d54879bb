package repository

import "errors"

// Sentinels shared by all repository implementations for stable error
// mapping across layers.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation (e.g. email taken).
	ErrDuplicate = errors.New("already exists")
)
