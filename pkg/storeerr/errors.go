// Package storeerr defines the error taxonomy shared by every layer of
// the storage engine: page codec, catalog, heap manager, scan pipeline.
// Kinds, not named types — every error the engine raises wraps one of
// these sentinels so callers can classify failures with errors.Is
// without depending on a concrete error type per package.
package storeerr

import "errors"

var (
	// ErrNotOpen is raised when an operation is issued before open or
	// after close.
	ErrNotOpen = errors.New("storage not open")

	// ErrNotFound covers a missing record id, table, or page.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists covers a duplicate table name.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSchemaMismatch covers an insert/update whose value count does
	// not match the table's column count.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNoSpace covers a row that does not fit, and cannot be made to
	// fit by compaction, in any existing or newly allocated page.
	ErrNoSpace = errors.New("no space")

	// ErrCorruption covers any on-disk integrity check failing at
	// deserialize time.
	ErrCorruption = errors.New("corruption")

	// ErrInvalidArgument covers an out-of-range aggregate column, an
	// unknown type name, or a malformed row encoding.
	ErrInvalidArgument = errors.New("invalid argument")
)
