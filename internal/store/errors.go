package store

import "errors"

var (
	// ErrNotFound is returned when a row or schema lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique violations and on schema
	// creation against an existing schema with FailIfExists set.
	ErrConflict = errors.New("already exists")
)
