package catalog

import "errors"

var (
	// ErrNotFound indicates the requested row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreOpen indicates the catalog file could not be opened or
	// migrated (corrupt file, permission denied). Volume-scoped, not fatal.
	ErrStoreOpen = errors.New("catalog store open failed")

	// ErrClosed indicates an operation against a closed store.
	ErrClosed = errors.New("catalog store closed")
)
