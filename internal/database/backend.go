package database

import (
	"context"
	"errors"
)

// ErrStorage is returned when a collection cannot be read from or written to
// its backend.
var ErrStorage = errors.New("storage error")

// Backend persists one JSON document per named collection.
type Backend interface {
	// Read returns the raw document stored under name.
	// A missing document is reported as nil data without an error.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write replaces the document stored under name.
	// A failed write must leave the previous document intact.
	Write(ctx context.Context, name string, data []byte) error
	// Close releases the resources held by the backend.
	Close() error
}
