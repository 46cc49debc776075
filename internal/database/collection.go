package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Collection is a typed view over one document of a Backend.
//
// Every mutation goes through Update, which holds the collection lock
// across the whole read-modify-write. Two processes sharing a data
// directory are not serialized against each other.
type Collection[T any] struct {
	name    string
	backend Backend
	mu      sync.Mutex

	// normalize fixes up records after decoding. It reports whether it
	// changed anything.
	normalize func([]T) bool
}

// NewCollection returns the collection stored under name in backend.
func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{name: name, backend: backend}
}

// Name returns the document name of the collection.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns all records of the collection.
// A missing or malformed document yields an empty collection.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	items, _, err := c.load(ctx)
	return items, err
}

// Update loads the collection, passes it to fn and persists the result.
// If fn returns an error, nothing is written and the error is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, raw, err := c.load(ctx)
	if err != nil {
		return err
	}
	if raw != nil {
		c.quarantine(ctx, raw)
	}

	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.save(ctx, items)
}

// Replace overwrites the collection with items.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items)
}

// load decodes the document. When the document is malformed the raw bytes
// are returned alongside an empty result so that writers can keep a copy.
func (c *Collection[T]) load(ctx context.Context) ([]T, []byte, error) {
	data, err := c.backend.Read(ctx, c.name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read %s: %w", ErrStorage, c.name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("malformed collection, treating as empty", "collection", c.name, "error", err)
		return []T{}, data, nil
	}
	if items == nil {
		items = []T{}
	}
	if c.normalize != nil {
		c.normalize(items)
	}
	return items, nil, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", ErrStorage, c.name, err)
	}
	if err := c.backend.Write(ctx, c.name, data); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrStorage, c.name, err)
	}
	return nil
}

// quarantine keeps a copy of a malformed document before it gets overwritten.
func (c *Collection[T]) quarantine(ctx context.Context, raw []byte) {
	name := fmt.Sprintf("%s.corrupt-%d", c.name, time.Now().Unix())
	// stored as a JSON string so every backend accepts it
	data, err := json.Marshal(string(raw))
	if err != nil {
		return
	}
	if err := c.backend.Write(ctx, name, data); err != nil {
		log.Error("failed to keep a copy of malformed collection", "collection", c.name, "error", err)
		return
	}
	log.Warn("kept a copy of malformed collection", "collection", c.name, "copy", name)
}
