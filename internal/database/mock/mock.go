package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jon4hz/lifetrack/internal/database"
)

var _ database.Backend = (*Backend)(nil)

// Backend is an in-memory database.Backend for testing.
type Backend struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// Writes counts successful writes per document.
	Writes map[string]int

	// Error simulation
	ReadError  error
	WriteError error
	CloseError error
}

// NewBackend creates an empty Backend.
func NewBackend() *Backend {
	return &Backend{
		docs:   make(map[string][]byte),
		Writes: make(map[string]int),
	}
}

// NewClient returns a database client over a fresh Backend.
func NewClient() (*database.Client, *Backend) {
	b := NewBackend()
	return database.New(b), b
}

// Reset clears all data and errors from the mock backend.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs = make(map[string][]byte)
	b.Writes = make(map[string]int)
	b.ReadError = nil
	b.WriteError = nil
	b.CloseError = nil
}

// Seed stores v encoded as JSON under name.
func (b *Backend) Seed(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.SeedRaw(name, data)
	return nil
}

// SeedRaw stores data under name as is.
func (b *Backend) SeedRaw(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = append([]byte(nil), data...)
}

// Raw returns the document stored under name.
func (b *Backend) Raw(name string) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]byte(nil), b.docs[name]...)
}

// Names returns the names of all stored documents.
func (b *Backend) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.docs))
	for name := range b.docs {
		names = append(names, name)
	}
	return names
}

func (b *Backend) Read(_ context.Context, name string) ([]byte, error) {
	if b.ReadError != nil {
		return nil, b.ReadError
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.docs[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (b *Backend) Write(_ context.Context, name string, data []byte) error {
	if b.WriteError != nil {
		return b.WriteError
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[name] = append([]byte(nil), data...)
	b.Writes[name]++
	return nil
}

func (b *Backend) Close() error {
	return b.CloseError
}
