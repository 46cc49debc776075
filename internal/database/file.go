package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend stores every collection as <dir>/<name>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory the backend writes to.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write replaces the document through a temporary file. The previous document
// is copied to a .backup file first and restored if the replacement fails.
func (b *FileBackend) Write(_ context.Context, name string, data []byte) error {
	target := b.path(name)
	backup := target + ".backup"

	hasBackup := false
	if _, err := os.Stat(target); err == nil {
		if err := copyFile(target, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", name, err)
		}
		hasBackup = true
	}

	if err := b.replace(target, name, data); err != nil {
		if hasBackup {
			if rerr := copyFile(backup, target); rerr != nil {
				log.Error("failed to restore backup", "collection", name, "error", rerr)
			}
		}
		return err
	}

	if hasBackup {
		if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove backup", "collection", name, "error", err)
		}
	}
	return nil
}

func (b *FileBackend) replace(target, name string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("failed to verify temp file: %w", err)
	}
	if !bytes.Equal(written, data) || !json.Valid(written) {
		return fmt.Errorf("temp file for %s is not valid JSON", name)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
