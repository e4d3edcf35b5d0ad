// Package filestore keeps each document kind in <dir>/<kind>.json.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"event-invite/internal/storage"
)

// Backend is a directory of JSON files.
type Backend struct {
	dir string
}

// New creates a Backend rooted at dir, creating the directory if needed.
func New(dir string) (*Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Backend{dir: dir}, nil
}

// Path returns the file that holds kind.
func (b *Backend) Path(kind storage.Kind) string {
	return filepath.Join(b.dir, string(kind)+".json")
}

// Load reads the file for kind.
func (b *Backend) Load(_ context.Context, kind storage.Kind) ([]byte, error) {
	data, err := os.ReadFile(b.Path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Save replaces the file for kind. The data goes to a temp file first and is
// renamed into place, so readers never see a half-written document.
func (b *Backend) Save(_ context.Context, kind storage.Kind, data []byte) error {
	target := b.Path(kind)
	tmp, err := os.CreateTemp(b.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(target), err)
	}
	return nil
}

// Close is a no-op; files are not held open between calls.
func (b *Backend) Close() error {
	return nil
}
