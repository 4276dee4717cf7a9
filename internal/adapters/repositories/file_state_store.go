package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStateStore persists the application state blob as one JSON file.
// This is the local-mode backend: no database, state survives restarts,
// and the file is human-readable for support.
type FileStateStore struct {
	Path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{Path: path}
}

// Load reads the stored blob. A missing file is a fresh install, not an
// error.
func (f *FileStateStore) Load(_ context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("file state store: read %q: %w", f.Path, err)
	}
	return data, true, nil
}

// Save writes the blob through a temp file and rename, so a crash mid-write
// leaves the previous state intact rather than a truncated file.
func (f *FileStateStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file state store: create %q: %w", dir, err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file state store: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("file state store: rename %q: %w", tmp, err)
	}
	return nil
}
