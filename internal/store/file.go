package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Backend reads and writes the serialized store document. Read returns an
// error wrapping os.ErrNotExist when nothing has been written yet.
type Backend interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileBackend keeps the document in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to dir/store.json, creating dir
// if needed. An empty dir resolves to the XDG data directory.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		var err error
		dir, err = DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileBackend{path: filepath.Join(dir, "store.json")}, nil
}

// DataDir returns $XDG_DATA_HOME/codepulse or ~/.local/share/codepulse.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "codepulse"), nil
}

// Path returns the full path of the store file.
func (f *FileBackend) Path() string { return f.path }

// Read returns the raw document.
func (f *FileBackend) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	return data, nil
}

// Write replaces the document atomically via a temp file + os.Rename.
func (f *FileBackend) Write(data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "store-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}
