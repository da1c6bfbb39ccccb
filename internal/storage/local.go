package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps media on the local filesystem. It backs development
// setups where no object store is configured.
type LocalStorage struct {
	dir     string
	urlPath string
}

// NewLocalStorage creates dir if needed. urlPath is the public prefix the
// router serves dir under.
func NewLocalStorage(dir, urlPath string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, urlPath: strings.TrimRight(urlPath, "/")}, nil
}

// Save writes data to dir under key and returns its public URL path.
func (s *LocalStorage) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	name := filepath.Base(key)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.urlPath + "/" + name, nil
}

// Delete removes the stored file. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
