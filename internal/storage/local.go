package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore stores objects as plain files under a single directory.
// It is the default backend for local development.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	const op = "storage.NewLocalStore"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create storage directory: %w", op, err)
	}

	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	const op = "storage.LocalStore.Put"

	path, err := s.objectPath(name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write object: %w", op, err)
	}

	return nil
}

func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	const op = "storage.LocalStore.Get"

	path, err := s.objectPath(name)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrObjectNotFound)
		}

		return nil, "", fmt.Errorf("%s: failed to read object: %w", op, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return data, contentType, nil
}

// objectPath rejects names that would escape the storage directory.
func (s *LocalStore) objectPath(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	return filepath.Join(s.dir, name), nil
}
