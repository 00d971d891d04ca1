package photostore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) *LocalStore {
	return &LocalStore{dir: dir, maxBytes: maxBytes}
}

func (s *LocalStore) Save(ctx context.Context, content io.Reader, contentType string) (string, error) {
	data, name, err := prepare(content, contentType, s.maxBytes)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}

	return path, nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	// only files this store wrote
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return fmt.Errorf("path %q outside storage dir", path)
	}

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
