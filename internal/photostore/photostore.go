// Package photostore validates uploaded photos and persists them under a
// server-chosen name.
package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("photo too large")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type Store interface {
	Save(ctx context.Context, content io.Reader, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
}

// prepare checks the declared type, reads at most maxBytes+1 bytes and picks
// the generated file name. The client file name is never used.
func prepare(content io.Reader, contentType string, maxBytes int64) (data []byte, name string, err error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, "", ErrUnsupportedType
	}

	data, err = io.ReadAll(io.LimitReader(content, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}

	if int64(len(data)) > maxBytes {
		return nil, "", ErrTooLarge
	}

	return data, uuid.NewString() + ext, nil
}
