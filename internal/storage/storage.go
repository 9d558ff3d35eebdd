// Package storage provides the object store backends used for uploaded images.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a stored object cannot be found by name.
var ErrObjectNotFound = errors.New("object not found")

// Store is the object store used for uploaded images.
type Store interface {
	// Put stores data under name with the given content type.
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Get returns the stored bytes and content type for name.
	// Returns ErrObjectNotFound when no such object exists.
	Get(ctx context.Context, name string) ([]byte, string, error)
}
