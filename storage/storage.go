// Package storage archives issued documents so they can be fetched again by
// id.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNotFound      = errors.New("storage: document not found")
	ErrInvalidKey    = errors.New("storage: invalid key")
	ErrInvalidConfig = errors.New("storage: invalid configuration")
)

// Object is a stored document.
type Object struct {
	Data        []byte
	ContentType string
}

// Storage puts and gets documents by key.
type Storage interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
}

// cleanKey rejects absolute keys and keys escaping the root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
