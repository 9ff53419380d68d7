package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys containing path separators.
var ErrInvalidKey = errors.New("invalid key")

// Store is a small durable key/value store used for client-side snapshots.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys that cannot be stored safely by every backend.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
