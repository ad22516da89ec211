// Package storage provides the key-value capability game records are
// persisted through.
//
// Values are opaque strings (JSON documents in practice). Backends:
// in-process memory, Redis, an embedded Badger database and the SQL
// kv_store table from the repository package.
package storage

import (
	"context"
	"errors"
)

// Store is a string key-value store
type Store interface {
	// Get returns the value for key. ok is false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes every pair atomically: all or none.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Keys lists keys with the given prefix in sorted order
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ErrKeyEmpty is returned when an empty key is provided
var ErrKeyEmpty = errors.New("storage: key cannot be empty")
