// Package kv defines the flat key-value storage abstraction the rest of
// the service is built on. Implementations guarantee that each single
// operation is atomic; nothing here provides transactions, so multi-key
// invariants are the caller's responsibility.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Store is a durable mapping from string keys to opaque values.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix, sorted ascending.
	// An empty prefix lists every key.
	List(ctx context.Context, prefix string) ([]string, error)
}
