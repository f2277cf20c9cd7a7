// Package kv provides the key-value store abstraction used for weather and
// recommendation caching.
package kv

import (
	"context"
	"errors"
	"time"
)

// KV errors.
var (
	// ErrNotFound is returned by Get when the key does not exist or has expired.
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnavailable is returned when the store cannot be reached. Callers
	// treat it as a miss on reads and as fire-and-forget on background writes.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Store is an opaque key-value store with per-key TTL.
//
// Values are opaque byte strings; callers encode domain records as JSON.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. A zero TTL means the
	// key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan returns all keys matching the given prefix.
	Scan(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}
