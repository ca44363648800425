package handles

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when a key does not exist or its
// native TTL has elapsed.
var ErrNotFound = errors.New("handle not found")

// Backend is the persistence layer behind the handle store. Implementations
// must expire entries on their own after ttl (native TTL); the store performs
// a lazy expiry double-check and a periodic sweep on top of that.
//
// Concurrent operations on distinct keys are independent. A Get racing a
// concurrent delete must observe either the full value or ErrNotFound, never
// a partial value.
type Backend interface {
	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)

	// Keys returns all keys with the given prefix. Used by the sweep.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}
