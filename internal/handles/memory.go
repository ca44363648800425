package handles

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry holds a value with its native expiry time.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process Backend used for stdio deployments and
// tests. Entries expire on read once their TTL has elapsed, mirroring a
// redis key TTL.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Set stores value under key with the given TTL.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// Copy so later caller mutations cannot corrupt the stored value.
	stored := make([]byte, len(value))
	copy(stored, value)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: b.now().Add(ttl),
	}
	return nil
}

// Get returns the value under key, or ErrNotFound if absent or expired.
// Expired entries are removed on access.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if b.now().After(entry.expiresAt) {
		b.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if current, ok := b.entries[key]; ok && b.now().After(current.expiresAt) {
			delete(b.entries, key)
		}
		b.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.value, nil
}

// Delete removes the given keys and returns how many were present.
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	deleted := 0
	for _, key := range keys {
		if _, ok := b.entries[key]; ok {
			delete(b.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Keys returns all live keys with the given prefix.
func (b *MemoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.entries))
	for key := range b.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close implements Backend. The in-memory backend holds no resources.
func (b *MemoryBackend) Close() error {
	return nil
}

// Len returns the number of entries currently held, including entries whose
// TTL has elapsed but that have not been read or swept yet.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
