package handles

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_SetGet(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "results:a:h1", []byte("one"), time.Minute))

	got, err := b.Get(ctx, "results:a:h1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	_, err = b.Get(ctx, "results:a:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_NativeTTL(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	current := time.Now()
	b.now = func() time.Time { return current }

	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Minute))

	current = current.Add(2 * time.Minute)
	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, b.Len(), "expired entry removed on access")
}

func TestMemoryBackend_ValueIsolation(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	payload := []byte("original")
	require.NoError(t, b.Set(ctx, "k", payload, time.Minute))
	payload[0] = 'X'

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "stored value must be insulated from caller mutation")
}

func TestMemoryBackend_DeleteCount(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "k1", []byte("1"), time.Minute))
	require.NoError(t, b.Set(ctx, "k2", []byte("2"), time.Minute))

	n, err := b.Delete(ctx, "k1", "k2", "k3")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryBackend_KeysPrefix(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "results:a:h1", []byte("1"), time.Minute))
	require.NoError(t, b.Set(ctx, "results:b:h2", []byte("2"), time.Minute))
	require.NoError(t, b.Set(ctx, "other:x", []byte("3"), time.Minute))

	keys, err := b.Keys(ctx, "results:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"results:a:h1", "results:b:h2"}, keys)
}

// A read racing concurrent writes and deletes must observe either a full
// value or a miss, never a partial value.
func TestMemoryBackend_ConcurrentAccess(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Set(ctx, "shared", []byte("valuevaluevalue"), time.Minute)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				val, err := b.Get(ctx, "shared")
				if err == nil && len(val) != 15 {
					t.Error("observed partial value")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = b.Delete(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
