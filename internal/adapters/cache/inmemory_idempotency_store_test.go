package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()

	ok, err := store.Reserve(ctx, "t1:key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "t1:key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation of the same key must fail")

	ok, err = store.Reserve(ctx, "t2:key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ok, _ := store.Reserve(ctx, "k", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err := store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be reserved again")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()

	ok, _ := store.Reserve(ctx, "k", time.Hour)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "k"))

	ok, _ = store.Reserve(ctx, "k", time.Hour)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Reserve(ctx, "contended", time.Hour); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
