package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 4, 15, 9, 30, 0, 0, time.UTC)

func newMockedStore(t *testing.T, prefix string) (*RedisIdempotencyStore, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	store := NewRedisIdempotencyStore(client, prefix)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func TestRedisIdempotencyStore_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockedStore(t, "")
	key := defaultKeyPrefix + "springfield:pay-1"
	stamp := fixedNow.Format(time.RFC3339)

	mock.ExpectSetNX(key, stamp, time.Hour).SetVal(true)
	mock.ExpectSetNX(key, stamp, time.Hour).SetVal(false)
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectSetNX(key, stamp, time.Hour).SetVal(true)

	ok, err := store.Reserve(ctx, "springfield:pay-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "first reservation wins")

	ok, err = store.Reserve(ctx, "springfield:pay-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "key is already held")

	require.NoError(t, store.Release(ctx, "springfield:pay-1"))

	ok, err = store.Reserve(ctx, "springfield:pay-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be reserved again")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisIdempotencyStore_CustomPrefix(t *testing.T) {
	store, mock := newMockedStore(t, "test:")
	mock.ExpectSetNX("test:k", fixedNow.Format(time.RFC3339), time.Minute).SetVal(true)

	ok, err := store.Reserve(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisIdempotencyStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockedStore(t, "")
	down := errors.New("connection refused")

	mock.ExpectSetNX(defaultKeyPrefix+"k", fixedNow.Format(time.RFC3339), time.Hour).SetErr(down)
	mock.ExpectDel(defaultKeyPrefix + "k").SetErr(down)

	ok, err := store.Reserve(ctx, "k", time.Hour)
	assert.False(t, ok)
	assert.ErrorIs(t, err, down)

	err = store.Release(ctx, "k")
	assert.ErrorIs(t, err, down)
	assert.NoError(t, mock.ExpectationsWereMet())
}
