package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"tgstorefront/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps values in a map and mimics GETDEL semantics
type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) GetDel(_ context.Context, key string) *redis.StringCmd {
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.values, key)
	return redis.NewStringResult(val, nil)
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(f *fakeRedis) *HandoffStore {
	return &HandoffStore{client: f, now: func() time.Time { return fixedNow }}
}

func TestHandoffStore_SetAndConsumeOnce(t *testing.T) {
	ctx := context.Background()
	f := newFakeRedis()
	store := newTestStore(f)

	record := domain.HandoffRecord{
		User:        domain.TelegramUser{"id": float64(7)},
		CreatedAtMs: fixedNow.UnixMilli(),
		ExpiresAtMs: fixedNow.Add(time.Minute).UnixMilli(),
	}
	require.NoError(t, store.Set(ctx, "X", record))
	assert.Equal(t, time.Minute, f.ttls[keyPrefix+"X"])

	got, err := store.Consume(ctx, "X")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record, *got)

	again, err := store.Consume(ctx, "X")
	assert.NoError(t, err)
	assert.Nil(t, again)
}

func TestHandoffStore_SetExpiredIsDropped(t *testing.T) {
	f := newFakeRedis()
	store := newTestStore(f)

	err := store.Set(context.Background(), "old", domain.HandoffRecord{
		ExpiresAtMs: fixedNow.Add(-time.Second).UnixMilli(),
	})

	assert.NoError(t, err)
	assert.Empty(t, f.values)

	got, err := store.Consume(context.Background(), "old")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestHandoffStore_ConsumeRechecksExpiry(t *testing.T) {
	f := newFakeRedis()
	f.values[keyPrefix+"late"] = `{"user":{"id":1},"createdAtMs":1,"expiresAtMs":2}`

	got, err := newTestStore(f).Consume(context.Background(), "late")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestHandoffStore_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	f := newFakeRedis()
	f.failErr = boom
	store := newTestStore(f)

	err := store.Set(context.Background(), "X", domain.HandoffRecord{ExpiresAtMs: fixedNow.Add(time.Minute).UnixMilli()})
	assert.ErrorIs(t, err, boom)

	_, err = store.Consume(context.Background(), "X")
	assert.ErrorIs(t, err, boom)
}
