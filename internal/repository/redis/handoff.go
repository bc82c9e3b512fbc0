package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tgstorefront/internal/domain"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "tg_handoff:"

// commander is the subset of redis.Cmdable used by the store
type commander interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// HandoffStore implements repository.HandoffStore on Redis.
// Expiry is native key TTL, so no sweep is needed.
type HandoffStore struct {
	client commander
	now    func() time.Time
}

// NewHandoffStore creates a store backed by the given client
func NewHandoffStore(client redis.Cmdable) *HandoffStore {
	return &HandoffStore{client: client, now: time.Now}
}

// Connect opens a redis client and checks the connection
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// Set stores the record with a TTL matching its expiry
func (s *HandoffStore) Set(ctx context.Context, code string, record domain.HandoffRecord) error {
	ttl := time.Duration(record.ExpiresAtMs-s.now().UnixMilli()) * time.Millisecond
	if ttl <= 0 {
		// already expired, nothing to keep
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal handoff record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+code, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set handoff code: %w", err)
	}
	return nil
}

// Consume pops the code atomically with GETDEL
func (s *HandoffStore) Consume(ctx context.Context, code string) (*domain.HandoffRecord, error) {
	val, err := s.client.GetDel(ctx, keyPrefix+code).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume handoff code: %w", err)
	}

	var record domain.HandoffRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handoff record: %w", err)
	}

	// TTL has millisecond precision on the server, recheck locally
	if record.Expired(s.now().UnixMilli()) {
		return nil, nil
	}
	return &record, nil
}
