package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps per-source session state in Redis with a TTL matching the
// validity window. Payloads are encrypted at rest when a key is configured.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	sealer sealer
	now    func() time.Time
}

type redisRecord struct {
	Source    string    `json:"source"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, encryptionKey string) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{
		client: client,
		prefix: "scrape_session:",
		ttl:    ttl,
		sealer: newSealer(encryptionKey),
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, source string) (State, bool, error) {
	if s == nil || s.client == nil {
		return State{}, false, errors.New("nil redis store")
	}

	data, err := s.client.Get(ctx, s.prefix+source).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("redis get: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return State{}, false, fmt.Errorf("unmarshal session state: %w", err)
	}

	// Redis TTL should have evicted this already; double-check anyway so a
	// stale record is never handed to an adapter.
	if s.now().Sub(rec.CreatedAt) > s.ttl {
		_ = s.Invalidate(ctx, source)
		return State{}, false, nil
	}

	payload, err := s.sealer.Open(rec.Payload)
	if err != nil {
		// Undecryptable state is useless; treat it as absent so the
		// adapter re-authenticates.
		_ = s.Invalidate(ctx, source)
		return State{}, false, nil
	}

	return State{Source: rec.Source, Payload: payload, CreatedAt: rec.CreatedAt}, true, nil
}

func (s *RedisStore) Save(ctx context.Context, source string, st State) error {
	if s == nil || s.client == nil {
		return errors.New("nil redis store")
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now()
	}

	sealed, err := s.sealer.Seal(st.Payload)
	if err != nil {
		return fmt.Errorf("seal session payload: %w", err)
	}

	rec := redisRecord{Source: source, Payload: sealed, CreatedAt: st.CreatedAt}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	ttl := s.ttl - s.now().Sub(st.CreatedAt)
	if ttl <= 0 {
		return errors.New("session state already expired")
	}
	return s.client.Set(ctx, s.prefix+source, data, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, source string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.prefix+source).Err()
}
