package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches reports in Redis with a TTL, so repeated requests for
// the same position do not burn engine time.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing client, tests use this with
// miniredis.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(fen, preset string) string {
	return "eval:" + strings.TrimSpace(preset) + ":" + strings.TrimSpace(fen)
}

func (s *RedisStore) Get(ctx context.Context, fen, preset string) (*Report, error) {
	raw, err := s.rdb.Get(ctx, s.key(fen, preset)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RedisStore) Put(ctx context.Context, report *Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(report.FEN, report.Preset), raw, s.ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
