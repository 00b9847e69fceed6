package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/varpulse/internal/domain/models"
)

const (
	redisRunKeyPrefix = "varpulse:run:"
	redisRunIndexKey  = "varpulse:runs"
)

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRevRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps each run as a JSON value with a TTL, plus a sorted set of
// run ids scored by start time for listing. Index entries whose value has
// expired are pruned lazily by List.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisStore connects to addr. A ttl <= 0 keeps runs forever.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newRedisStore(rdb, ttl)
}

func newRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

func runKey(id string) string { return redisRunKeyPrefix + id }

func (s *RedisStore) Save(ctx context.Context, run models.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	if err := s.client.Set(ctx, runKey(run.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	score := float64(run.StartedAt.UnixNano())
	if err := s.client.ZAdd(ctx, redisRunIndexKey, redis.Z{Score: score, Member: run.ID}).Err(); err != nil {
		return fmt.Errorf("index run %s: %w", run.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Run, error) {
	data, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Run{}, ErrRunNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("load run %s: %w", id, err)
	}
	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return models.Run{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]models.Run, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, redisRunIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]models.Run, 0, len(ids))
	var expired []interface{}
	for _, id := range ids {
		run, err := s.Get(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			expired = append(expired, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, redisRunIndexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune run index: %w", err)
		}
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
