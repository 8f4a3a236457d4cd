package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ecomdash/backend/internal/model"
)

// RedisCache shares query results between dashboard instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	stats  *StatsCollector
	now    func() time.Time
}

// redisEntry is the stored payload; CreatedAt lets readers apply their own
// freshness window on top of the key's TTL.
type redisEntry struct {
	CreatedAt time.Time          `json:"created_at"`
	Result    *model.QueryResult `json:"result"`
}

func NewRedisCache(cfg RedisConfig, stats *StatsCollector) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisCacheWithClient(client, cfg.Prefix, stats)
}

func NewRedisCacheWithClient(client *redis.Client, prefix string, stats *StatsCollector) *RedisCache {
	if stats == nil {
		stats = NewStatsCollector()
	}
	return &RedisCache{client: client, prefix: prefix, stats: stats, now: time.Now}
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Get(ctx context.Context, key string, maxAge time.Duration) (*model.QueryResult, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.stats.RecordMiss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	entry, err := decodeEntry(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	if maxAge > 0 && !r.now().Before(entry.CreatedAt.Add(maxAge)) {
		r.stats.RecordMiss()
		return nil, false, nil
	}
	r.stats.RecordHit()
	return entry.Result, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, result *model.QueryResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := encodeEntry(&redisEntry{CreatedAt: r.now(), Result: result})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear removes every key under the cache prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func encodeEntry(entry *redisEntry) ([]byte, error) {
	return json.Marshal(entry)
}

// decodeEntry keeps numbers as json.Number so cached values format
// exactly like freshly queried ones.
func decodeEntry(data []byte) (*redisEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var entry redisEntry
	if err := dec.Decode(&entry); err != nil {
		return nil, err
	}
	if entry.Result == nil {
		return nil, errors.New("payload has no result")
	}
	return &entry, nil
}
