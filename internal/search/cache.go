package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cpl-agent/pkg/logger"
)

// KV is the subset of a key-value store the cache needs
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrCacheMiss is returned by KV implementations for absent keys
var ErrCacheMiss = errors.New("cache miss")

// RedisKV implements KV over a redis client
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to redis and checks the connection
func NewRedisKV(ctx context.Context, addr, password string, db int) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the redis client
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// CachedSearcher serves repeated queries from a KV store
type CachedSearcher struct {
	next   Searcher
	kv     KV
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSearcher wraps next with a cache
func NewCachedSearcher(next Searcher, kv KV, ttl time.Duration, log *logger.Logger) *CachedSearcher {
	return &CachedSearcher{
		next:   next,
		kv:     kv,
		ttl:    ttl,
		logger: log.WithComponent("search_cache"),
	}
}

// Search returns a cached response when available. Cache errors never fail the search
func (c *CachedSearcher) Search(ctx context.Context, req *Request) (*Response, error) {
	key := CacheKey(req)

	if data, err := c.kv.Get(ctx, key); err == nil {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			c.logger.Debug().Str("query", req.Query).Msg("Search cache hit")
			return &resp, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Msg("Search cache read failed")
	}

	resp, err := c.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn().Err(err).Msg("Search cache write failed")
		}
	}
	return resp, nil
}

// CacheKey derives a stable key from the normalized request
func CacheKey(req *Request) string {
	norm := fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(req.Query)), req.Topic, req.MaxResults)
	sum := sha256.Sum256([]byte(norm))
	return "cpl:search:" + hex.EncodeToString(sum[:8])
}
