package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phenorank/internal/domain"
)

const identifierKeyPrefix = "phenorank:gene:"

// RedisIdentifierCache stores resolved gene identifiers in Redis. It implements
// domain.IdentifierCache.
type RedisIdentifierCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// cachedIdentifier is the stored form of a GeneIdentifier.
type cachedIdentifier struct {
	Fields   domain.GeneIdentifierFields `json:"fields"`
	CachedAt time.Time                   `json:"cached_at"`
}

// NewRedisIdentifierCache connects to the Redis server of config.
func NewRedisIdentifierCache(config domain.CacheConfig) (*RedisIdentifierCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdentifierCacheFromClient(client, config.DefaultTTL), nil
}

// NewRedisIdentifierCacheFromClient wraps an existing client.
func NewRedisIdentifierCacheFromClient(client *redis.Client, ttl time.Duration) *RedisIdentifierCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdentifierCache{redis: client, defaultTTL: ttl}
}

func identifierKey(symbol string) string {
	return identifierKeyPrefix + strings.ToUpper(strings.TrimSpace(symbol))
}

// Get returns the cached identifier of symbol. Corrupt entries are removed and
// reported as misses.
func (c *RedisIdentifierCache) Get(ctx context.Context, symbol string) (domain.GeneIdentifier, bool, error) {
	key := identifierKey(symbol)

	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeneIdentifier{}, false, nil
	}
	if err != nil {
		return domain.GeneIdentifier{}, false, fmt.Errorf("failed to get gene cache: %w", err)
	}

	var cached cachedIdentifier
	if err := json.Unmarshal(val, &cached); err != nil {
		c.redis.Del(ctx, key)
		return domain.GeneIdentifier{}, false, nil
	}
	id, err := domain.NewGeneIdentifier(cached.Fields)
	if err != nil {
		c.redis.Del(ctx, key)
		return domain.GeneIdentifier{}, false, nil
	}
	return id, true, nil
}

// Set caches id under symbol for the default TTL.
func (c *RedisIdentifierCache) Set(ctx context.Context, symbol string, id domain.GeneIdentifier) error {
	data, err := json.Marshal(cachedIdentifier{Fields: id.Fields(), CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal gene cache data: %w", err)
	}
	return c.redis.Set(ctx, identifierKey(symbol), data, c.defaultTTL).Err()
}

// Close closes the Redis client.
func (c *RedisIdentifierCache) Close() error {
	return c.redis.Close()
}
