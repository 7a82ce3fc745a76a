package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - config:service_rate - service fee rate, TTL from config

const keyServiceRate = "config:service_rate"

type CacheConfig struct {
	ServiceRateTTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{ServiceRateTTL: 5 * time.Minute}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	if config.ServiceRateTTL <= 0 {
		config.ServiceRateTTL = DefaultCacheConfig().ServiceRateTTL
	}
	return &CacheStore{
		client: client,
		config: config,
	}
}

// GetServiceRate returns the cached rate. ok is false on a cache miss.
func (c *CacheStore) GetServiceRate(ctx context.Context) (rate float64, ok bool, err error) {
	data, err := c.client.Get(ctx, keyServiceRate).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	rate, err = strconv.ParseFloat(data, 64)
	if err != nil {
		// Corrupt entry, treat as a miss so it gets rewritten.
		return 0, false, nil
	}
	return rate, true, nil
}

func (c *CacheStore) SetServiceRate(ctx context.Context, rate float64) error {
	return c.client.Set(ctx, keyServiceRate, strconv.FormatFloat(rate, 'f', -1, 64), c.config.ServiceRateTTL).Err()
}

func (c *CacheStore) InvalidateServiceRate(ctx context.Context) error {
	return c.client.Del(ctx, keyServiceRate).Err()
}

// Ping checks if Redis is available
func (c *CacheStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
