package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPlanCache implements billing.PlanCache using Redis
type RedisPlanCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     billing.CacheConfig
	logger     *zap.Logger
}

// RedisPlanCacheOption is a functional option for configuring the cache
type RedisPlanCacheOption func(*RedisPlanCache)

// WithCacheConfig sets the cache configuration
func WithCacheConfig(config billing.CacheConfig) RedisPlanCacheOption {
	return func(c *RedisPlanCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisPlanCacheOption {
	return func(c *RedisPlanCache) {
		c.logger = logger
	}
}

// NewRedisPlanCache connects to Redis and returns a cache that owns the client
func NewRedisPlanCache(cfg RedisConfig, opts ...RedisPlanCacheOption) (*RedisPlanCache, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	c := NewRedisPlanCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisPlanCacheWithClient creates a cache on a shared client.
// The caller keeps ownership of the client.
func NewRedisPlanCacheWithClient(client *redis.Client, opts ...RedisPlanCacheOption) *RedisPlanCache {
	c := &RedisPlanCache{
		client: client,
		config: billing.DefaultCacheConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisPlanCache) key(code billing.PlanCode) string {
	return c.config.KeyPrefix + string(code)
}

// Get retrieves a plan from cache. A miss returns (nil, nil).
func (c *RedisPlanCache) Get(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	cacheKey := c.key(code)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss for plan", zap.String("plan", code.String()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan from cache: %w", err)
	}

	var plan billing.PlanConfig
	if err := json.Unmarshal(data, &plan); err != nil {
		c.logger.Error("Failed to unmarshal cached plan", zap.String("plan", code.String()), zap.Error(err))
		// Drop the corrupted entry so the next read repopulates it
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Set stores a plan. A zero ttl uses the configured PlanTTL.
func (c *RedisPlanCache) Set(ctx context.Context, plan *billing.PlanConfig, ttl time.Duration) error {
	if plan == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.config.PlanTTL
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := c.client.Set(ctx, c.key(plan.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set plan in cache: %w", err)
	}
	c.logger.Debug("Cached plan", zap.String("plan", plan.Code.String()), zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a plan from cache
func (c *RedisPlanCache) Delete(ctx context.Context, code billing.PlanCode) error {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		return fmt.Errorf("failed to delete plan from cache: %w", err)
	}
	return nil
}

// Close closes the client if the cache created it
func (c *RedisPlanCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ billing.PlanCache = (*RedisPlanCache)(nil)
