package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Plan cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// PlanCacheFactory builds the plan cache selected by configuration
type PlanCacheFactory struct {
	redisConfig           RedisConfig
	cacheConfig           billing.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PlanCacheFactoryOption is a functional option for configuring the factory
type PlanCacheFactoryOption func(*PlanCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PlanCacheFactoryOption {
	return func(f *PlanCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to an
// in-memory cache instead of failing. Default is true.
func WithInMemoryFallback(allow bool) PlanCacheFactoryOption {
	return func(f *PlanCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPlanCacheFactory creates a new factory
func NewPlanCacheFactory(redisCfg RedisConfig, cacheCfg billing.CacheConfig, opts ...PlanCacheFactoryOption) *PlanCacheFactory {
	f := &PlanCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PlanCacheHandle owns a built cache and its background resources.
// Cache is nil for the "none" backend.
type PlanCacheHandle struct {
	Cache   billing.PlanCache
	tiered  *TieredPlanCache
	closers []func() error
}

// Start runs cross-instance invalidation for tiered caches. It blocks until
// ctx is cancelled, so call it in a goroutine.
func (h *PlanCacheHandle) Start(ctx context.Context) error {
	if h.tiered == nil {
		return nil
	}
	return h.tiered.StartInvalidationSubscription(ctx)
}

// Close releases everything the handle owns
func (h *PlanCacheHandle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Create builds the cache for backend
func (f *PlanCacheFactory) Create(backend string) (*PlanCacheHandle, error) {
	switch backend {
	case BackendNone:
		return &PlanCacheHandle{}, nil
	case "", BackendMemory:
		return f.memory(), nil
	case BackendRedis:
		client, err := NewRedisClient(f.redisConfig)
		if err != nil {
			if !f.allowInMemoryFallback {
				return nil, err
			}
			f.logger.Warn("Redis unavailable, plan cache falls back to memory", zap.Error(err))
			return f.memory(), nil
		}
		return f.tieredWithClient(client, true), nil
	default:
		return nil, fmt.Errorf("unknown plan cache backend %q", backend)
	}
}

func (f *PlanCacheFactory) memory() *PlanCacheHandle {
	l1 := NewInMemoryPlanCache(WithInMemoryConfig(f.cacheConfig), WithInMemoryLogger(f.logger))
	return &PlanCacheHandle{Cache: l1, closers: []func() error{l1.Close}}
}

func (f *PlanCacheFactory) tieredWithClient(client *redis.Client, ownsClient bool) *PlanCacheHandle {
	l1 := NewInMemoryPlanCache(WithInMemoryConfig(f.cacheConfig), WithInMemoryLogger(f.logger))
	l2 := NewRedisPlanCacheWithClient(client, WithCacheConfig(f.cacheConfig), WithCacheLogger(f.logger))
	inv := NewPlanInvalidator(client, f.cacheConfig.PubSubChannel, uuid.NewString(), f.logger)
	tiered := NewTieredPlanCache(l1, l2, inv, f.cacheConfig, f.logger)

	h := &PlanCacheHandle{Cache: tiered, tiered: tiered}
	if ownsClient {
		h.closers = append(h.closers, client.Close)
	}
	h.closers = append(h.closers, l1.Close, inv.Close)
	return h
}
