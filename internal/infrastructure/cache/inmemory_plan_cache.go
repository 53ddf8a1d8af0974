package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryPlanCache implements billing.PlanCache in process memory.
// It serves single-instance deployments and the L1 tier of TieredPlanCache.
type InMemoryPlanCache struct {
	plans    sync.Map // billing.PlanCode -> *cacheEntry
	config   billing.CacheConfig
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration
	stopCh   chan struct{}
	stopped  atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	plan      *billing.PlanConfig
	expiresAt time.Time
}

// InMemoryPlanCacheOption is a functional option for configuring the cache
type InMemoryPlanCacheOption func(*InMemoryPlanCache)

// WithInMemoryConfig sets the cache configuration
func WithInMemoryConfig(config billing.CacheConfig) InMemoryPlanCacheOption {
	return func(c *InMemoryPlanCache) {
		c.config = config
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryPlanCacheOption {
	return func(c *InMemoryPlanCache) {
		c.logger = logger
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryPlanCacheOption {
	return func(c *InMemoryPlanCache) {
		c.interval = d
	}
}

// NewInMemoryPlanCache creates the cache and starts its sweeper. Call Stop to end it.
func NewInMemoryPlanCache(opts ...InMemoryPlanCacheOption) *InMemoryPlanCache {
	c := &InMemoryPlanCache{
		config:   billing.DefaultCacheConfig(),
		logger:   zap.NewNop(),
		now:      time.Now,
		interval: defaultCleanupInterval,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanupExpired()
	return c
}

// Get returns a live entry or (nil, nil).
func (c *InMemoryPlanCache) Get(_ context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	if value, ok := c.plans.Load(code); ok {
		entry := value.(*cacheEntry)
		if c.now().Before(entry.expiresAt) {
			c.hits.Add(1)
			return entry.plan, nil
		}
		c.plans.Delete(code)
	}
	c.misses.Add(1)
	return nil, nil
}

// Set stores a plan. A zero ttl uses the configured PlanTTL.
func (c *InMemoryPlanCache) Set(_ context.Context, plan *billing.PlanConfig, ttl time.Duration) error {
	if plan == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.config.PlanTTL
	}
	c.plans.Store(plan.Code, &cacheEntry{plan: plan, expiresAt: c.now().Add(ttl)})
	return nil
}

// Delete removes a plan from cache
func (c *InMemoryPlanCache) Delete(_ context.Context, code billing.PlanCode) error {
	c.plans.Delete(code)
	return nil
}

// InvalidateAll drops every entry
func (c *InMemoryPlanCache) InvalidateAll() {
	c.plans.Range(func(key, _ any) bool {
		c.plans.Delete(key)
		return true
	})
}

// Stats returns hit and miss counters
func (c *InMemoryPlanCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Stop ends the sweeper. Safe to call more than once.
func (c *InMemoryPlanCache) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
}

// Close implements io.Closer
func (c *InMemoryPlanCache) Close() error {
	c.Stop()
	return nil
}

func (c *InMemoryPlanCache) cleanupExpired() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := c.now()
			removed := 0
			c.plans.Range(func(key, value any) bool {
				if !now.Before(value.(*cacheEntry).expiresAt) {
					c.plans.Delete(key)
					removed++
				}
				return true
			})
			if removed > 0 {
				c.logger.Debug("Swept expired plan cache entries", zap.Int("removed", removed))
			}
		}
	}
}

var _ billing.PlanCache = (*InMemoryPlanCache)(nil)
