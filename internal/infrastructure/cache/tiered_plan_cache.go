package cache

import (
	"context"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// TieredPlanCache reads L1 (process memory) then L2 (Redis). Writes go to
// both tiers and are broadcast so peers drop their L1 copy.
type TieredPlanCache struct {
	l1          *InMemoryPlanCache
	l2          billing.PlanCache
	invalidator *PlanInvalidator
	config      billing.CacheConfig
	logger      *zap.Logger
}

// NewTieredPlanCache creates a tiered cache. invalidator may be nil.
func NewTieredPlanCache(l1 *InMemoryPlanCache, l2 billing.PlanCache, invalidator *PlanInvalidator, config billing.CacheConfig, logger *zap.Logger) *TieredPlanCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredPlanCache{l1: l1, l2: l2, invalidator: invalidator, config: config, logger: logger}
}

// StartInvalidationSubscription blocks applying peer invalidations to L1
func (c *TieredPlanCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, c.handleInvalidation)
}

func (c *TieredPlanCache) handleInvalidation(msg InvalidationMessage) {
	if msg.Plan == "" {
		c.l1.InvalidateAll()
		c.logger.Info("Invalidated all local plan cache entries")
		return
	}
	_ = c.l1.Delete(context.Background(), msg.Plan)
	c.logger.Debug("Invalidated local plan cache entry", zap.String("plan", msg.Plan.String()))
}

// Get retrieves a plan, populating L1 from L2 on an L1 miss
func (c *TieredPlanCache) Get(ctx context.Context, code billing.PlanCode) (*billing.PlanConfig, error) {
	if plan, _ := c.l1.Get(ctx, code); plan != nil {
		return plan, nil
	}
	plan, err := c.l2.Get(ctx, code)
	if err != nil || plan == nil {
		return nil, err
	}
	_ = c.l1.Set(ctx, plan, c.config.L1TTL)
	return plan, nil
}

// Set stores a plan in both tiers
func (c *TieredPlanCache) Set(ctx context.Context, plan *billing.PlanConfig, ttl time.Duration) error {
	if err := c.l2.Set(ctx, plan, ttl); err != nil {
		return err
	}
	return c.l1.Set(ctx, plan, c.config.L1TTL)
}

// Delete removes a plan from both tiers and notifies peers
func (c *TieredPlanCache) Delete(ctx context.Context, code billing.PlanCode) error {
	_ = c.l1.Delete(ctx, code)
	if err := c.l2.Delete(ctx, code); err != nil {
		return err
	}
	if c.invalidator != nil {
		if err := c.invalidator.Publish(ctx, code); err != nil {
			c.logger.Warn("Failed to publish plan invalidation", zap.String("plan", code.String()), zap.Error(err))
		}
	}
	return nil
}

var _ billing.PlanCache = (*TieredPlanCache)(nil)
