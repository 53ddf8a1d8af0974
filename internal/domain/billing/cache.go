package billing

import (
	"context"
	"time"
)

// PlanCache is a read-through cache of plan configurations.
// Get returns (nil, nil) on a miss.
type PlanCache interface {
	Get(ctx context.Context, code PlanCode) (*PlanConfig, error)
	Set(ctx context.Context, plan *PlanConfig, ttl time.Duration) error
	Delete(ctx context.Context, code PlanCode) error
}

// CacheConfig contains plan cache settings
type CacheConfig struct {
	PlanTTL       time.Duration // shared (L2) entry lifetime
	L1TTL         time.Duration // process-local entry lifetime
	KeyPrefix     string
	PubSubChannel string // channel carrying cross-instance invalidations
}

// DefaultCacheConfig returns the default cache settings
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		PlanTTL:       5 * time.Minute,
		L1TTL:         30 * time.Second,
		KeyPrefix:     "medcare:plan:",
		PubSubChannel: "medcare:plan:invalidate",
	}
}
