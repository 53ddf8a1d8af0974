package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides entitlement metrics: gate decisions, limit
// rejections, catalog bootstrap activity and live subscriber counts.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	gateDecisionTotal  *Counter
	limitExceededTotal *Counter
	catalogRowsCreated *Counter
	revenueDuration    *Histogram

	activeSubscribers *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	subscriberProvider SubscriberMetricsProvider
}

// SubscriberGauge is the number of ACTIVE subscriptions in one bucket.
type SubscriberGauge struct {
	Plan           string
	SubscriberType string
	Currency       string
	Count          int64
}

// SubscriberMetricsProvider provides subscriber counts for periodic collection.
// It keeps the telemetry layer independent of the billing domain.
type SubscriberMetricsProvider interface {
	GetActiveSubscriberCounts(ctx context.Context) ([]SubscriberGauge, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter              metric.Meter
	Logger             *zap.Logger
	SubscriberProvider SubscriberMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:              cfg.Meter,
		logger:             logger,
		stopChan:           make(chan struct{}),
		subscriberProvider: cfg.SubscriberProvider,
	}

	var err error

	bm.gateDecisionTotal, err = NewCounter(
		cfg.Meter,
		"medcare_gate_decisions_total",
		"Total number of entitlement gate decisions",
		"{decisions}",
	)
	if err != nil {
		return nil, err
	}

	bm.limitExceededTotal, err = NewCounter(
		cfg.Meter,
		"medcare_limit_exceeded_total",
		"Total number of protected writes rejected by a plan limit",
		"{rejections}",
	)
	if err != nil {
		return nil, err
	}

	bm.catalogRowsCreated, err = NewCounter(
		cfg.Meter,
		"medcare_catalog_rows_created_total",
		"Plan and price rows created by catalog bootstrap",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	bm.revenueDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "medcare_revenue_report_duration_seconds",
		Description: "Time spent computing revenue reports",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.activeSubscribers, err = NewGauge(
		cfg.Meter,
		"medcare_active_subscribers",
		"Current ACTIVE subscriptions per plan, subscriber type and currency",
		"{subscriptions}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Gate Metrics
// =============================================================================

// GateOutcome labels a gate decision.
type GateOutcome string

const (
	GateOutcomeAllowed GateOutcome = "allowed"
	GateOutcomeDenied  GateOutcome = "denied"
)

// RecordGateDecision counts one gate evaluation. denial is empty when allowed.
func (bm *BusinessMetrics) RecordGateDecision(ctx context.Context, ruleType string, outcome GateOutcome, denial string) {
	bm.gateDecisionTotal.Inc(ctx,
		AttrRuleType.String(ruleType),
		AttrGateOutcome.String(string(outcome)),
		AttrDenialKind.String(denial),
	)
}

// RecordLimitExceeded counts a protected write rejected for limitKey.
func (bm *BusinessMetrics) RecordLimitExceeded(ctx context.Context, scopeKind, limitKey string) {
	bm.limitExceededTotal.Inc(ctx,
		AttrScopeKind.String(scopeKind),
		AttrLimitKey.String(limitKey),
	)
}

// =============================================================================
// Catalog and Revenue Metrics
// =============================================================================

// RecordCatalogRowsCreated records rows inserted by bootstrap. kind is "plans" or "prices".
func (bm *BusinessMetrics) RecordCatalogRowsCreated(ctx context.Context, kind string, rows int64) {
	if rows <= 0 {
		return
	}
	bm.catalogRowsCreated.Add(ctx, rows, AttrCatalogKind.String(kind))
}

// RecordRevenueReport records how long a revenue report took.
func (bm *BusinessMetrics) RecordRevenueReport(ctx context.Context, d time.Duration) {
	bm.revenueDuration.RecordDuration(ctx, d)
}

// RecordActiveSubscribers records one subscriber bucket.
func (bm *BusinessMetrics) RecordActiveSubscribers(ctx context.Context, g SubscriberGauge) {
	bm.activeSubscribers.Record(ctx, g.Count,
		AttrPlanCode.String(g.Plan),
		AttrSubscriberType.String(g.SubscriberType),
		AttrCurrency.String(g.Currency),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectSubscriberMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectSubscriberMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectSubscriberMetrics(ctx context.Context) {
	if bm.subscriberProvider == nil {
		bm.logger.Debug("No subscriber provider configured, skipping subscriber metrics collection")
		return
	}

	gauges, err := bm.subscriberProvider.GetActiveSubscriberCounts(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get subscriber counts", zap.Error(err))
		return
	}
	for _, g := range gauges {
		bm.RecordActiveSubscribers(ctx, g)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Entitlement attribute keys
var (
	AttrRuleType       = attribute.Key("rule_type")
	AttrGateOutcome    = attribute.Key("outcome")
	AttrDenialKind     = attribute.Key("denial")
	AttrScopeKind      = attribute.Key("scope_kind")
	AttrLimitKey       = attribute.Key("limit_key")
	AttrCatalogKind    = attribute.Key("catalog_kind")
	AttrPlanCode       = attribute.Key("plan")
	AttrSubscriberType = attribute.Key("subscriber_type")
	AttrCurrency       = attribute.Key("currency")
)
