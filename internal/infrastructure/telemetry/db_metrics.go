package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig configures connection pool and query metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns metrics on, 200ms slow threshold, 15s pool sampling.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics records pool utilisation and per-operation query latency.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = defaults.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}

	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var errs [5]error
	m.poolConnections, errs[0] = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}")
	m.poolConnectionsMax, errs[1] = NewGauge(meter, "db_pool_connections_max", "Maximum open connections", "{connection}")
	m.queryTotal, errs[2] = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}")
	m.queryDuration, errs[3] = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	m.slowQueryTotal, errs[4] = NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold by table", "{query}")
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// StartPoolStatsCollection samples sqlDB.Stats until ctx ends or Stop is called.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	m.sqlDB = sqlDB
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery records one statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

type metricsStartKey struct{}

// DBMetricsPlugin is a gorm.Plugin feeding DBMetrics.
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates a plugin for metrics
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string { return "medcare:db_metrics" }

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("db_metrics:before_create", p.start),
		cb.Query().Before("gorm:query").Register("db_metrics:before_query", p.start),
		cb.Update().Before("gorm:update").Register("db_metrics:before_update", p.start),
		cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", p.start),
		cb.Row().Before("gorm:row").Register("db_metrics:before_row", p.start),
		cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", p.start),
		cb.Create().After("gorm:create").Register("db_metrics:after_create", p.finish("INSERT")),
		cb.Query().After("gorm:query").Register("db_metrics:after_query", p.finish("SELECT")),
		cb.Update().After("gorm:update").Register("db_metrics:after_update", p.finish("UPDATE")),
		cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", p.finish("DELETE")),
		cb.Row().After("gorm:row").Register("db_metrics:after_row", p.finish("")),
		cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", p.finish("")),
	)
}

func (p *DBMetricsPlugin) start(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, metricsStartKey{}, time.Now())
}

// finish records the statement. An empty operation is detected from the SQL.
func (p *DBMetricsPlugin) finish(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(metricsStartKey{}).(time.Time)
		if !ok {
			return
		}
		op := operation
		if op == "" {
			op = detectOperationType(db.Statement.SQL.String())
		}
		p.metrics.RecordQuery(ctx, op, db.Statement.Table, time.Since(start))
	}
}

func detectOperationType(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"} {
		if strings.HasPrefix(stmt, op) {
			if op == "WITH" {
				return "SELECT"
			}
			return op
		}
	}
	return "OTHER"
}
