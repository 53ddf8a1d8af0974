package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewDBMetrics_NilMeter(t *testing.T) {
	m, err := NewDBMetrics(nil, DefaultDBMetricsConfig(), zap.NewNop())
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestNewDBMetrics_FillsDefaults(t *testing.T) {
	meter, _ := manualMeter(t)
	m, err := NewDBMetrics(meter, DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	meter, reader := manualMeter(t)
	m, err := NewDBMetrics(meter, DBMetricsConfig{SlowQueryThreshold: 100 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQuery(ctx, "select", "plans", 10*time.Millisecond)
	m.RecordQuery(ctx, "", "", 300*time.Millisecond)

	got := collect(t, reader)

	total := got["db_query_total"].Data.(metricdata.Sum[int64])
	byOp := map[string]int64{}
	for _, dp := range total.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		byOp[op.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"SELECT": 1, "OTHER": 1}, byOp)

	slow := got["db_slow_query_total"].Data.(metricdata.Sum[int64])
	require.Len(t, slow.DataPoints, 1)
	table, _ := slow.DataPoints[0].Attributes.Value(AttrDBTable)
	assert.Equal(t, "unknown", table.AsString())
}

func TestDBMetrics_PoolStats(t *testing.T) {
	meter, reader := manualMeter(t)
	m, err := NewDBMetrics(meter, DBMetricsConfig{PoolStatsInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	db := openSQLite(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)

	m.StartPoolStatsCollection(context.Background(), sqlDB)
	require.Eventually(t, func() bool {
		_, ok := collect(t, reader)["db_pool_connections_max"]
		return ok
	}, time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()

	maxConns := collect(t, reader)["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	assert.Equal(t, int64(4), maxConns.DataPoints[0].Value)
}

func TestDBMetricsPlugin_RecordsStatements(t *testing.T) {
	meter, reader := manualMeter(t)
	m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	db := openSQLite(t)
	require.NoError(t, db.Use(NewDBMetricsPlugin(m)))
	require.NoError(t, db.Create(&tracedRow{Code: "CLINIC_BASIC"}).Error)
	var n int64
	require.NoError(t, db.Model(&tracedRow{}).Count(&n).Error)

	total := collect(t, reader)["db_query_total"].Data.(metricdata.Sum[int64])
	seen := map[string]bool{}
	for _, dp := range total.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		seen[op.AsString()] = true
	}
	assert.True(t, seen["INSERT"])
	assert.True(t, seen["SELECT"])
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"  select * from plans":                 "SELECT",
		"WITH w AS (SELECT 1) SELECT * FROM w":  "SELECT",
		"insert into plans values (1)":          "INSERT",
		"UPDATE subscriptions SET status = 'X'": "UPDATE",
		"delete from plan_prices":               "DELETE",
		"CREATE INDEX idx ON plans (code)":      "OTHER",
	}
	for stmt, want := range tests {
		assert.Equal(t, want, detectOperationType(stmt), stmt)
	}
}
