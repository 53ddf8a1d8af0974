package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_Recorders(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: meter})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	bm.RecordGateDecision(ctx, "LIMIT", telemetry.GateOutcomeDenied, "LIMIT")
	bm.RecordGateDecision(ctx, "ALWAYS", telemetry.GateOutcomeAllowed, "")
	bm.RecordLimitExceeded(ctx, "HOSPITAL", "appointmentsPerMonth")
	bm.RecordCatalogRowsCreated(ctx, "plans", 3)
	bm.RecordCatalogRowsCreated(ctx, "prices", 0)
	bm.RecordRevenueReport(ctx, 120*time.Millisecond)
	bm.RecordActiveSubscribers(ctx, telemetry.SubscriberGauge{Plan: "STANDARD", SubscriberType: "DOCTOR", Currency: "COP", Count: 4})
}

type mockSubscriberProvider struct {
	calls  atomic.Int32
	gauges []telemetry.SubscriberGauge
	err    error
}

func (m *mockSubscriberProvider) GetActiveSubscriberCounts(ctx context.Context) ([]telemetry.SubscriberGauge, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.gauges, nil
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &mockSubscriberProvider{
		gauges: []telemetry.SubscriberGauge{{Plan: "FREE", SubscriberType: "HOSPITAL", Currency: "COP", Count: 12}},
	}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:              meter,
		Logger:             zap.NewNop(),
		SubscriberProvider: provider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return provider.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollection_ProviderError(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &mockSubscriberProvider{err: errors.New("db down")}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:              meter,
		SubscriberProvider: provider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	bm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Should not panic with no subscriber provider
	bm.StartPeriodicCollection(ctx, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	bm.Stop()
}

func TestBusinessMetrics_Stop_Idempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	bm.Stop()
	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_StartPeriodicCollection_OnlyOnce(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &mockSubscriberProvider{}
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:              meter,
		SubscriberProvider: provider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, time.Hour)
	bm.StartPeriodicCollection(ctx, time.Hour)
	bm.StartPeriodicCollection(ctx, time.Hour)

	// Only the first call starts a loop, which collects once immediately.
	assert.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), provider.calls.Load())
	bm.Stop()
}

func TestMetricsError_Error(t *testing.T) {
	err := &telemetry.MetricsError{
		Op:  "TestOperation",
		Err: "test error message",
	}

	assert.Equal(t, "TestOperation: test error message", err.Error())
}
