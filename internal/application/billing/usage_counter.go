package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// UsageCounter derives usage snapshots from collaborator records.
// Snapshots are computed on every call and never cached.
type UsageCounter struct {
	reader billing.UsageReader
	logger *zap.Logger
	now    func() time.Time
}

// NewUsageCounter creates a new UsageCounter
func NewUsageCounter(reader billing.UsageReader, logger *zap.Logger) *UsageCounter {
	return &UsageCounter{reader: reader, logger: logger, now: time.Now}
}

// Count returns the usage of scope in the calendar month containing at.
// A zero at means now.
func (c *UsageCounter) Count(ctx context.Context, scope billing.Scope, at time.Time) (*billing.UsageSnapshot, error) {
	if at.IsZero() {
		at = c.now()
	}
	period := billing.MonthPeriod(at)

	appointments, patients, err := c.reader.CountAppointments(ctx, scope, period)
	if err != nil {
		return nil, fmt.Errorf("count appointments for %s: %w", scope, err)
	}

	snap := &billing.UsageSnapshot{
		Scope:                 scope,
		Period:                period,
		AppointmentsCount:     appointments,
		DistinctPatientsCount: patients,
	}

	if scope.Kind == billing.ScopeKindHospital {
		doctors, err := c.reader.CountRosterDoctors(ctx, scope.ID)
		if err != nil {
			return nil, fmt.Errorf("count roster for %s: %w", scope, err)
		}
		snap.DoctorsCount = doctors
	}

	c.logger.Debug("Usage counted",
		zap.String("scope", scope.String()),
		zap.Time("period_start", period.Start),
		zap.Int64("appointments", snap.AppointmentsCount),
		zap.Int64("patients", snap.DistinctPatientsCount),
		zap.Int64("doctors", snap.DoctorsCount))

	return snap, nil
}
