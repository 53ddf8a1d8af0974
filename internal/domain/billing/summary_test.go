package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planWith(limits PlanLimits) *PlanConfig {
	p, err := NewPlanConfig(PlanStandard, "Standard", "", limits)
	if err != nil {
		panic(err)
	}
	return p
}

func activeSub(scope Scope) *Subscription {
	return &Subscription{ID: uuid.New(), Scope: scope, PlanCode: PlanStandard, Status: StatusActive}
}

func TestComputeSummary(t *testing.T) {
	doctor := DoctorScope(uuid.New())
	hospital := HospitalScope(uuid.New())

	t.Run("nil limit is never exceeded", func(t *testing.T) {
		usage := &UsageSnapshot{Scope: doctor, AppointmentsCount: 1_000_000, DistinctPatientsCount: 5000}
		s := ComputeSummary(activeSub(doctor), planWith(PlanLimits{}), usage)

		for _, key := range ApplicableLimitKeys(doctor.Kind) {
			assert.Nil(t, s.Limits[key], key)
			assert.False(t, s.Exceeded[key], key)
		}
		assert.False(t, s.AnyExceeded)
	})

	t.Run("usage equal to limit is exceeded", func(t *testing.T) {
		plan := planWith(PlanLimits{MaxAppointments: LimitOf(20)})

		s := ComputeSummary(activeSub(doctor), plan, &UsageSnapshot{AppointmentsCount: 20})
		assert.True(t, s.Exceeded[LimitAppointmentsPerMonth])
		assert.True(t, s.AnyExceeded)

		s = ComputeSummary(activeSub(doctor), plan, &UsageSnapshot{AppointmentsCount: 19})
		assert.False(t, s.Exceeded[LimitAppointmentsPerMonth])
		assert.False(t, s.AnyExceeded)
	})

	t.Run("doctor scope omits roster key", func(t *testing.T) {
		plan := planWith(PlanLimits{MaxDoctorsPerHospital: LimitOf(0)})
		s := ComputeSummary(activeSub(doctor), plan, &UsageSnapshot{})
		_, present := s.Limits[LimitDoctorsPerHospital]
		assert.False(t, present)
		assert.False(t, s.AnyExceeded)
	})

	t.Run("hospital scope meters roster", func(t *testing.T) {
		plan := planWith(PlanLimits{MaxDoctorsPerHospital: LimitOf(3)})
		s := ComputeSummary(activeSub(hospital), plan, &UsageSnapshot{DoctorsCount: 3})
		assert.True(t, s.Exceeded[LimitDoctorsPerHospital])
		assert.Equal(t, int64(3), s.Usage[LimitDoctorsPerHospital])
	})

	t.Run("missing plan is unlimited and flagged", func(t *testing.T) {
		s := ComputeSummary(activeSub(hospital), nil, &UsageSnapshot{AppointmentsCount: 99})
		assert.True(t, s.PlanMissing)
		assert.False(t, s.AnyExceeded)
		rem, unlimited := s.Remaining(LimitAppointmentsPerMonth)
		assert.True(t, unlimited)
		assert.Zero(t, rem)
	})

	t.Run("negative usage is clamped", func(t *testing.T) {
		s := ComputeSummary(activeSub(doctor), planWith(PlanLimits{MaxPatients: LimitOf(1)}),
			&UsageSnapshot{DistinctPatientsCount: -4})
		assert.Equal(t, int64(0), s.Usage[LimitPatients])
		assert.False(t, s.Exceeded[LimitPatients])
	})

	t.Run("carries plan status and period", func(t *testing.T) {
		period := MonthPeriod(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
		sub := DefaultSubscription(hospital)
		s := ComputeSummary(sub, planWith(PlanLimits{}), &UsageSnapshot{Period: period})
		assert.Equal(t, PlanFree, s.Plan)
		assert.Equal(t, StatusInactive, s.Status)
		assert.Equal(t, period, s.Period)
	})
}

func TestLimitSummaryRemaining(t *testing.T) {
	s := ComputeSummary(activeSub(DoctorScope(uuid.New())),
		planWith(PlanLimits{MaxAppointments: LimitOf(10)}),
		&UsageSnapshot{AppointmentsCount: 12})

	rem, unlimited := s.Remaining(LimitAppointmentsPerMonth)
	require.False(t, unlimited)
	assert.Equal(t, int64(0), rem)
}

func TestMonthPeriod(t *testing.T) {
	t.Run("half-open calendar month", func(t *testing.T) {
		p := MonthPeriod(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), p.Start)
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), p.End)
		assert.True(t, p.Contains(p.Start))
		assert.False(t, p.Contains(p.End))
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		bogota := time.FixedZone("COT", -5*3600)
		// 2026-02-28 22:00 in Bogota is already March in UTC.
		p := MonthPeriod(time.Date(2026, 2, 28, 22, 0, 0, 0, bogota))
		assert.Equal(t, time.March, p.Start.Month())
	})
}
