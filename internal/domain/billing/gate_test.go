package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func summaryFor(status SubscriptionStatus, limits PlanLimits, usage UsageSnapshot) *LimitSummary {
	scope := HospitalScope(uuid.New())
	sub := &Subscription{ID: uuid.New(), Scope: scope, PlanCode: PlanStandard, Status: status}
	usage.Scope = scope
	return ComputeSummary(sub, planWith(limits), &usage)
}

func TestEvaluate_LimitRule(t *testing.T) {
	limits := PlanLimits{MaxAppointments: LimitOf(20)}
	rule := LimitRule(LimitAppointmentsPerMonth, 1)

	t.Run("denied at the limit", func(t *testing.T) {
		d := Evaluate(rule, summaryFor(StatusActive, limits, UsageSnapshot{AppointmentsCount: 20}), Remediation{})
		assert.False(t, d.Allowed)
		assert.Equal(t, DenialLimit, d.Denial)
		assert.Equal(t, LimitAppointmentsPerMonth, d.Key)
		assert.Contains(t, d.Reason, "20 of 20")
		assert.Equal(t, DefaultRemediation, d.Remediation)
	})

	t.Run("allowed one below the limit", func(t *testing.T) {
		d := Evaluate(rule, summaryFor(StatusActive, limits, UsageSnapshot{AppointmentsCount: 19}), Remediation{})
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	})

	t.Run("delta larger than remaining capacity", func(t *testing.T) {
		d := Evaluate(LimitRule(LimitAppointmentsPerMonth, 5),
			summaryFor(StatusActive, limits, UsageSnapshot{AppointmentsCount: 16}), Remediation{})
		assert.False(t, d.Allowed)
	})

	t.Run("unlimited key always fits", func(t *testing.T) {
		d := Evaluate(LimitRule(LimitPatients, 1000),
			summaryFor(StatusTrial, limits, UsageSnapshot{DistinctPatientsCount: 1 << 40}), Remediation{})
		assert.True(t, d.Allowed)
	})
}

func TestEvaluate_StatusRule(t *testing.T) {
	rule := StatusRule(StatusActive, StatusTrial)

	t.Run("trial allowed", func(t *testing.T) {
		d := Evaluate(rule, summaryFor(StatusTrial, PlanLimits{}, UsageSnapshot{}), Remediation{})
		assert.True(t, d.Allowed)
	})

	t.Run("pending denied with status reason", func(t *testing.T) {
		d := Evaluate(rule, summaryFor(StatusPending, PlanLimits{}, UsageSnapshot{}), Remediation{})
		assert.False(t, d.Allowed)
		assert.Equal(t, DenialStatus, d.Denial)
		assert.Contains(t, d.Reason, "ACTIVE or TRIAL")
	})
}

func TestEvaluate_HardBlock(t *testing.T) {
	rules := map[string]GateRule{
		"status": StatusRule(StatusExpired, StatusInactive, StatusActive),
		"limit":  LimitRule(LimitAppointmentsPerMonth, 1),
		"always": AlwaysRule(),
	}

	for _, status := range []SubscriptionStatus{StatusExpired, StatusInactive} {
		for name, rule := range rules {
			t.Run(string(status)+"/"+name, func(t *testing.T) {
				// Zero usage and an exhausted limit both lose to the status reason.
				s := summaryFor(status, PlanLimits{MaxAppointments: LimitOf(0)}, UsageSnapshot{})
				d := Evaluate(rule, s, Remediation{})
				assert.False(t, d.Allowed)
				assert.Equal(t, DenialHardBlock, d.Denial)
				assert.Empty(t, d.Key)
			})
		}
	}

	t.Run("expired and inactive reasons differ", func(t *testing.T) {
		expired := Evaluate(AlwaysRule(), summaryFor(StatusExpired, PlanLimits{}, UsageSnapshot{}), Remediation{})
		inactive := Evaluate(AlwaysRule(), summaryFor(StatusInactive, PlanLimits{}, UsageSnapshot{}), Remediation{})
		assert.Contains(t, expired.Reason, "expired")
		assert.NotEqual(t, expired.Reason, inactive.Reason)
	})
}

func TestEvaluate_DefaultSubscriptionDeniesEverything(t *testing.T) {
	scope := HospitalScope(uuid.New())
	s := ComputeSummary(DefaultSubscription(scope), planWith(PlanLimits{}), &UsageSnapshot{Scope: scope})

	for _, rule := range []GateRule{AlwaysRule(), StatusRule(StatusInactive), LimitRule(LimitPatients, 1)} {
		assert.False(t, Evaluate(rule, s, Remediation{}).Allowed, rule.Type)
	}
}

func TestEvaluate_CustomRemediation(t *testing.T) {
	custom := Remediation{Href: "/billing/plans", Label: "Upgrade"}
	d := Evaluate(AlwaysRule(), summaryFor(StatusActive, PlanLimits{}, UsageSnapshot{}), custom)
	assert.True(t, d.Allowed)
	assert.Equal(t, custom, d.Remediation)
}

func TestGateRuleValidate(t *testing.T) {
	assert.NoError(t, AlwaysRule().Validate())
	assert.NoError(t, LimitRule(LimitPatients, 0).Validate())
	assert.ErrorIs(t, GateRule{Type: RuleStatus}.Validate(), ErrInvalidRule)
	assert.ErrorIs(t, GateRule{Type: RuleLimit, Key: "beds"}.Validate(), ErrInvalidRule)
	assert.ErrorIs(t, GateRule{Type: "SOMETIMES"}.Validate(), ErrInvalidRule)
}

func TestRuleForAction(t *testing.T) {
	rule, ok := RuleForAction(ActionCreateAppointment)
	assert.True(t, ok)
	assert.Equal(t, RuleLimit, rule.Type)
	assert.Equal(t, LimitAppointmentsPerMonth, rule.Key)

	_, ok = RuleForAction("beds.create")
	assert.False(t, ok)
}
