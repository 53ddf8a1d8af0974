package billing

import (
	"fmt"
	"strings"
)

// RuleType selects how a gate rule is evaluated.
type RuleType string

const (
	RuleStatus RuleType = "STATUS"
	RuleLimit  RuleType = "LIMIT"
	RuleAlways RuleType = "ALWAYS"
)

// GateRule describes what an action requires from the current entitlement.
type GateRule struct {
	Type            RuleType             `json:"type"`
	AllowedStatuses []SubscriptionStatus `json:"allowedStatuses,omitempty"`
	Key             LimitKey             `json:"key,omitempty"`
	Delta           int64                `json:"delta,omitempty"`
}

// StatusRule permits the action only in the given statuses.
func StatusRule(allowed ...SubscriptionStatus) GateRule {
	return GateRule{Type: RuleStatus, AllowedStatuses: allowed}
}

// LimitRule permits the action only if delta more units fit under the key's limit.
func LimitRule(key LimitKey, delta int64) GateRule {
	if delta <= 0 {
		delta = 1
	}
	return GateRule{Type: RuleLimit, Key: key, Delta: delta}
}

// AlwaysRule permits the action unless the subscription is hard-blocked.
func AlwaysRule() GateRule {
	return GateRule{Type: RuleAlways}
}

// Validate checks the rule is well-formed.
func (r GateRule) Validate() error {
	switch r.Type {
	case RuleStatus:
		if len(r.AllowedStatuses) == 0 {
			return ErrInvalidRule
		}
		for _, s := range r.AllowedStatuses {
			if !s.IsValid() {
				return ErrInvalidRule
			}
		}
	case RuleLimit:
		if !r.Key.IsValid() || r.Delta < 0 {
			return ErrInvalidRule
		}
	case RuleAlways:
	default:
		return ErrInvalidRule
	}
	return nil
}

func (r GateRule) delta() int64 {
	if r.Delta <= 0 {
		return 1
	}
	return r.Delta
}

// DenialKind classifies why a gate denied an action.
type DenialKind string

const (
	DenialHardBlock DenialKind = "HARD_BLOCK"
	DenialStatus    DenialKind = "STATUS"
	DenialLimit     DenialKind = "LIMIT"
)

// Remediation points the user at the place that can lift a denial.
type Remediation struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

// DefaultRemediation is the subscription management page.
var DefaultRemediation = Remediation{Href: "/subscription", Label: "Manage subscription"}

// GateDecision is the allow/deny outcome of a rule.
type GateDecision struct {
	Allowed     bool        `json:"allowed"`
	Reason      string      `json:"reason,omitempty"`
	Denial      DenialKind  `json:"denial,omitempty"`
	Key         LimitKey    `json:"key,omitempty"`
	Remediation Remediation `json:"remediation"`
}

// Evaluate applies rule to summary. Denial is a normal result, never an error.
// Hard-blocked statuses deny every rule type and take precedence over limit reasons.
// A zero remediation is replaced with DefaultRemediation.
func Evaluate(rule GateRule, summary *LimitSummary, remediation Remediation) GateDecision {
	if remediation.Href == "" {
		remediation = DefaultRemediation
	}
	allow := GateDecision{Allowed: true, Remediation: remediation}

	if summary.Status.IsHardBlocked() {
		return GateDecision{
			Denial:      DenialHardBlock,
			Reason:      hardBlockReason(summary.Status),
			Remediation: remediation,
		}
	}

	switch rule.Type {
	case RuleStatus:
		for _, s := range rule.AllowedStatuses {
			if s == summary.Status {
				return allow
			}
		}
		return GateDecision{
			Denial: DenialStatus,
			Reason: fmt.Sprintf("This action requires a subscription that is %s; yours is %s.",
				joinStatuses(rule.AllowedStatuses), summary.Status),
			Remediation: remediation,
		}
	case RuleLimit:
		remaining, unlimited := summary.Remaining(rule.Key)
		if unlimited || remaining >= rule.delta() {
			return allow
		}
		limit := *summary.Limits[rule.Key]
		return GateDecision{
			Denial: DenialLimit,
			Key:    rule.Key,
			Reason: fmt.Sprintf("You have reached your plan limit for %s (%d of %d used).",
				rule.Key.DisplayName(), summary.Usage[rule.Key], limit),
			Remediation: remediation,
		}
	default:
		return allow
	}
}

func hardBlockReason(status SubscriptionStatus) string {
	if status == StatusExpired {
		return "Your subscription has expired. Renew it to continue."
	}
	return "Your subscription is not active. Choose a plan to continue."
}

func joinStatuses(statuses []SubscriptionStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, " or ")
}

// Action names a user-initiated operation guarded by a gate rule. The same
// names are used by UI controls and by server-side enforcement.
type Action string

const (
	ActionCreateAppointment  Action = "appointment.create"
	ActionCreatePatient      Action = "patient.create"
	ActionCreateDoctor       Action = "doctor.create"
	ActionManageSubscription Action = "subscription.manage"
	ActionExportReports      Action = "reports.export"
)

var actionRules = map[Action]GateRule{
	ActionCreateAppointment:  LimitRule(LimitAppointmentsPerMonth, 1),
	ActionCreatePatient:      LimitRule(LimitPatients, 1),
	ActionCreateDoctor:       LimitRule(LimitDoctorsPerHospital, 1),
	ActionManageSubscription: AlwaysRule(),
	ActionExportReports:      StatusRule(StatusActive, StatusTrial),
}

// RuleForAction returns the rule guarding a named action.
func RuleForAction(a Action) (GateRule, bool) {
	r, ok := actionRules[a]
	return r, ok
}
