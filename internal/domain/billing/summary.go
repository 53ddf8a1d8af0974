package billing

// LimitSummary is the resolved entitlement of one scope: plan, status,
// limits, usage and which limits are exhausted.
type LimitSummary struct {
	Scope       Scope               `json:"scope"`
	Plan        PlanCode            `json:"plan"`
	Status      SubscriptionStatus  `json:"status"`
	Period      Period              `json:"period"`
	Limits      map[LimitKey]*int64 `json:"limits"`
	Usage       map[LimitKey]int64  `json:"usage"`
	Exceeded    map[LimitKey]bool   `json:"exceeded"`
	AnyExceeded bool                `json:"anyExceeded"`
	PlanMissing bool                `json:"planMissing,omitempty"`
}

// ApplicableLimitKeys returns the limit keys that are metered for a scope kind.
func ApplicableLimitKeys(kind ScopeKind) []LimitKey {
	if kind == ScopeKindHospital {
		return AllLimitKeys
	}
	return []LimitKey{LimitAppointmentsPerMonth, LimitPatients, LimitStorageGB}
}

// ComputeSummary combines a subscription, its plan and current usage.
// A nil plan is treated as unlimited on every key and flagged PlanMissing.
func ComputeSummary(sub *Subscription, plan *PlanConfig, usage *UsageSnapshot) *LimitSummary {
	s := &LimitSummary{
		Scope:    sub.Scope,
		Plan:     sub.PlanCode,
		Status:   sub.Status,
		Limits:   make(map[LimitKey]*int64),
		Usage:    make(map[LimitKey]int64),
		Exceeded: make(map[LimitKey]bool),
	}
	if usage != nil {
		s.Period = usage.Period
	}

	var limits PlanLimits
	if plan == nil {
		s.PlanMissing = true
	} else {
		limits = plan.Limits
	}

	for _, key := range ApplicableLimitKeys(sub.Scope.Kind) {
		limit := limits.Get(key)
		used := usage.Get(key)
		exceeded := limit != nil && used >= *limit

		s.Limits[key] = limit
		s.Usage[key] = used
		s.Exceeded[key] = exceeded
		if exceeded {
			s.AnyExceeded = true
		}
	}
	return s
}

// Remaining returns limit-usage for key. The second result is true when the
// key is unlimited, in which case the first result is meaningless.
func (s *LimitSummary) Remaining(key LimitKey) (int64, bool) {
	limit, ok := s.Limits[key]
	if !ok || limit == nil {
		return 0, true
	}
	rem := *limit - s.Usage[key]
	if rem < 0 {
		rem = 0
	}
	return rem, false
}
