package billing

import "time"

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthPeriod returns the UTC calendar month containing at.
func MonthPeriod(at time.Time) Period {
	at = at.UTC()
	start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether t lies in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// UsageSnapshot is the resource usage of one scope in one period.
type UsageSnapshot struct {
	Scope                 Scope  `json:"scope"`
	Period                Period `json:"period"`
	AppointmentsCount     int64  `json:"appointmentsCount"`
	DistinctPatientsCount int64  `json:"distinctPatientsCount"`
	DoctorsCount          int64  `json:"doctorsCount"`
}

// Get returns the usage that is compared against the given limit key.
func (u *UsageSnapshot) Get(key LimitKey) int64 {
	if u == nil {
		return 0
	}
	var v int64
	switch key {
	case LimitAppointmentsPerMonth:
		v = u.AppointmentsCount
	case LimitPatients:
		v = u.DistinctPatientsCount
	case LimitDoctorsPerHospital:
		v = u.DoctorsCount
	}
	if v < 0 {
		return 0
	}
	return v
}
