package billing

import (
	"github.com/google/uuid"
)

// ScopeKind identifies what a billing scope is keyed on.
type ScopeKind string

const (
	ScopeKindDoctor   ScopeKind = "DOCTOR"
	ScopeKindHospital ScopeKind = "HOSPITAL"
)

// IsValid returns true if the scope kind is valid
func (k ScopeKind) IsValid() bool {
	return k == ScopeKindDoctor || k == ScopeKindHospital
}

// Scope is the billing unit that limits and usage are evaluated against.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// DoctorScope returns the scope of an independent doctor.
func DoctorScope(doctorID uuid.UUID) Scope {
	return Scope{Kind: ScopeKindDoctor, ID: doctorID}
}

// HospitalScope returns the scope of a hospital.
func HospitalScope(hospitalID uuid.UUID) Scope {
	return Scope{Kind: ScopeKindHospital, ID: hospitalID}
}

// String formats the scope as KIND:id
func (s Scope) String() string {
	return string(s.Kind) + ":" + s.ID.String()
}

// SubscriberType maps the scope onto the price dimension of the catalog.
func (s Scope) SubscriberType() SubscriberType {
	if s.Kind == ScopeKindHospital {
		return SubscriberTypeHospital
	}
	return SubscriberTypeDoctor
}

// Resolution is the outcome of mapping a principal to a billing scope.
// When Applicable is false the principal has no billing model and callers
// must not gate its actions.
type Resolution struct {
	Scope      Scope
	Applicable bool
	Reason     string
}

// ResolveScope maps a principal to its billing scope.
//
// A nil principal yields ErrUnauthenticated. Roles without a billing model
// (patients, platform admins, hospital-employed doctors) resolve to a
// non-applicable Resolution rather than an error.
func ResolveScope(p *Principal) (Resolution, error) {
	if p == nil {
		return Resolution{}, ErrUnauthenticated
	}

	switch p.Role {
	case RoleIndependentDoctor:
		if p.Doctor != nil && p.Doctor.IsIndependent && p.Doctor.ID != uuid.Nil {
			return Resolution{Scope: DoctorScope(p.Doctor.ID), Applicable: true}, nil
		}
		return Resolution{Reason: "doctor is not registered as independent"}, nil
	case RoleHospitalAdmin:
		if p.Hospital != nil && p.Hospital.ID != uuid.Nil && p.Hospital.OwnerUserID == p.UserID {
			return Resolution{Scope: HospitalScope(p.Hospital.ID), Applicable: true}, nil
		}
		return Resolution{Reason: "hospital admin does not own a hospital"}, nil
	case RoleDoctor:
		// Usage of employed doctors rolls up to their hospital's scope only.
		return Resolution{Reason: "hospital-employed doctors are billed through their hospital"}, nil
	default:
		return Resolution{Reason: "role has no billing model"}, nil
	}
}
