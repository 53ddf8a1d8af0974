package billing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of platform roles.
type Role string

const (
	RolePatient           Role = "PATIENT"
	RoleDoctor            Role = "DOCTOR" // employed by a hospital
	RoleIndependentDoctor Role = "INDEPENDENT_DOCTOR"
	RoleHospitalAdmin     Role = "HOSPITAL_ADMIN"
	RolePlatformAdmin     Role = "PLATFORM_ADMIN"
)

// ParseRole converts a claim value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleIndependentDoctor, RoleHospitalAdmin, RolePlatformAdmin:
		return true
	}
	return false
}

// CanManagePlans reports whether the role may edit or bootstrap the plan catalog.
func (r Role) CanManagePlans() bool {
	return r == RolePlatformAdmin
}

// CanViewRevenue reports whether the role may read revenue reports.
func (r Role) CanViewRevenue() bool {
	return r == RolePlatformAdmin
}

// CanCreateAppointments reports whether the role may book appointments on behalf of a practice.
func (r Role) CanCreateAppointments() bool {
	switch r {
	case RoleIndependentDoctor, RoleHospitalAdmin, RoleDoctor:
		return true
	}
	return false
}

// CanManageDoctors reports whether the role may add doctors to a roster.
func (r Role) CanManageDoctors() bool {
	return r == RoleHospitalAdmin
}

// CanRegisterPatients reports whether the role may register patients.
func (r Role) CanRegisterPatients() bool {
	switch r {
	case RoleIndependentDoctor, RoleHospitalAdmin, RoleDoctor:
		return true
	}
	return false
}

// DoctorRecord is the doctor profile linked to a user account.
type DoctorRecord struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	HospitalID    *uuid.UUID
	IsIndependent bool
}

// HospitalRecord is a hospital owned by a user account.
type HospitalRecord struct {
	ID          uuid.UUID
	OwnerUserID uuid.UUID
	Name        string
}

// Principal is an authenticated caller together with the practice records it owns.
type Principal struct {
	Role     Role
	UserID   uuid.UUID
	Doctor   *DoctorRecord
	Hospital *HospitalRecord
}
