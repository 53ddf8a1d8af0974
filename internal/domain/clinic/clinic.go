// Package clinic holds the practice records whose creation is metered by
// plan limits: appointments, doctors and patients.
package clinic

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/shared"
)

// Clinic errors
var (
	ErrInvalidName     = shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	ErrInvalidSchedule = shared.NewDomainError("INVALID_SCHEDULE", "Appointment time is required")
	ErrMissingPractice = shared.NewDomainError("MISSING_PRACTICE", "A doctor or hospital is required")
)

// Hospital is a practice owned by a hospital administrator.
type Hospital struct {
	shared.BaseEntity
	OwnerUserID uuid.UUID
	Name        string
}

// Doctor is a physician profile. HospitalID is nil for independent doctors.
type Doctor struct {
	shared.BaseEntity
	UserID        *uuid.UUID
	HospitalID    *uuid.UUID
	FullName      string
	Specialty     string
	IsIndependent bool
}

// NewRosterDoctor creates a doctor employed by a hospital.
func NewRosterDoctor(hospitalID uuid.UUID, fullName, specialty string) (*Doctor, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrInvalidName
	}
	if hospitalID == uuid.Nil {
		return nil, ErrMissingPractice
	}
	return &Doctor{
		BaseEntity: shared.NewBaseEntity(),
		HospitalID: &hospitalID,
		FullName:   fullName,
		Specialty:  strings.TrimSpace(specialty),
	}, nil
}

// Patient is a person registered by a practice.
type Patient struct {
	shared.BaseEntity
	FullName       string
	DocumentNumber string
	Email          string
	Phone          string
	// Registering practice. Exactly one of the two is set.
	DoctorID   *uuid.UUID
	HospitalID *uuid.UUID
}

// NewPatient registers a patient under a doctor or a hospital.
func NewPatient(fullName, documentNumber string, doctorID, hospitalID *uuid.UUID) (*Patient, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrInvalidName
	}
	if (doctorID == nil) == (hospitalID == nil) {
		return nil, ErrMissingPractice
	}
	return &Patient{
		BaseEntity:     shared.NewBaseEntity(),
		FullName:       fullName,
		DocumentNumber: strings.TrimSpace(documentNumber),
		DoctorID:       doctorID,
		HospitalID:     hospitalID,
	}, nil
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment books a patient with a doctor. HospitalID is set when the
// appointment is booked through a hospital.
type Appointment struct {
	shared.BaseEntity
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	HospitalID  *uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus
	Notes       string
}

// NewAppointment creates a scheduled appointment. ScheduledAt is stored in UTC.
func NewAppointment(doctorID, patientID uuid.UUID, hospitalID *uuid.UUID, scheduledAt time.Time, notes string) (*Appointment, error) {
	if doctorID == uuid.Nil || patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APPOINTMENT", "Doctor and patient are required")
	}
	if scheduledAt.IsZero() {
		return nil, ErrInvalidSchedule
	}
	return &Appointment{
		BaseEntity:  shared.NewBaseEntity(),
		DoctorID:    doctorID,
		PatientID:   patientID,
		HospitalID:  hospitalID,
		ScheduledAt: scheduledAt.UTC(),
		Status:      AppointmentScheduled,
		Notes:       notes,
	}, nil
}
