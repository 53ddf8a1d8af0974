// Package clinic creates the practice records that plan limits meter.
// Every write is re-checked against the caller's entitlement right before
// it reaches the repository.
package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/clinic"
	"github.com/medcare/backend/internal/domain/shared"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Errors returned when the caller has no practice to write into.
var (
	ErrNoPractice       = shared.NewDomainError("FORBIDDEN", "No practice is linked to this account")
	ErrForeignDoctor    = shared.NewDomainError("FORBIDDEN", "Doctor does not belong to your hospital")
	ErrDoctorRequired   = shared.NewDomainError("INVALID_INPUT", "doctorId is required when booking for a hospital")
	ErrRoleNotPermitted = shared.NewDomainError("FORBIDDEN", "Your role cannot perform this action")
)

// Gate enforces entitlement rules before protected writes.
type Gate interface {
	EnforceAction(ctx context.Context, p *billing.Principal, action billing.Action) error
	EnforceActionForScope(ctx context.Context, scope billing.Scope, action billing.Action) error
}

// CreateAppointmentInput books an appointment. DoctorID is required for
// hospital administrators and ignored for doctors booking for themselves.
type CreateAppointmentInput struct {
	DoctorID    *uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// CreateDoctorInput adds a doctor to a hospital roster.
type CreateDoctorInput struct {
	FullName  string
	Specialty string
}

// CreatePatientInput registers a patient with the caller's practice.
type CreatePatientInput struct {
	FullName       string
	DocumentNumber string
	Email          string
	Phone          string
}

// Service writes appointments, doctors and patients behind the gate.
type Service struct {
	repo   clinic.Repository
	gate   Gate
	logger *zap.Logger
}

// NewService creates a new Service
func NewService(repo clinic.Repository, gate Gate, logger *zap.Logger) *Service {
	return &Service{repo: repo, gate: gate, logger: logger}
}

// CreateAppointment books an appointment for the caller's practice.
func (s *Service) CreateAppointment(ctx context.Context, p *billing.Principal, in CreateAppointmentInput) (*clinic.Appointment, error) {
	if p == nil {
		return nil, billing.ErrUnauthenticated
	}
	if !p.Role.CanCreateAppointments() {
		return nil, ErrRoleNotPermitted
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "clinic", "create_appointment",
		telemetry.WithAttribute("role", p.Role.String()))
	defer span.End()

	doctorID, hospitalID, err := s.bookingPractice(ctx, p, in.DoctorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	appt, err := clinic.NewAppointment(doctorID, in.PatientID, hospitalID, in.ScheduledAt, in.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.enforce(ctx, p, hospitalID, billing.ActionCreateAppointment); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAppointment(ctx, appt); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info("Appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("doctor_id", doctorID.String()))
	return appt, nil
}

// bookingPractice picks the doctor and hospital an appointment is booked under.
func (s *Service) bookingPractice(ctx context.Context, p *billing.Principal, requested *uuid.UUID) (uuid.UUID, *uuid.UUID, error) {
	switch p.Role {
	case billing.RoleHospitalAdmin:
		if p.Hospital == nil {
			return uuid.Nil, nil, ErrNoPractice
		}
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, nil, ErrDoctorRequired
		}
		doctor, err := s.repo.FindDoctor(ctx, *requested)
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, nil, ErrForeignDoctor
		}
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("load doctor: %w", err)
		}
		if doctor.HospitalID == nil || *doctor.HospitalID != p.Hospital.ID {
			return uuid.Nil, nil, ErrForeignDoctor
		}
		hospitalID := p.Hospital.ID
		return doctor.ID, &hospitalID, nil
	default:
		if p.Doctor == nil {
			return uuid.Nil, nil, ErrNoPractice
		}
		return p.Doctor.ID, p.Doctor.HospitalID, nil
	}
}

// enforce gates a write. Employed doctors have no billing scope of their own,
// so their writes into a hospital practice are held to the hospital's plan.
func (s *Service) enforce(ctx context.Context, p *billing.Principal, hospitalID *uuid.UUID, action billing.Action) error {
	if p.Role == billing.RoleDoctor && hospitalID != nil {
		return s.gate.EnforceActionForScope(ctx, billing.HospitalScope(*hospitalID), action)
	}
	return s.gate.EnforceAction(ctx, p, action)
}

// CreateDoctor adds a doctor to the administrator's hospital roster.
func (s *Service) CreateDoctor(ctx context.Context, p *billing.Principal, in CreateDoctorInput) (*clinic.Doctor, error) {
	if p == nil {
		return nil, billing.ErrUnauthenticated
	}
	if !p.Role.CanManageDoctors() {
		return nil, ErrRoleNotPermitted
	}
	if p.Hospital == nil {
		return nil, ErrNoPractice
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "clinic", "create_doctor")
	defer span.End()

	doctor, err := clinic.NewRosterDoctor(p.Hospital.ID, in.FullName, in.Specialty)
	if err != nil {
		return nil, err
	}
	if err := s.gate.EnforceAction(ctx, p, billing.ActionCreateDoctor); err != nil {
		return nil, err
	}
	if err := s.repo.CreateDoctor(ctx, doctor); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.logger.Info("Doctor added to roster",
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("hospital_id", p.Hospital.ID.String()))
	return doctor, nil
}

// CreatePatient registers a patient. Independent doctors register under
// themselves; hospital staff register under the hospital.
func (s *Service) CreatePatient(ctx context.Context, p *billing.Principal, in CreatePatientInput) (*clinic.Patient, error) {
	if p == nil {
		return nil, billing.ErrUnauthenticated
	}
	if !p.Role.CanRegisterPatients() {
		return nil, ErrRoleNotPermitted
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "clinic", "create_patient")
	defer span.End()

	var doctorID, hospitalID *uuid.UUID
	switch {
	case p.Role == billing.RoleHospitalAdmin && p.Hospital != nil:
		id := p.Hospital.ID
		hospitalID = &id
	case p.Role == billing.RoleDoctor && p.Doctor != nil && p.Doctor.HospitalID != nil:
		id := *p.Doctor.HospitalID
		hospitalID = &id
	case p.Role == billing.RoleIndependentDoctor && p.Doctor != nil:
		id := p.Doctor.ID
		doctorID = &id
	default:
		return nil, ErrNoPractice
	}

	patient, err := clinic.NewPatient(in.FullName, in.DocumentNumber, doctorID, hospitalID)
	if err != nil {
		return nil, err
	}
	patient.Email = in.Email
	patient.Phone = in.Phone

	if err := s.enforce(ctx, p, hospitalID, billing.ActionCreatePatient); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePatient(ctx, patient); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}
