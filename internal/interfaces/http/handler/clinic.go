package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appclinic "github.com/medcare/backend/internal/application/clinic"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/clinic"
)

// ClinicWriter creates the practice records that plan limits meter.
type ClinicWriter interface {
	CreateAppointment(ctx context.Context, p *billing.Principal, in appclinic.CreateAppointmentInput) (*clinic.Appointment, error)
	CreateDoctor(ctx context.Context, p *billing.Principal, in appclinic.CreateDoctorInput) (*clinic.Doctor, error)
	CreatePatient(ctx context.Context, p *billing.Principal, in appclinic.CreatePatientInput) (*clinic.Patient, error)
}

// ClinicHandler serves the gated practice writes.
type ClinicHandler struct {
	BaseHandler
	writer ClinicWriter
}

// NewClinicHandler creates a new ClinicHandler
func NewClinicHandler(writer ClinicWriter) *ClinicHandler {
	return &ClinicHandler{writer: writer}
}

// CreateAppointmentRequest books an appointment. DoctorID is required for
// hospital administrators.
type CreateAppointmentRequest struct {
	DoctorID    *uuid.UUID `json:"doctorId"`
	PatientID   uuid.UUID  `json:"patientId" binding:"required"`
	ScheduledAt time.Time  `json:"scheduledAt" binding:"required"`
	Notes       string     `json:"notes" binding:"max=2000"`
}

// CreateDoctorRequest adds a doctor to the caller's hospital.
type CreateDoctorRequest struct {
	FullName  string `json:"fullName" binding:"required,min=2,max=200"`
	Specialty string `json:"specialty" binding:"max=100"`
}

// CreatePatientRequest registers a patient with the caller's practice.
type CreatePatientRequest struct {
	FullName       string `json:"fullName" binding:"required,min=2,max=200"`
	DocumentNumber string `json:"documentNumber" binding:"max=50"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone" binding:"max=30"`
}

// AppointmentResponse is a booked appointment.
type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	DoctorID    uuid.UUID  `json:"doctorId"`
	PatientID   uuid.UUID  `json:"patientId"`
	HospitalID  *uuid.UUID `json:"hospitalId,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Status      string     `json:"status"`
}

// DoctorResponse is a roster doctor.
type DoctorResponse struct {
	ID         uuid.UUID  `json:"id"`
	HospitalID *uuid.UUID `json:"hospitalId,omitempty"`
	FullName   string     `json:"fullName"`
	Specialty  string     `json:"specialty,omitempty"`
}

// PatientResponse is a registered patient.
type PatientResponse struct {
	ID         uuid.UUID  `json:"id"`
	FullName   string     `json:"fullName"`
	DoctorID   *uuid.UUID `json:"doctorId,omitempty"`
	HospitalID *uuid.UUID `json:"hospitalId,omitempty"`
}

// CreateAppointment godoc
// @ID           createAppointment
// @Summary      Book an appointment
// @Description  Rejected with 429 ERR_LIMIT_EXCEEDED when the monthly appointment limit is reached
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Param        request body CreateAppointmentRequest true "Appointment"
// @Success      201 {object} APIResponse[AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments [post]
func (h *ClinicHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.writer.CreateAppointment(c.Request.Context(), principal(c), appclinic.CreateAppointmentInput{
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		HospitalID:  a.HospitalID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
	})
}

// CreateDoctor godoc
// @ID           createDoctor
// @Summary      Add a doctor to the hospital roster
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Param        request body CreateDoctorRequest true "Doctor"
// @Success      201 {object} APIResponse[DoctorResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /doctors [post]
func (h *ClinicHandler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.writer.CreateDoctor(c.Request.Context(), principal(c), appclinic.CreateDoctorInput{
		FullName:  req.FullName,
		Specialty: req.Specialty,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, DoctorResponse{ID: d.ID, HospitalID: d.HospitalID, FullName: d.FullName, Specialty: d.Specialty})
}

// CreatePatient godoc
// @ID           createPatient
// @Summary      Register a patient
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Param        request body CreatePatientRequest true "Patient"
// @Success      201 {object} APIResponse[PatientResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients [post]
func (h *ClinicHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.writer.CreatePatient(c.Request.Context(), principal(c), appclinic.CreatePatientInput{
		FullName:       req.FullName,
		DocumentNumber: req.DocumentNumber,
		Email:          req.Email,
		Phone:          req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, PatientResponse{ID: p.ID, FullName: p.FullName, DoctorID: p.DoctorID, HospitalID: p.HospitalID})
}
