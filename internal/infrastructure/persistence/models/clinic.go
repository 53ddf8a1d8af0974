package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/clinic"
)

// HospitalModel maps a hospital owned by an administrator account.
type HospitalModel struct {
	BaseModel
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name        string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (HospitalModel) TableName() string {
	return "hospitals"
}

// ToDomain converts the model to a Hospital
func (m *HospitalModel) ToDomain() *clinic.Hospital {
	return &clinic.Hospital{BaseEntity: m.BaseModel.ToDomain(), OwnerUserID: m.OwnerUserID, Name: m.Name}
}

// ToRecord converts the model to the billing view of a hospital.
func (m *HospitalModel) ToRecord() *billing.HospitalRecord {
	return &billing.HospitalRecord{ID: m.ID, OwnerUserID: m.OwnerUserID, Name: m.Name}
}

// HospitalModelFromDomain creates a model from a hospital
func HospitalModelFromDomain(h *clinic.Hospital) *HospitalModel {
	m := &HospitalModel{OwnerUserID: h.OwnerUserID, Name: h.Name}
	m.FromDomainBaseEntity(h.BaseEntity)
	return m
}

// DoctorModel maps a doctor profile. HospitalID is null for independent doctors.
type DoctorModel struct {
	BaseModel
	UserID        *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	HospitalID    *uuid.UUID `gorm:"type:uuid;index"`
	FullName      string     `gorm:"type:varchar(200);not null"`
	Specialty     string     `gorm:"type:varchar(100)"`
	IsIndependent bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (DoctorModel) TableName() string {
	return "doctors"
}

// ToDomain converts the model to a Doctor
func (m *DoctorModel) ToDomain() *clinic.Doctor {
	return &clinic.Doctor{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		HospitalID:    m.HospitalID,
		FullName:      m.FullName,
		Specialty:     m.Specialty,
		IsIndependent: m.IsIndependent,
	}
}

// ToRecord converts the model to the billing view of a doctor.
func (m *DoctorModel) ToRecord() *billing.DoctorRecord {
	rec := &billing.DoctorRecord{ID: m.ID, HospitalID: m.HospitalID, IsIndependent: m.IsIndependent}
	if m.UserID != nil {
		rec.UserID = *m.UserID
	}
	return rec
}

// DoctorModelFromDomain creates a model from a doctor
func DoctorModelFromDomain(d *clinic.Doctor) *DoctorModel {
	m := &DoctorModel{
		UserID:        d.UserID,
		HospitalID:    d.HospitalID,
		FullName:      d.FullName,
		Specialty:     d.Specialty,
		IsIndependent: d.IsIndependent,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// PatientModel maps a patient registered by a doctor or a hospital.
type PatientModel struct {
	BaseModel
	FullName       string     `gorm:"type:varchar(200);not null"`
	DocumentNumber string     `gorm:"type:varchar(50)"`
	Email          string     `gorm:"type:varchar(200)"`
	Phone          string     `gorm:"type:varchar(50)"`
	DoctorID       *uuid.UUID `gorm:"type:uuid;index"`
	HospitalID     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PatientModel) TableName() string {
	return "patients"
}

// PatientModelFromDomain creates a model from a patient
func PatientModelFromDomain(p *clinic.Patient) *PatientModel {
	m := &PatientModel{
		FullName:       p.FullName,
		DocumentNumber: p.DocumentNumber,
		Email:          p.Email,
		Phone:          p.Phone,
		DoctorID:       p.DoctorID,
		HospitalID:     p.HospitalID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// AppointmentModel maps an appointment.
type AppointmentModel struct {
	BaseModel
	DoctorID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_appointments_doctor_time,priority:1"`
	PatientID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	HospitalID  *uuid.UUID `gorm:"type:uuid;index:idx_appointments_hospital_time,priority:1"`
	ScheduledAt time.Time  `gorm:"not null;index:idx_appointments_doctor_time,priority:2;index:idx_appointments_hospital_time,priority:2"`
	Status      string     `gorm:"type:varchar(20);not null;default:'SCHEDULED'"`
	Notes       string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AppointmentModel) TableName() string {
	return "appointments"
}

// AppointmentModelFromDomain creates a model from an appointment
func AppointmentModelFromDomain(a *clinic.Appointment) *AppointmentModel {
	m := &AppointmentModel{
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		HospitalID:  a.HospitalID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		Notes:       a.Notes,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// All returns every model, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&PlanConfigModel{},
		&PlanPriceModel{},
		&HospitalModel{},
		&DoctorModel{},
		&PatientModel{},
		&AppointmentModel{},
		&SubscriptionModel{},
		&PaymentModel{},
	}
}
