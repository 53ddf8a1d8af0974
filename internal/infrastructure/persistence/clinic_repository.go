package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/clinic"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClinicRepository implements clinic.Repository.
type GormClinicRepository struct {
	db *gorm.DB
}

// NewGormClinicRepository creates a new clinic repository
func NewGormClinicRepository(db *gorm.DB) *GormClinicRepository {
	return &GormClinicRepository{db: db}
}

// CreateAppointment inserts an appointment
func (r *GormClinicRepository) CreateAppointment(ctx context.Context, a *clinic.Appointment) error {
	return r.db.WithContext(ctx).Create(models.AppointmentModelFromDomain(a)).Error
}

// CreateDoctor inserts a doctor
func (r *GormClinicRepository) CreateDoctor(ctx context.Context, d *clinic.Doctor) error {
	return r.db.WithContext(ctx).Create(models.DoctorModelFromDomain(d)).Error
}

// CreatePatient inserts a patient
func (r *GormClinicRepository) CreatePatient(ctx context.Context, p *clinic.Patient) error {
	return r.db.WithContext(ctx).Create(models.PatientModelFromDomain(p)).Error
}

// FindDoctor loads a doctor by ID
func (r *GormClinicRepository) FindDoctor(ctx context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	var row models.DoctorModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}
