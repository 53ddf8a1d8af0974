package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUsageRepository implements billing.UsageReader over the appointments
// and doctors tables. Nothing is cached: every call reads current rows.
type GormUsageRepository struct {
	db *gorm.DB
}

// NewGormUsageRepository creates a new usage repository
func NewGormUsageRepository(db *gorm.DB) *GormUsageRepository {
	return &GormUsageRepository{db: db}
}

// CountAppointments counts appointments scheduled in [period.Start, period.End).
// For a hospital an appointment matches when it was booked through the
// hospital or its doctor is on the hospital's roster. It is counted once.
func (r *GormUsageRepository) CountAppointments(ctx context.Context, scope billing.Scope, period billing.Period) (int64, int64, error) {
	var counts struct {
		Appointments int64
		Patients     int64
	}

	q := r.db.WithContext(ctx).
		Table("appointments AS a").
		Select("COUNT(DISTINCT a.id) AS appointments, COUNT(DISTINCT a.patient_id) AS patients").
		Where("a.scheduled_at >= ? AND a.scheduled_at < ?", period.Start, period.End)

	switch scope.Kind {
	case billing.ScopeKindDoctor:
		q = q.Where("a.doctor_id = ?", scope.ID)
	case billing.ScopeKindHospital:
		q = q.Joins("LEFT JOIN doctors AS d ON d.id = a.doctor_id").
			Where("a.hospital_id = ? OR d.hospital_id = ?", scope.ID, scope.ID)
	default:
		return 0, 0, fmt.Errorf("unknown scope kind %q", scope.Kind)
	}

	if err := q.Scan(&counts).Error; err != nil {
		return 0, 0, err
	}
	return counts.Appointments, counts.Patients, nil
}

// CountRosterDoctors returns the number of doctors attached to the hospital.
func (r *GormUsageRepository) CountRosterDoctors(ctx context.Context, hospitalID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.DoctorModel{}).
		Where("hospital_id = ?", hospitalID).
		Count(&n).Error
	return n, err
}
