package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPrincipalDirectory implements billing.PrincipalDirectory.
type GormPrincipalDirectory struct {
	db *gorm.DB
}

// NewGormPrincipalDirectory creates a new principal directory
func NewGormPrincipalDirectory(db *gorm.DB) *GormPrincipalDirectory {
	return &GormPrincipalDirectory{db: db}
}

// FindDoctorByUserID returns the doctor profile linked to the user
func (d *GormPrincipalDirectory) FindDoctorByUserID(ctx context.Context, userID uuid.UUID) (*billing.DoctorRecord, error) {
	var row models.DoctorModel
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.ToRecord(), nil
}

// FindHospitalByOwner returns the hospital owned by the user
func (d *GormPrincipalDirectory) FindHospitalByOwner(ctx context.Context, userID uuid.UUID) (*billing.HospitalRecord, error) {
	var row models.HospitalModel
	err := d.db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		Order("created_at").
		First(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return row.ToRecord(), nil
}
