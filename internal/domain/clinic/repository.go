package clinic

import (
	"context"

	"github.com/google/uuid"
)

// Repository writes practice records.
type Repository interface {
	CreateAppointment(ctx context.Context, a *Appointment) error
	CreateDoctor(ctx context.Context, d *Doctor) error
	CreatePatient(ctx context.Context, p *Patient) error
	// FindDoctor returns shared.ErrNotFound when absent.
	FindDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
