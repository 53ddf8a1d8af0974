package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Identity is the authenticated caller as asserted by the access token.
type Identity struct {
	UserID uuid.UUID
	Role   billing.Role
}

// TenantResolver maps authenticated callers onto billing scopes.
type TenantResolver struct {
	directory billing.PrincipalDirectory
	logger    *zap.Logger
}

// NewTenantResolver creates a new TenantResolver
func NewTenantResolver(directory billing.PrincipalDirectory, logger *zap.Logger) *TenantResolver {
	return &TenantResolver{directory: directory, logger: logger}
}

// LoadPrincipal builds a Principal by loading the practice records the user owns.
// A nil identity yields (nil, nil) so that Resolve reports it as unauthenticated.
func (r *TenantResolver) LoadPrincipal(ctx context.Context, id *Identity) (*billing.Principal, error) {
	if id == nil || id.UserID == uuid.Nil {
		return nil, nil
	}

	p := &billing.Principal{Role: id.Role, UserID: id.UserID}

	switch id.Role {
	case billing.RoleIndependentDoctor, billing.RoleDoctor:
		doctor, err := r.directory.FindDoctorByUserID(ctx, id.UserID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			r.logger.Error("Failed to load doctor record",
				zap.String("user_id", id.UserID.String()),
				zap.Error(err))
			return nil, err
		}
		p.Doctor = doctor
	case billing.RoleHospitalAdmin:
		hospital, err := r.directory.FindHospitalByOwner(ctx, id.UserID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			r.logger.Error("Failed to load hospital record",
				zap.String("user_id", id.UserID.String()),
				zap.Error(err))
			return nil, err
		}
		p.Hospital = hospital
	}

	return p, nil
}

// Resolve maps a principal to its billing scope.
func (r *TenantResolver) Resolve(p *billing.Principal) (billing.Resolution, error) {
	res, err := billing.ResolveScope(p)
	if err != nil {
		return res, err
	}
	if !res.Applicable {
		r.logger.Debug("No billing scope for principal",
			zap.String("user_id", p.UserID.String()),
			zap.String("role", p.Role.String()),
			zap.String("reason", res.Reason))
	}
	return res, nil
}
