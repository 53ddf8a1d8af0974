package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/interfaces/http/dto"
)

// Capability is a role predicate such as billing.Role.CanManagePlans.
type Capability func(billing.Role) bool

// RequireCapability admits requests whose principal's role satisfies can.
// Missing principals are 401, other roles 403.
func RequireCapability(can Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", requestIDOf(c)))
			return
		}
		if !can(p.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Your role cannot access this resource", requestIDOf(c)))
			return
		}
		c.Next()
	}
}

// Capabilities used by the router.
var (
	CanManagePlans Capability = billing.Role.CanManagePlans
	CanViewRevenue Capability = billing.Role.CanViewRevenue
)
