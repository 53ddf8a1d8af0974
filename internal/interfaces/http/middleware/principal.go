package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/medcare/backend/internal/application/billing"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PrincipalKey holds the *billing.Principal of an authenticated request.
const PrincipalKey = "principal"

// PrincipalLoader builds a principal from a verified identity.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id *appbilling.Identity) (*billing.Principal, error)
}

// LoadPrincipal turns verified JWT claims into a billing principal. It must
// run after JWTAuthMiddleware. Requests without claims pass through with no
// principal so handlers report them as unauthenticated.
func LoadPrincipal(loader PrincipalLoader, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		userID, err := claims.UserUUID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenInvalid, "Invalid user id in token", requestIDOf(c)))
			return
		}
		role, err := billing.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenInvalid, "Unknown role in token", requestIDOf(c)))
			return
		}

		p, err := loader.LoadPrincipal(c.Request.Context(), &appbilling.Identity{UserID: userID, Role: role})
		if err != nil {
			log.Error("Failed to load principal",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Failed to load account", requestIDOf(c)))
			return
		}

		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the request principal, or nil when unauthenticated.
func GetPrincipal(c *gin.Context) *billing.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*billing.Principal); ok {
			return p
		}
	}
	return nil
}
