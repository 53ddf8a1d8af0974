package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestRequireCapability(t *testing.T) {
	build := func(p *billing.Principal) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if p != nil {
				c.Set(PrincipalKey, p)
			}
			c.Next()
		}, RequireCapability(CanManagePlans))
		r.PUT("/plans/:code", okHandler)
		return r
	}

	tests := []struct {
		name       string
		principal  *billing.Principal
		wantStatus int
		wantCode   string
	}{
		{"platform admin", &billing.Principal{Role: billing.RolePlatformAdmin, UserID: uuid.New()}, http.StatusOK, ""},
		{"hospital admin", &billing.Principal{Role: billing.RoleHospitalAdmin, UserID: uuid.New()}, http.StatusForbidden, dto.ErrCodeForbidden},
		{"doctor", &billing.Principal{Role: billing.RoleDoctor, UserID: uuid.New()}, http.StatusForbidden, dto.ErrCodeForbidden},
		{"anonymous", nil, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			build(tt.principal).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/plans/FREE", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
			}
		})
	}
}

func TestCanViewRevenue(t *testing.T) {
	assert.True(t, CanViewRevenue(billing.RolePlatformAdmin))
	assert.False(t, CanViewRevenue(billing.RoleIndependentDoctor))
}
