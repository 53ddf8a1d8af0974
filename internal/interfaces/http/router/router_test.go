package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/medcare/backend/internal/application/billing"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/interfaces/http/handler"
	"github.com/medcare/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		PUT("/item/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	assert.Equal(t, "test", group.Name())
	assert.Equal(t, "/test", group.Prefix())

	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/test/item/42", nil))
	assert.Equal(t, "42", w.Body.String())
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusTeapot) }).
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

type stubCatalog struct{}

func (stubCatalog) ListWithUsage(context.Context) ([]appbilling.PlanWithUsage, error) {
	return nil, nil
}

func (stubCatalog) Save(context.Context, appbilling.SavePlanInput) (*billing.PlanConfig, error) {
	return nil, billing.ErrInvalidPlanCode
}

func (stubCatalog) Bootstrap(context.Context) (*appbilling.BootstrapResult, error) {
	return &appbilling.BootstrapResult{PlansCreated: 3, PricesCreated: 6}, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func apiEngine(role billing.Role) *gin.Engine {
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, &billing.Principal{Role: role, UserID: uuid.New()})
		c.Next()
	})
	system := handler.NewSystemHandler("medcare", "test", stubPinger{})
	MountHealth(engine, "v1", system)
	NewRouter(engine).Register(Groups(Handlers{
		System:       system,
		Entitlements: handler.NewEntitlementHandler(nil, nil),
		Plans:        handler.NewPlanHandler(stubCatalog{}),
		Revenue:      handler.NewRevenueHandler(nil),
		Clinic:       handler.NewClinicHandler(nil),
	})...).Setup()
	return engine
}

func TestGroups_PlanRoutesRequirePlatformAdmin(t *testing.T) {
	tests := []struct {
		role       billing.Role
		wantStatus int
	}{
		{billing.RolePlatformAdmin, http.StatusOK},
		{billing.RoleHospitalAdmin, http.StatusForbidden},
		{billing.RoleIndependentDoctor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			w := httptest.NewRecorder()
			apiEngine(tt.role).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/plans/bootstrap", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGroups_RevenueRequiresPlatformAdmin(t *testing.T) {
	w := httptest.NewRecorder()
	apiEngine(billing.RoleDoctor).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/reports/revenue", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGroups_RouteTable(t *testing.T) {
	routes := map[string]bool{}
	for _, r := range apiEngine(billing.RolePlatformAdmin).Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /api/v1/health",
		"GET /api/v1/system/info",
		"GET /api/v1/entitlements/summary",
		"GET /api/v1/entitlements/gate",
		"POST /api/v1/entitlements/gate",
		"GET /api/v1/plans",
		"PUT /api/v1/plans/:code",
		"POST /api/v1/plans/bootstrap",
		"POST /api/v1/reports/revenue",
		"POST /api/v1/appointments",
		"POST /api/v1/doctors",
		"POST /api/v1/patients",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestMountHealth(t *testing.T) {
	w := httptest.NewRecorder()
	apiEngine(billing.RolePatient).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
