package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/medcare/backend/internal/application/billing"
	appclinic "github.com/medcare/backend/internal/application/clinic"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/clinic"
	"github.com/medcare/backend/internal/infrastructure/logger"
	"github.com/medcare/backend/internal/interfaces/http/dto"
	"github.com/medcare/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

const testRequestID = "req-test"

// newTestRouter returns an engine that injects a request ID and, when p is
// non-nil, the principal, before the handler runs.
func newTestRouter(p *billing.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(logger.GinRequestIDKey, testRequestID)
		if p != nil {
			c.Set(middleware.PrincipalKey, p)
		}
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and, when data is non-nil, its data field.
func decode(t *testing.T, w *httptest.ResponseRecorder, data any) dto.Response {
	t.Helper()
	var env struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Response
}

func hospitalAdmin() *billing.Principal {
	return &billing.Principal{
		Role:     billing.RoleHospitalAdmin,
		UserID:   uuid.New(),
		Hospital: &billing.HospitalRecord{ID: uuid.New(), Name: "St. Mary"},
	}
}

func platformAdmin() *billing.Principal {
	return &billing.Principal{Role: billing.RolePlatformAdmin, UserID: uuid.New()}
}

type mockSummaryReader struct{ mock.Mock }

func (m *mockSummaryReader) GetSummary(ctx context.Context, p *billing.Principal) (*appbilling.SummaryResult, error) {
	args := m.Called(ctx, p)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.SummaryResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGateChecker struct{ mock.Mock }

func (m *mockGateChecker) Check(ctx context.Context, p *billing.Principal, rule billing.GateRule) (*appbilling.GateCheckResult, error) {
	args := m.Called(ctx, p, rule)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.GateCheckResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateChecker) CheckAction(ctx context.Context, p *billing.Principal, action billing.Action) (*appbilling.GateCheckResult, error) {
	args := m.Called(ctx, p, action)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.GateCheckResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPlanCatalog struct{ mock.Mock }

func (m *mockPlanCatalog) ListWithUsage(ctx context.Context) ([]appbilling.PlanWithUsage, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]appbilling.PlanWithUsage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanCatalog) Save(ctx context.Context, input appbilling.SavePlanInput) (*billing.PlanConfig, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*billing.PlanConfig), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanCatalog) Bootstrap(ctx context.Context) (*appbilling.BootstrapResult, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.BootstrapResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRevenueReporter struct{ mock.Mock }

func (m *mockRevenueReporter) Compute(ctx context.Context, filter billing.RevenueFilter) (*billing.RevenueReport, error) {
	args := m.Called(ctx, filter)
	if r := args.Get(0); r != nil {
		return r.(*billing.RevenueReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockClinicWriter struct{ mock.Mock }

func (m *mockClinicWriter) CreateAppointment(ctx context.Context, p *billing.Principal, in appclinic.CreateAppointmentInput) (*clinic.Appointment, error) {
	args := m.Called(ctx, p, in)
	if r := args.Get(0); r != nil {
		return r.(*clinic.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClinicWriter) CreateDoctor(ctx context.Context, p *billing.Principal, in appclinic.CreateDoctorInput) (*clinic.Doctor, error) {
	args := m.Called(ctx, p, in)
	if r := args.Get(0); r != nil {
		return r.(*clinic.Doctor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClinicWriter) CreatePatient(ctx context.Context, p *billing.Principal, in appclinic.CreatePatientInput) (*clinic.Patient, error) {
	args := m.Called(ctx, p, in)
	if r := args.Get(0); r != nil {
		return r.(*clinic.Patient), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }
