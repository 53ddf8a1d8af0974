// Package testutil provides common test utilities for the MedCare backend.
// It contains helpers for building Gin test contexts, principals and access
// tokens, and for waiting on asynchronous conditions.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/infrastructure/auth"
	"github.com/medcare/backend/internal/infrastructure/config"
	"github.com/medcare/backend/internal/infrastructure/logger"
	"github.com/medcare/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestJWTConfig is the token configuration shared by tests that sign and
// verify access tokens.
var TestJWTConfig = config.JWTConfig{
	Secret:    "test-secret-that-is-at-least-32-bytes-long",
	Issuer:    "medcare-identity",
	Audience:  "medcare-api",
	ClockSkew: 30 * time.Second,
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// SetRequestID sets the request ID the way the RequestID middleware does.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(logger.GinRequestIDKey, id)
}

// SetPrincipal attaches p as the authenticated caller.
func (tc *TestContext) SetPrincipal(p *billing.Principal) {
	tc.Context.Set(middleware.PrincipalKey, p)
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// NewTestUUID generates a deterministic UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// PlatformAdmin returns a platform administrator principal.
func PlatformAdmin() *billing.Principal {
	return &billing.Principal{Role: billing.RolePlatformAdmin, UserID: NewTestUUID("platform-admin")}
}

// HospitalAdmin returns the administrator of hospitalID.
func HospitalAdmin(userID, hospitalID uuid.UUID) *billing.Principal {
	return &billing.Principal{
		Role:     billing.RoleHospitalAdmin,
		UserID:   userID,
		Hospital: &billing.HospitalRecord{ID: hospitalID, OwnerUserID: userID},
	}
}

// Token signs an access token accepted by a verifier built from TestJWTConfig.
func Token(t *testing.T, userID uuid.UUID, role billing.Role) string {
	t.Helper()

	token, err := auth.NewVerifier(TestJWTConfig).Sign(userID, string(role), time.Hour)
	require.NoError(t, err, "Failed to sign token")
	return token
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// AssertEventually retries condition until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}

// AssertNever verifies a condition never becomes true within the duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("Condition unexpectedly became true: %v", msgAndArgs)
		}
		time.Sleep(interval)
	}
}
