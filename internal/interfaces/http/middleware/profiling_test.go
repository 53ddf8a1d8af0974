package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_SetsRouteLabels(t *testing.T) {
	var route, method, role string
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(JWTRoleKey, "PLATFORM_ADMIN")
		c.Next()
	}, Profiling(true, "/health"))
	r.GET("/api/v1/plans", func(c *gin.Context) {
		ctx := c.Request.Context()
		route, _ = pprof.Label(ctx, "route")
		method, _ = pprof.Label(ctx, "method")
		role, _ = pprof.Label(ctx, "role")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/plans", route)
	assert.Equal(t, "GET", method)
	assert.Equal(t, "PLATFORM_ADMIN", role)
}

func TestProfiling_SkipAndDisabled(t *testing.T) {
	for name, mw := range map[string]gin.HandlerFunc{
		"skipped path": Profiling(true, "/health"),
		"disabled":     Profiling(false),
	} {
		t.Run(name, func(t *testing.T) {
			var labelled bool
			r := gin.New()
			r.Use(mw)
			r.GET("/health", func(c *gin.Context) {
				_, labelled = pprof.Label(c.Request.Context(), "route")
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, labelled)
		})
	}
}
