package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
)

// Profiling runs each request under pprof labels for route, method and role
// so Pyroscope can split CPU time by endpoint. It must run after
// JWTAuthMiddleware for the role to be known.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		labels := telemetry.HTTPRequestLabels(c.FullPath(), c.Request.Method, GetJWTRole(c))
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
