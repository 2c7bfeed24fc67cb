package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	FileIDKey         = "fileId"
	RegistryNumberKey = "registryNumber"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		role, _ := c.Get(userRoleKey)
		fileID, _ := c.Get(FileIDKey)
		registryNumber, _ := c.Get(RegistryNumberKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           c.FullPath(),
			"status":          c.Writer.Status(),
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"user_id":         userID,
			"role":            role,
			"file_id":         fileID,
			"registry_number": registryNumber,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
