package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/server/respond"
	"registry-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope. If the handler had
// already started streaming a body (file content), the connection is left as
// is since headers cannot be rewritten.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.IncPanic()
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"written":    c.Writer.Written(),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
