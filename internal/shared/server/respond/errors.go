package respond

import (
	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/telemetry"
)

// Stable machine-readable error codes.
const (
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeBadRequest         = "bad_request"
	CodeConflict           = "conflict"
	CodeNotFound           = "not_found"
	CodeTooLarge           = "payload_too_large"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal"
)

// ErrorResponse is the JSON error body: {msg, code, error?}.
type ErrorResponse struct {
	Msg   string `json:"msg"`
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

// Error sends a standardized error response. detail is optional.
func Error(c *gin.Context, status int, code, message string, detail error) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	body := ErrorResponse{Msg: message, Code: code}
	if detail != nil {
		fields["err"] = detail.Error()
		body.Error = detail.Error()
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, body)
}
