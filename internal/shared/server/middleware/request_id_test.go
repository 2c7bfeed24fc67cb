package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestIDRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		*seen = RequestIDFromContext(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestIDReusesCallerHeader(t *testing.T) {
	var seen string
	r := requestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "trace-abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "trace-abc-123" || w.Header().Get("X-Request-Id") != "trace-abc-123" {
		t.Fatalf("expected caller id, got ctx=%q header=%q", seen, w.Header().Get("X-Request-Id"))
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	for _, bad := range []string{"", "has space", strings.Repeat("x", 200), "line\nbreak"} {
		var seen string
		r := requestIDRouter(&seen)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if bad != "" {
			req.Header["X-Request-Id"] = []string{bad}
		}
		r.ServeHTTP(httptest.NewRecorder(), req)

		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("header %q: expected generated uuid, got %q", bad, seen)
		}
	}
}
