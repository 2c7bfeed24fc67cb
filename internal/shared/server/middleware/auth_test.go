package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/auth"
)

type stubUsers map[string]auth.Identity

func (s stubUsers) LookupIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	if userID == "broken" {
		return auth.Identity{}, errors.New("connection refused")
	}
	id, ok := s[userID]
	if !ok {
		return auth.Identity{}, auth.ErrUnknownUser
	}
	return id, nil
}

func newGateRouter(t *testing.T, allowQuery bool) (*gin.Engine, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := auth.NewSigner("test-secret", time.Hour, "dev")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	users := stubUsers{
		"admin-1": {UserID: "admin-1", Email: "admin@example.com", Role: auth.RoleAdmin},
	}
	handler := Auth(signer, users)
	if allowQuery {
		handler = AuthAllowQuery(signer, users)
	}
	router := gin.New()
	router.Use(handler)
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.UserID, "role": id.Role})
	})
	return router, signer
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router, _ := newGateRouter(t, false)
	router.OPTIONS("/api/files/current", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/files/current", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router, _ := newGateRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthAcceptsHeaderTokens(t *testing.T) {
	router, signer := newGateRouter(t, false)
	token, err := signer.Sign(auth.Identity{UserID: "admin-1", Role: auth.RoleUser})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("x-auth-token", token) },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
	} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		set(req)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		// role comes from the user store, not the token
		if body := resp.Body.String(); body != `{"id":"admin-1","role":"admin"}` {
			t.Fatalf("unexpected body %s", body)
		}
	}
}

func TestAuthQueryTokenOnlyWhenAllowed(t *testing.T) {
	for _, tc := range []struct {
		allow bool
		want  int
	}{
		{allow: false, want: http.StatusUnauthorized},
		{allow: true, want: http.StatusOK},
	} {
		router, signer := newGateRouter(t, tc.allow)
		token, _ := signer.Sign(auth.Identity{UserID: "admin-1"})
		req := httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("allowQuery=%v: expected %d, got %d", tc.allow, tc.want, resp.Code)
		}
	}
}

func TestAuthUnknownUserAndStoreFailure(t *testing.T) {
	router, signer := newGateRouter(t, false)

	for sub, want := range map[string]int{
		"ghost":  http.StatusUnauthorized,
		"broken": http.StatusInternalServerError,
	} {
		token, _ := signer.Sign(auth.Identity{UserID: sub})
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("x-auth-token", token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("sub=%s: expected %d, got %d", sub, want, resp.Code)
		}
	}
}
