package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"

	tokenHeader = "x-auth-token"
	tokenQuery  = "token"
)

// UserLookup resolves the current identity of a token subject. Roles are
// always read fresh so a demotion takes effect before the token expires.
type UserLookup interface {
	LookupIdentity(ctx context.Context, userID string) (auth.Identity, error)
}

// Auth requires a valid token in x-auth-token or Authorization: Bearer.
func Auth(signer *auth.Signer, users UserLookup) gin.HandlerFunc {
	return gate(signer, users, false)
}

// AuthAllowQuery is Auth that also accepts ?token=, for links opened
// directly by the browser (previews, downloads).
func AuthAllowQuery(signer *auth.Signer, users UserLookup) gin.HandlerFunc {
	return gate(signer, users, true)
}

func gate(signer *auth.Signer, users UserLookup, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		token := tokenFromRequest(c, allowQuery)
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "No token, authorization denied", nil)
			return
		}

		claims, err := signer.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "Token is not valid", nil)
			return
		}

		identity, err := users.LookupIdentity(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownUser) {
				respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "User not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeStorageUnavailable, "failed to load user", err)
			return
		}

		c.Set(userIDKey, identity.UserID)
		c.Set(userRoleKey, identity.Role)
		if identity.Email != "" {
			c.Set(userEmailKey, identity.Email)
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, allowQuery bool) string {
	if token := strings.TrimSpace(c.GetHeader(tokenHeader)); token != "" {
		return token
	}
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	if allowQuery {
		return strings.TrimSpace(c.Query(tokenQuery))
	}
	return ""
}

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if c == nil {
		return auth.Identity{}, false
	}
	userID := UserIDFromContext(c)
	if userID == "" {
		return auth.Identity{}, false
	}
	role, _ := c.Get(userRoleKey)
	r, _ := role.(auth.Role)
	email, _ := c.Get(userEmailKey)
	e, _ := email.(string)
	return auth.Identity{UserID: userID, Email: e, Role: r}, true
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
