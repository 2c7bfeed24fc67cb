package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/server/middleware"
	"registry-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPublicRoutes attaches signup and login.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.signup)
	rg.POST("/login", h.login)
}

// RegisterRoutes attaches the routes that need an authenticated caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/verify", h.verify)
	rg.POST("/make-admin", h.makeAdmin)
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "invalid request body", nil)
		return
	}
	token, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "User already exists", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "email and password are required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Server error", err)
		}
		return
	}
	respond.OK(c, gin.H{"token": token})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "invalid request body", nil)
		return
	}
	token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "Invalid Credentials", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Server error", err)
		return
	}
	respond.OK(c, gin.H{"token": token})
}

func (h *Handler) verify(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "User not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Verification failed", err)
		return
	}
	respond.OK(c, gin.H{
		"valid": true,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) makeAdmin(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "No token, authorization denied", nil)
		return
	}
	user, err := h.Svc.MakeAdmin(c.Request.Context(), identity)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "Only first user can be made admin", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "User not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Error updating user", err)
		}
		return
	}
	respond.OK(c, gin.H{"msg": "User is now admin", "user": user})
}
