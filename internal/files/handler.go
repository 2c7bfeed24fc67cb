package files

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"registry-backend/internal/shared/server/middleware"
	"registry-backend/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 25 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches file routes. requireAuth guards every route;
// contentAuth guards the content route, which browsers open directly and may
// therefore carry the token in the query string.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth, contentAuth gin.HandlerFunc) {
	rg.POST("/upload", requireAuth, h.upload)
	rg.GET("", requireAuth, h.list)
	rg.GET("/:id", requireAuth, h.get)
	rg.GET("/:id/content", contentAuth, h.content)
	rg.DELETE("/:id", requireAuth, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	in := UploadInput{
		RequestID: middleware.RequestIDFromContext(c),
	}

	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		var file multipart.File
		file, err = fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "unable to read file", nil)
			return
		}
		defer file.Close()
		in.File = file
		in.FileName = fileHeader.Filename
		in.ContentType = fileHeader.Header.Get("Content-Type")
	case isTooLarge(err):
		respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeTooLarge,
			fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes), nil)
		return
	}
	// A missing file part is reported by the service after the role check.

	in.DisplayName = c.PostForm("displayName")
	in.GuardianName = c.PostForm("guardianName")
	in.Address = c.PostForm("address")
	in.PersonName = c.PostForm("personName")
	in.PropertyNumber = c.PostForm("propertyNumber")
	in.Date = c.PostForm("date")

	f, err := h.Svc.Upload(c.Request.Context(), identity, in)
	if err != nil {
		writeError(c, err, "Error uploading file")
		return
	}

	c.Set(middleware.FileIDKey, f.ID)
	c.Set(middleware.RegistryNumberKey, f.RegistryNumber)
	respond.OK(c, toResponse(f))
}

func (h *Handler) list(c *gin.Context) {
	filters := Filters{
		Search:         c.Query("search"),
		GuardianName:   c.Query("guardianName"),
		Address:        c.Query("address"),
		PersonName:     c.Query("personName"),
		PropertyNumber: c.Query("propertyNumber"),
		DisplayName:    c.Query("displayName"),
	}

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		day, err := ParseDay(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "invalid date", nil)
			return
		}
		filters.Date = &day
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filters.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filters.Offset = parsed
		}
	}

	list, err := h.Svc.Query(c.Request.Context(), filters)
	if err != nil {
		writeError(c, err, "Error fetching files")
		return
	}
	respond.OK(c, toResponses(list))
}

func (h *Handler) get(c *gin.Context) {
	f, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Error fetching file")
		return
	}
	c.Set(middleware.FileIDKey, f.ID)
	respond.OK(c, toResponse(f))
}

func (h *Handler) content(c *gin.Context) {
	f, rc, err := h.Svc.OpenContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Error reading file")
		return
	}
	defer rc.Close()

	c.Set(middleware.FileIDKey, f.ID)
	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := f.OriginalName
	if name == "" {
		name = f.StoredName
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", name),
	}
	c.DataFromReader(http.StatusOK, f.Size, contentType, rc, headers)
}

func (h *Handler) delete(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	id := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), identity, id); err != nil {
		writeError(c, err, "Error deleting file")
		return
	}
	c.Set(middleware.FileIDKey, id)
	respond.OK(c, gin.H{"msg": "File removed"})
}

// writeError maps service errors to their status and stable code. Storage
// failures use fallback as the message.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, respond.CodeForbidden, err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, respond.CodeConflict, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorageUnavailable, fallback, err)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Server error", err)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
