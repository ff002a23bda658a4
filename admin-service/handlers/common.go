package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpulse-backend/shared/rbac"
	"launchpulse-backend/shared/store"
)

// Handler carries the RBAC service into the admin API handlers.
type Handler struct {
	svc *rbac.Service
}

// NewHandler creates the admin API handler set
func NewHandler(svc *rbac.Service) *Handler {
	return &Handler{svc: svc}
}

// respondError maps the error taxonomy to HTTP statuses. Store failures are
// never leaked to the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
			"code":  "UNAUTHORIZED",
		})
	case errors.Is(err, rbac.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "FORBIDDEN",
		})
	case errors.Is(err, rbac.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": err.Error(),
		})
	case errors.Is(err, rbac.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
	case errors.Is(err, store.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Slug already exists",
			"message": "An organization with this slug already exists",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// clientMeta extracts the actor's network metadata for audit entries
func clientMeta(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.Request.UserAgent()
}
