package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpulse-backend/shared/rbac"
)

// GetPermissions lists the permission catalog
// @Summary Get all permissions
// @Description List the permission catalog ordered by resource and action
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /permissions [get]
func (h *Handler) GetPermissions(c *gin.Context) {
	if _, err := rbac.CallerID(c); err != nil {
		respondError(c, err)
		return
	}

	permissions, err := h.svc.GetPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    permissions,
	})
}
