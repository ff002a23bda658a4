package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/rbac"
)

// CreateRoleRequest represents request body for creating a role
type CreateRoleRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	Permissions    []string  `json:"permissions"`
}

// BulkUpdatePermissionsRequest carries the permission matrix changes.
// Changes map role ids to their complete new permission name sets.
type BulkUpdatePermissionsRequest struct {
	OrganizationID uuid.UUID              `json:"organization_id" binding:"required"`
	Changes        map[uuid.UUID][]string `json:"changes" binding:"required"`
}

// GetRoles lists all roles
// @Summary Get all roles
// @Description List every role with its permission set
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /roles [get]
func (h *Handler) GetRoles(c *gin.Context) {
	if _, err := rbac.CallerID(c); err != nil {
		respondError(c, err)
		return
	}

	roles, err := h.svc.GetRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    roles,
	})
}

// CreateRole creates a custom role
// @Summary Create a role
// @Description Create a custom role; every permission name must exist in the catalog
// @Tags roles
// @Accept json
// @Produce json
// @Param role body CreateRoleRequest true "Role definition"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /roles [post]
func (h *Handler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "roles.manage", req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), req.Name, req.Description, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		rbac.ActionRoleCreated, "role", role.ID.String(),
		models.AuditSeverityInfo,
		rbac.RoleCreatedDetails{Name: role.Name, Permissions: req.Permissions},
		ip, userAgent)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Role created successfully",
		"data":    role,
	})
}

// DeleteRole deletes a non-system role
// @Summary Delete a role
// @Description Delete a role; system roles and roles still assigned to members are refused
// @Tags roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID" format(uuid)
// @Param organization_id query string true "Acting organization" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "System role or role in use"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Role not found"
// @Router /roles/{id} [delete]
func (h *Handler) DeleteRole(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid role ID format",
			"message": err.Error(),
		})
		return
	}

	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid or missing organization_id",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "roles.manage", orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	role, err := h.svc.DeleteRole(c.Request.Context(), roleID)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, orgID,
		rbac.ActionRoleDeleted, "role", roleID.String(),
		models.AuditSeverityWarning,
		rbac.RoleDeletedDetails{Name: role.Name},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Role deleted successfully",
	})
}

// BulkUpdatePermissions applies permission matrix edits
// @Summary Bulk update role permissions
// @Description Replace the permission sets of multiple roles in one call; nothing is written when any role or permission name is unknown
// @Tags permissions
// @Accept json
// @Produce json
// @Param changes body BulkUpdatePermissionsRequest true "Permission matrix changes"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Unknown permission name"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Role not found"
// @Router /permissions/bulk-update [patch]
func (h *Handler) BulkUpdatePermissions(c *gin.Context) {
	var req BulkUpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "permissions.manage", req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.svc.BulkUpdateRolePermissions(c.Request.Context(), req.Changes)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		rbac.ActionPermissionsUpdated, "role", "",
		models.AuditSeverityWarning,
		rbac.PermissionMatrixDetails{UpdatedRoles: updated},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Permissions updated successfully",
		"data": gin.H{
			"updated_roles": updated,
		},
	})
}
