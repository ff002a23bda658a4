package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/rbac"
	"launchpulse-backend/shared/utils/query"
)

// CreateOrganizationRequest represents request body for creating organization
type CreateOrganizationRequest struct {
	Name             string `json:"name" binding:"required"`
	Slug             string `json:"slug" binding:"required"`
	Description      string `json:"description"`
	SubscriptionTier string `json:"subscription_tier"`
}

// GetOrganizations retrieves all organizations with pagination and filtering
// @Summary Get all organizations
// @Description Get all organizations with pagination, filtering, sorting and search
// @Tags organizations
// @Accept json
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 10)"
// @Param search query string false "Search term across name and slug"
// @Param filters[subscription_tier] query string false "Filter by subscription tier"
// @Param sort[field] query string false "Sort field (name, slug, created_at, updated_at)"
// @Param sort[order] query string false "Sort order (asc, desc)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /organizations [get]
func (h *Handler) GetOrganizations(c *gin.Context) {
	if _, err := rbac.CallerID(c); err != nil {
		respondError(c, err)
		return
	}

	params := query.ParseQueryParams(c)

	organizations, total, err := h.svc.Store().ListOrganizations(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":      organizations,
			"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
		},
	})
}

// GetOrganization retrieves a single organization by ID
// @Summary Get organization by ID
// @Description Get detailed information about a specific organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid organization ID format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Organization not found"
// @Router /organizations/{id} [get]
func (h *Handler) GetOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	if _, err := h.svc.RequirePermission(c, "organization.read", orgID); err != nil {
		respondError(c, err)
		return
	}

	org, err := h.svc.Store().GetOrganizationByID(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    org,
	})
}

// CreateOrganization creates a new organization owned by the caller
// @Summary Create a new organization
// @Description Create a new organization; the caller becomes its Owner
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body CreateOrganizationRequest true "Organization information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created organization"
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Slug already exists"
// @Failure 500 {object} map[string]string "Server error"
// @Router /organizations [post]
func (h *Handler) CreateOrganization(c *gin.Context) {
	callerID, err := rbac.CallerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	org, err := h.svc.CreateOrganization(c.Request.Context(), req.Name, req.Slug, req.Description, req.SubscriptionTier, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, org.ID,
		rbac.ActionOrganizationCreated, "organization", org.ID.String(),
		models.AuditSeverityInfo,
		rbac.OrganizationCreatedDetails{Name: org.Name, Tier: org.SubscriptionTier},
		ip, userAgent)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Organization created successfully",
		"data":    org,
	})
}

// DeleteOrganization deletes an organization and everything scoped to it
// @Summary Delete an organization
// @Description Delete an organization; memberships and scoped audit entries cascade
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid organization ID format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Organization not found"
// @Router /organizations/{id} [delete]
func (h *Handler) DeleteOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "organization.delete", orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	org, err := h.svc.DeleteOrganization(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The organization's own audit trail is removed with it; the deletion
	// entry written here comes after the delete and persists for
	// platform-level traceability.
	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, orgID,
		rbac.ActionOrganizationDeleted, "organization", orgID.String(),
		models.AuditSeverityWarning,
		rbac.OrganizationDeletedDetails{Name: org.Name},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Organization deleted successfully",
	})
}

// GetOrganizationMembers lists the members of an organization
// @Summary Get organization members
// @Description List the memberships of an organization with user and role details
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /organizations/{id}/members [get]
func (h *Handler) GetOrganizationMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	if _, err := h.svc.RequirePermission(c, "members.read", orgID); err != nil {
		respondError(c, err)
		return
	}

	members, err := h.svc.GetOrganizationMembers(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    members,
	})
}

// GetMyOrganizations lists the caller's active organizations
// @Summary Get the caller's organizations
// @Description List organizations where the caller holds an active membership
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /me/organizations [get]
func (h *Handler) GetMyOrganizations(c *gin.Context) {
	callerID, err := rbac.CallerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	memberships, err := h.svc.GetUserOrganizations(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    memberships,
	})
}
