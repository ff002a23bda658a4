package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/rbac"
)

// InviteUserRequest represents request body for inviting a user
type InviteUserRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	Email          string    `json:"email" binding:"required"`
	RoleID         uuid.UUID `json:"role_id" binding:"required"`
}

// UpdateUserRoleRequest represents request body for changing a member's role
type UpdateUserRoleRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
	RoleID         uuid.UUID `json:"role_id" binding:"required"`
}

// MemberStatusRequest scopes a suspend/unsuspend action to an organization
type MemberStatusRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
}

// AcceptInvitationRequest represents request body for accepting an invite
type AcceptInvitationRequest struct {
	OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
}

// InviteUser invites a user to an organization by email
// @Summary Invite a user
// @Description Invite a user by email; re-inviting updates the existing pending membership. An email without an account is accepted but creates nothing.
// @Tags members
// @Accept json
// @Produce json
// @Param invite body InviteUserRequest true "Invitation"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Organization or role not found"
// @Router /users/invite [post]
func (h *Handler) InviteUser(c *gin.Context) {
	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "members.invite", req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	membership, err := h.svc.InviteUser(c.Request.Context(), req.OrganizationID, req.Email, req.RoleID, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if membership == nil {
		// No account with that email; nothing was created.
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Invitation processed",
		})
		return
	}

	role, _ := h.svc.Store().GetRoleByID(c.Request.Context(), req.RoleID)
	roleName := ""
	if role != nil {
		roleName = role.Name
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		rbac.ActionMemberInvited, "membership", membership.ID.String(),
		models.AuditSeverityInfo,
		rbac.MemberInvitedDetails{Email: req.Email, RoleName: roleName},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Invitation sent",
		"data":    membership,
	})
}

// UpdateUserRole changes a member's role within an organization
// @Summary Update a member's role
// @Description Assign a different role to a member of an organization
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param role body UpdateUserRoleRequest true "New role"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Membership or role not found"
// @Router /users/{id}/role [patch]
func (h *Handler) UpdateUserRole(c *gin.Context) {
	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid user ID format",
			"message": err.Error(),
		})
		return
	}

	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "members.manage", req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	membership, role, err := h.svc.UpdateMemberRole(c.Request.Context(), req.OrganizationID, targetUserID, req.RoleID)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		rbac.ActionMemberRoleUpdated, "membership", membership.ID.String(),
		models.AuditSeverityInfo,
		rbac.MemberRoleUpdatedDetails{NewRole: role.Name},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Member role updated",
		"data":    membership,
	})
}

// SuspendUser suspends an active member
// @Summary Suspend a member
// @Description Move an active membership to suspended; pending invitations cannot be suspended
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param scope body MemberStatusRequest true "Organization scope"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid transition"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Membership not found"
// @Router /users/{id}/suspend [patch]
func (h *Handler) SuspendUser(c *gin.Context) {
	h.setUserStatus(c, true)
}

// UnsuspendUser returns a suspended member to active
// @Summary Un-suspend a member
// @Description Move a suspended membership back to active
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param scope body MemberStatusRequest true "Organization scope"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid transition"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Membership not found"
// @Router /users/{id}/unsuspend [patch]
func (h *Handler) UnsuspendUser(c *gin.Context) {
	h.setUserStatus(c, false)
}

func (h *Handler) setUserStatus(c *gin.Context, suspend bool) {
	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid user ID format",
			"message": err.Error(),
		})
		return
	}

	var req MemberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	callerID, err := h.svc.RequirePermission(c, "members.manage", req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	var membership *models.Membership
	action := rbac.ActionMemberSuspended
	severity := models.AuditSeverityWarning
	message := "Member suspended"
	if suspend {
		membership, err = h.svc.SuspendMember(c.Request.Context(), req.OrganizationID, targetUserID)
	} else {
		membership, err = h.svc.UnsuspendMember(c.Request.Context(), req.OrganizationID, targetUserID)
		action = rbac.ActionMemberUnsuspended
		severity = models.AuditSeverityInfo
		message = "Member unsuspended"
	}
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		action, "membership", membership.ID.String(),
		severity,
		rbac.MemberStatusDetails{Status: membership.Status},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    membership,
	})
}

// AcceptInvitation accepts the caller's own pending invitation
// @Summary Accept an invitation
// @Description Move the caller's pending membership in the organization to active
// @Tags members
// @Accept json
// @Produce json
// @Param invitation body AcceptInvitationRequest true "Organization scope"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "No pending invitation"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No invitation for this organization"
// @Router /invitations/accept [post]
func (h *Handler) AcceptInvitation(c *gin.Context) {
	callerID, err := rbac.CallerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	membership, err := h.svc.AcceptInvitation(c.Request.Context(), callerID, req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	ip, userAgent := clientMeta(c)
	h.svc.LogAudit(c.Request.Context(), callerID, req.OrganizationID,
		rbac.ActionMemberJoined, "membership", membership.ID.String(),
		models.AuditSeverityInfo,
		rbac.MemberStatusDetails{Status: membership.Status},
		ip, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Invitation accepted",
		"data":    membership,
	})
}
