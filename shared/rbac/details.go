package rbac

import "launchpulse-backend/shared/database/models"

// Audit detail payloads. Each mutating action has a known shape; the
// structs below are the catalog of those shapes and marshal into the
// entry's jsonb details column. Genuinely unstructured data falls back to
// a plain models.JSON map.

// AuditDetails is implemented by every typed detail payload.
type AuditDetails interface {
	auditDetails() models.JSON
}

type OrganizationCreatedDetails struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

func (d OrganizationCreatedDetails) auditDetails() models.JSON {
	return models.JSON{"name": d.Name, "tier": d.Tier}
}

type OrganizationDeletedDetails struct {
	Name string `json:"name"`
}

func (d OrganizationDeletedDetails) auditDetails() models.JSON {
	return models.JSON{"name": d.Name}
}

type MemberInvitedDetails struct {
	Email    string `json:"email"`
	RoleName string `json:"role_name"`
}

func (d MemberInvitedDetails) auditDetails() models.JSON {
	return models.JSON{"email": d.Email, "role_name": d.RoleName}
}

type MemberRoleUpdatedDetails struct {
	NewRole string `json:"new_role"`
}

func (d MemberRoleUpdatedDetails) auditDetails() models.JSON {
	return models.JSON{"new_role": d.NewRole}
}

type MemberStatusDetails struct {
	Status string `json:"status"`
}

func (d MemberStatusDetails) auditDetails() models.JSON {
	return models.JSON{"status": d.Status}
}

type RoleCreatedDetails struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (d RoleCreatedDetails) auditDetails() models.JSON {
	return models.JSON{"name": d.Name, "permissions": d.Permissions}
}

type RoleDeletedDetails struct {
	Name string `json:"name"`
}

func (d RoleDeletedDetails) auditDetails() models.JSON {
	return models.JSON{"name": d.Name}
}

type PermissionMatrixDetails struct {
	UpdatedRoles []string `json:"updated_roles"`
}

func (d PermissionMatrixDetails) auditDetails() models.JSON {
	return models.JSON{"updated_roles": d.UpdatedRoles}
}

// RawDetails wraps an untyped key/value payload.
type RawDetails models.JSON

func (d RawDetails) auditDetails() models.JSON {
	return models.JSON(d)
}
