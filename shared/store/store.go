package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/utils/query"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateSlug is returned when an organization slug is already taken.
var ErrDuplicateSlug = errors.New("slug already exists")

// AuditLogFilter narrows audit log queries for the export endpoint.
type AuditLogFilter struct {
	Action    string
	Severity  string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// Store is the persistence boundary of the RBAC subsystem. Production uses
// the GORM/Postgres implementation; tests use the in-memory one.
type Store interface {
	// Users
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Organizations
	// CreateOrganizationWithOwner inserts the organization and the owner's
	// active membership in one transaction; neither persists if either fails.
	CreateOrganizationWithOwner(ctx context.Context, org *models.Organization, ownerID, ownerRoleID uuid.UUID) error
	GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ListOrganizations(ctx context.Context, params query.FilterParams) ([]models.Organization, int64, error)
	// DeleteOrganization removes the organization, its memberships and its
	// scoped audit entries atomically. Entries appended afterwards, like the
	// record of the deletion itself, persist.
	DeleteOrganization(ctx context.Context, id uuid.UUID) error

	// Roles
	GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	// UpdateRolePermissions replaces the permission sets of all listed
	// roles atomically; either every set is written or none is.
	UpdateRolePermissions(ctx context.Context, changes map[uuid.UUID][]string) error
	CountMembershipsByRole(ctx context.Context, roleID uuid.UUID) (int64, error)

	// Permissions
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	GetPermissionsByNames(ctx context.Context, names []string) ([]models.Permission, error)

	// Memberships
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
	// GetActiveMembership returns the active membership with its role loaded.
	GetActiveMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	ListOrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]models.Membership, error)
	// UpsertInvitation inserts a pending membership, or overwrites role,
	// status, inviter and invitation time of the existing (user, org) row.
	UpsertInvitation(ctx context.Context, membership *models.Membership) error
	UpdateMembership(ctx context.Context, membership *models.Membership) error

	// Audit log
	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.AuditLog, int64, error)
	FilterAuditLogs(ctx context.Context, orgID uuid.UUID, filter AuditLogFilter) ([]models.AuditLog, error)
}
