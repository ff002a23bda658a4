package rbac

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/store"
	utils "launchpulse-backend/shared/utils/auth"
)

// DefaultAuditPageSize is the audit log page size when none is requested.
const DefaultAuditPageSize = 50

// Audit action labels, one per mutating admin operation.
const (
	ActionOrganizationCreated = "organization.created"
	ActionOrganizationDeleted = "organization.deleted"
	ActionMemberInvited       = "member.invited"
	ActionMemberRoleUpdated   = "member.role_updated"
	ActionMemberSuspended     = "member.suspended"
	ActionMemberUnsuspended   = "member.unsuspended"
	ActionMemberJoined        = "member.joined"
	ActionRoleCreated         = "role.created"
	ActionRoleDeleted         = "role.deleted"
	ActionPermissionsUpdated  = "permissions.bulk_updated"
)

// Mailer sends invitation notifications. Sending is best effort; a failed
// mail never fails the invite.
type Mailer interface {
	SendInvitation(email, organizationName, roleName string) error
}

// Service implements the RBAC operations over an injected Store.
type Service struct {
	store  store.Store
	mailer Mailer
}

// NewService creates an RBAC service. mailer may be nil.
func NewService(s store.Store, mailer Mailer) *Service {
	return &Service{store: s, mailer: mailer}
}

// Store exposes the underlying store for read-only wiring (handlers that
// need direct entity lookups for response shaping).
func (s *Service) Store() store.Store {
	return s.store
}

// HasPermission reports whether the user holds the named permission in the
// organization, via an active membership whose role carries the permission
// or the wildcard. Any lookup failure is a deny, never an error.
func (s *Service) HasPermission(ctx context.Context, userID, orgID uuid.UUID, permission string) bool {
	membership, err := s.store.GetActiveMembership(ctx, userID, orgID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("permission check failed for user %s in org %s: %v", userID, orgID, err)
		}
		return false
	}
	if membership.Role == nil {
		return false
	}
	return membership.Role.HasPermission(permission)
}

// GetUserRole returns the role attached to the user's active membership,
// or nil without error when there is none.
func (s *Service) GetUserRole(ctx context.Context, userID, orgID uuid.UUID) (*models.Role, error) {
	membership, err := s.store.GetActiveMembership(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user role: %w", err)
	}
	return membership.Role, nil
}

// GetUserOrganizations returns the user's active memberships with role and
// organization embedded, most recently joined first.
func (s *Service) GetUserOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	memberships, err := s.store.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user organizations: %w", err)
	}
	return memberships, nil
}

// CreateOrganization inserts the organization and binds the creator to the
// built-in Owner role in one atomic step.
func (s *Service) CreateOrganization(ctx context.Context, name, slug, description, tier string, ownerID uuid.UUID) (*models.Organization, error) {
	if err := utils.ValidateRequired(name, "name"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := utils.ValidateSlug(slug); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.store.GetOrganizationBySlug(ctx, slug); err == nil {
		return nil, store.ErrDuplicateSlug
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	ownerRole, err := s.store.GetRoleByName(ctx, "Owner")
	if err != nil {
		return nil, fmt.Errorf("owner role not found: %w", err)
	}

	if tier == "" {
		tier = "free"
	}
	org := &models.Organization{
		Name:             name,
		Slug:             slug,
		Description:      description,
		SubscriptionTier: tier,
		Settings:         models.JSON{},
	}

	if err := s.store.CreateOrganizationWithOwner(ctx, org, ownerID, ownerRole.ID); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

// DeleteOrganization removes the organization; memberships and scoped audit
// entries disappear with it atomically inside the store. Returns the
// deleted organization for audit details.
func (s *Service) DeleteOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.store.GetOrganizationByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: organization %s", ErrNotFound, orgID)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	if err := s.store.DeleteOrganization(ctx, orgID); err != nil {
		return nil, fmt.Errorf("failed to delete organization: %w", err)
	}
	return org, nil
}

// InviteUser upserts a pending membership for the user with the given
// email. When no user has that email, the invite is a no-op and the
// returned membership is nil; the invitation mail hook is the only thing
// such an invite would feed.
func (s *Service) InviteUser(ctx context.Context, orgID uuid.UUID, email string, roleID, invitedBy uuid.UUID) (*models.Membership, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	org, err := s.store.GetOrganizationByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: organization %s", ErrNotFound, orgID)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	role, err := s.store.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Known limitation: invites only reach existing accounts.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now().UTC()
	membership := &models.Membership{
		UserID:         user.ID,
		OrganizationID: orgID,
		RoleID:         role.ID,
		Status:         models.MembershipStatusPending,
		InvitedBy:      &invitedBy,
		InvitedAt:      &now,
	}

	if err := s.store.UpsertInvitation(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to save invitation: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendInvitation(email, org.Name, role.Name); err != nil {
			log.Printf("failed to send invitation mail to %s: %v", email, err)
		}
	}
	return membership, nil
}

// AcceptInvitation moves the caller's own pending membership to active and
// stamps the join time.
func (s *Service) AcceptInvitation(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	membership, err := s.store.GetMembership(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no invitation for this organization", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	if membership.Status != models.MembershipStatusPending {
		return nil, fmt.Errorf("%w: membership is %s, only pending invitations can be accepted", ErrValidation, membership.Status)
	}

	membership.Status = models.MembershipStatusActive
	membership.JoinedAt = time.Now().UTC()
	if err := s.store.UpdateMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return membership, nil
}

// SuspendMember moves an active membership to suspended. A pending
// membership cannot be suspended; it must become active first.
func (s *Service) SuspendMember(ctx context.Context, orgID, targetUserID uuid.UUID) (*models.Membership, error) {
	return s.setMemberStatus(ctx, orgID, targetUserID,
		models.MembershipStatusActive, models.MembershipStatusSuspended)
}

// UnsuspendMember returns a suspended membership to active.
func (s *Service) UnsuspendMember(ctx context.Context, orgID, targetUserID uuid.UUID) (*models.Membership, error) {
	return s.setMemberStatus(ctx, orgID, targetUserID,
		models.MembershipStatusSuspended, models.MembershipStatusActive)
}

func (s *Service) setMemberStatus(ctx context.Context, orgID, targetUserID uuid.UUID, from, to string) (*models.Membership, error) {
	membership, err := s.store.GetMembership(ctx, targetUserID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: membership for user %s", ErrNotFound, targetUserID)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	if membership.Status != from {
		return nil, fmt.Errorf("%w: cannot move membership from %s to %s", ErrValidation, membership.Status, to)
	}

	membership.Status = to
	if err := s.store.UpdateMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to update membership status: %w", err)
	}
	return membership, nil
}

// UpdateMemberRole assigns a new role to an existing membership.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, targetUserID, roleID uuid.UUID) (*models.Membership, *models.Role, error) {
	role, err := s.store.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return nil, nil, fmt.Errorf("failed to load role: %w", err)
	}

	membership, err := s.store.GetMembership(ctx, targetUserID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: membership for user %s", ErrNotFound, targetUserID)
		}
		return nil, nil, fmt.Errorf("failed to load membership: %w", err)
	}

	membership.RoleID = role.ID
	if err := s.store.UpdateMembership(ctx, membership); err != nil {
		return nil, nil, fmt.Errorf("failed to update member role: %w", err)
	}
	return membership, role, nil
}

// CreateRole creates a custom role after checking every permission name
// against the catalog.
func (s *Service) CreateRole(ctx context.Context, name, description string, permissions []string) (*models.Role, error) {
	if err := utils.ValidateRequired(name, "name"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.validatePermissionNames(ctx, permissions); err != nil {
		return nil, err
	}

	role := &models.Role{
		Name:        name,
		Description: description,
		Permissions: pq.StringArray(permissions),
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role unless it is a system role or still referenced
// by memberships.
func (s *Service) DeleteRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	role, err := s.store.GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	if role.IsSystemRole {
		return nil, fmt.Errorf("%w: system roles cannot be deleted", ErrValidation)
	}

	references, err := s.store.CountMembershipsByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count role references: %w", err)
	}
	if references > 0 {
		return nil, fmt.Errorf("%w: role is assigned to %d membership(s)", ErrValidation, references)
	}

	if err := s.store.DeleteRole(ctx, roleID); err != nil {
		return nil, fmt.Errorf("failed to delete role: %w", err)
	}
	return role, nil
}

// BulkUpdateRolePermissions replaces the permission sets of the given
// roles. Every referenced role and permission name must exist; validation
// failures and store failures alike leave every set unchanged.
func (s *Service) BulkUpdateRolePermissions(ctx context.Context, changes map[uuid.UUID][]string) ([]string, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no changes provided", ErrValidation)
	}

	updated := make([]string, 0, len(changes))
	for roleID, permissions := range changes {
		role, err := s.store.GetRoleByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
			}
			return nil, fmt.Errorf("failed to load role: %w", err)
		}
		if err := s.validatePermissionNames(ctx, permissions); err != nil {
			return nil, err
		}
		updated = append(updated, role.Name)
	}

	if err := s.store.UpdateRolePermissions(ctx, changes); err != nil {
		return nil, fmt.Errorf("failed to update role permissions: %w", err)
	}
	return updated, nil
}

func (s *Service) validatePermissionNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	found, err := s.store.GetPermissionsByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to resolve permissions: %w", err)
	}

	known := make(map[string]bool, len(found))
	for _, permission := range found {
		known[permission.Name] = true
	}
	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("%w: unknown permission %q", ErrValidation, name)
		}
	}
	return nil
}

// GetRoles lists all roles.
func (s *Service) GetRoles(ctx context.Context) ([]models.Role, error) {
	return s.store.ListRoles(ctx)
}

// GetPermissions lists the permission catalog.
func (s *Service) GetPermissions(ctx context.Context) ([]models.Permission, error) {
	return s.store.ListPermissions(ctx)
}

// GetOrganizationMembers lists memberships of an organization with user and
// role embedded.
func (s *Service) GetOrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]models.Membership, error) {
	return s.store.ListOrganizationMembers(ctx, orgID)
}

// GetAuditLogs returns one page of an organization's audit trail, newest
// first.
func (s *Service) GetAuditLogs(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.AuditLog, int64, error) {
	if limit <= 0 {
		limit = DefaultAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListAuditLogs(ctx, orgID, limit, offset)
}

// ExportAuditLogs returns all entries matching the filter, newest first.
func (s *Service) ExportAuditLogs(ctx context.Context, orgID uuid.UUID, filter store.AuditLogFilter) ([]models.AuditLog, error) {
	return s.store.FilterAuditLogs(ctx, orgID, filter)
}

// LogAudit appends one audit entry. Failures are logged and swallowed so
// that audit logging never aborts the mutation it documents.
func (s *Service) LogAudit(ctx context.Context, actorID, orgID uuid.UUID, action, resource, resourceID, severity string, details AuditDetails, ip, userAgent string) {
	if severity == "" {
		severity = models.AuditSeverityInfo
	}

	entry := &models.AuditLog{
		UserID:         actorID,
		OrganizationID: orgID,
		Action:         action,
		Resource:       resource,
		ResourceID:     resourceID,
		Severity:       severity,
		IPAddress:      ip,
		UserAgent:      userAgent,
		Details:        models.JSON{},
	}
	if details != nil {
		entry.Details = details.auditDetails()
	}

	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		log.Printf("failed to write audit entry %s/%s: %v", action, resourceID, err)
	}
}
