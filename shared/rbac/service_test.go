package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/rbac"
	"launchpulse-backend/shared/store"
)

var catalogPermissions = []string{
	models.PermissionAdminFull,
	"organization.read", "organization.update", "organization.delete",
	"members.read", "members.invite", "members.manage",
	"roles.read", "roles.manage",
	"permissions.manage",
	"audit.read", "audit.export",
}

// recordingMailer captures invitation mails; Err makes every send fail.
type recordingMailer struct {
	sent []string
	Err  error
}

func (m *recordingMailer) SendInvitation(email, _, _ string) error {
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, email)
	return nil
}

type fixture struct {
	svc    *rbac.Service
	store  *store.MemoryStore
	mailer *recordingMailer

	ownerRole  models.Role
	memberRole models.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	ctx := context.Background()

	for _, name := range catalogPermissions {
		mem.CreatePermission(models.Permission{Name: name})
	}

	ownerRole := models.Role{
		Name:         "Owner",
		Permissions:  pq.StringArray{models.PermissionAdminFull},
		IsSystemRole: true,
	}
	require.NoError(t, mem.CreateRole(ctx, &ownerRole))

	memberRole := models.Role{
		Name:         "Member",
		Permissions:  pq.StringArray{"organization.read", "members.read"},
		IsSystemRole: true,
	}
	require.NoError(t, mem.CreateRole(ctx, &memberRole))

	mailer := &recordingMailer{}
	return &fixture{
		svc:        rbac.NewService(mem, mailer),
		store:      mem,
		mailer:     mailer,
		ownerRole:  ownerRole,
		memberRole: memberRole,
	}
}

func (f *fixture) createUser(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: email, Password: "hashed", Status: "ACTIVE"}
	require.NoError(t, f.store.CreateUser(context.Background(), &user))
	return user
}

func (f *fixture) createOrganization(t *testing.T, slug string, ownerID uuid.UUID) *models.Organization {
	t.Helper()
	org, err := f.svc.CreateOrganization(context.Background(), slug, slug, "", "free", ownerID)
	require.NoError(t, err)
	return org
}

func TestHasPermissionFailClosedWithoutMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	outsider := f.createUser(t, "outsider@example.com")

	for _, permission := range catalogPermissions {
		assert.False(t, f.svc.HasPermission(ctx, outsider.ID, org.ID, permission),
			"outsider must not hold %s", permission)
	}
}

func TestHasPermissionWildcardCoversEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	assert.True(t, f.svc.HasPermission(ctx, owner.ID, org.ID, "organization.delete"))
	assert.True(t, f.svc.HasPermission(ctx, owner.ID, org.ID, models.PermissionAdminFull))
}

func TestHasPermissionDeniedWhileSuspended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	member := f.createUser(t, "member@example.com")

	_, err := f.svc.InviteUser(ctx, org.ID, member.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptInvitation(ctx, member.ID, org.ID)
	require.NoError(t, err)
	assert.True(t, f.svc.HasPermission(ctx, member.ID, org.ID, "organization.read"))

	_, err = f.svc.SuspendMember(ctx, org.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, f.svc.HasPermission(ctx, member.ID, org.ID, "organization.read"))
}

func TestCreateOrganizationBindsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	assert.Equal(t, 1, f.store.MembershipCount())

	membership, err := f.store.GetActiveMembership(ctx, owner.ID, org.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ownerRole.ID, membership.RoleID)
	assert.Equal(t, models.MembershipStatusActive, membership.Status)
}

func TestCreateOrganizationRejectsDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	f.createOrganization(t, "acme", owner.ID)

	_, err := f.svc.CreateOrganization(ctx, "Acme Again", "acme", "", "free", owner.ID)
	assert.ErrorIs(t, err, store.ErrDuplicateSlug)
	assert.Equal(t, 1, f.store.OrganizationCount())
}

func TestCreateOrganizationRejectsBadSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	_, err := f.svc.CreateOrganization(ctx, "Acme", "Not A Slug!", "", "free", owner.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation)
}

func TestCreateOrganizationIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	f.store.FailOwnerMembership = errors.New("membership insert failed")

	_, err := f.svc.CreateOrganization(ctx, "Acme", "acme", "", "free", owner.ID)
	require.Error(t, err)
	assert.Equal(t, 0, f.store.OrganizationCount())
	assert.Equal(t, 0, f.store.MembershipCount())
}

func TestInviteUserUnknownEmailIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	before := f.store.MembershipCount()

	membership, err := f.svc.InviteUser(ctx, org.ID, "nobody@example.com", f.memberRole.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, membership)
	assert.Equal(t, before, f.store.MembershipCount())
	assert.Empty(t, f.mailer.sent)
}

func TestInviteUserUpsertsSingleRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	invitee := f.createUser(t, "invitee@example.com")

	first, err := f.svc.InviteUser(ctx, org.ID, invitee.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.MembershipStatusPending, first.Status)

	// Re-invite with a different role updates the same row
	second, err := f.svc.InviteUser(ctx, org.ID, invitee.Email, f.ownerRole.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, f.ownerRole.ID, second.RoleID)
	assert.Equal(t, 2, f.store.MembershipCount()) // owner + invitee
	assert.Equal(t, []string{invitee.Email, invitee.Email}, f.mailer.sent)
}

func TestInviteUserSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	invitee := f.createUser(t, "invitee@example.com")
	f.mailer.Err = errors.New("smtp down")

	membership, err := f.svc.InviteUser(ctx, org.ID, invitee.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, membership)
}

func TestAcceptInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	invitee := f.createUser(t, "invitee@example.com")

	_, err := f.svc.InviteUser(ctx, org.ID, invitee.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)

	membership, err := f.svc.AcceptInvitation(ctx, invitee.ID, org.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, membership.Status)
	assert.False(t, membership.JoinedAt.IsZero())

	// Accepting twice is a validation failure
	_, err = f.svc.AcceptInvitation(ctx, invitee.ID, org.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation)
}

func TestMembershipStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	member := f.createUser(t, "member@example.com")

	_, err := f.svc.InviteUser(ctx, org.ID, member.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)

	// A pending membership cannot be suspended
	_, err = f.svc.SuspendMember(ctx, org.ID, member.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation)

	_, err = f.svc.AcceptInvitation(ctx, member.ID, org.ID)
	require.NoError(t, err)

	// An active membership cannot be unsuspended
	_, err = f.svc.UnsuspendMember(ctx, org.ID, member.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation)

	suspended, err := f.svc.SuspendMember(ctx, org.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusSuspended, suspended.Status)

	restored, err := f.svc.UnsuspendMember(ctx, org.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, restored.Status)
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	member := f.createUser(t, "member@example.com")

	_, err := f.svc.InviteUser(ctx, org.ID, member.Email, f.memberRole.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptInvitation(ctx, member.ID, org.ID)
	require.NoError(t, err)

	membership, role, err := f.svc.UpdateMemberRole(ctx, org.ID, member.ID, f.ownerRole.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ownerRole.ID, membership.RoleID)
	assert.Equal(t, "Owner", role.Name)

	_, _, err = f.svc.UpdateMemberRole(ctx, org.ID, member.ID, uuid.New())
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

func TestCreateRoleValidatesPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.svc.CreateRole(ctx, "Auditor", "Read-only audit access", []string{"audit.read", "audit.export"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"audit.read", "audit.export"}, []string(role.Permissions))

	_, err = f.svc.CreateRole(ctx, "Broken", "", []string{"audit.read", "no.such.permission"})
	assert.ErrorIs(t, err, rbac.ErrValidation)
}

func TestDeleteRoleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.DeleteRole(ctx, f.ownerRole.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation, "system roles are protected")

	custom, err := f.svc.CreateRole(ctx, "Auditor", "", []string{"audit.read"})
	require.NoError(t, err)

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	member := f.createUser(t, "member@example.com")
	_, err = f.svc.InviteUser(ctx, org.ID, member.Email, custom.ID, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.DeleteRole(ctx, custom.ID)
	assert.ErrorIs(t, err, rbac.ErrValidation, "referenced roles are protected")

	unused, err := f.svc.CreateRole(ctx, "Unused", "", nil)
	require.NoError(t, err)
	deleted, err := f.svc.DeleteRole(ctx, unused.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unused", deleted.Name)
}

func TestBulkUpdateRolePermissionsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original := append([]string(nil), f.memberRole.Permissions...)
	changes := map[uuid.UUID][]string{
		f.memberRole.ID: {"organization.read", "no.such.permission"},
	}

	_, err := f.svc.BulkUpdateRolePermissions(ctx, changes)
	assert.ErrorIs(t, err, rbac.ErrValidation)

	role, err := f.store.GetRoleByID(ctx, f.memberRole.ID)
	require.NoError(t, err)
	assert.Equal(t, original, []string(role.Permissions), "nothing may be written on validation failure")

	updated, err := f.svc.BulkUpdateRolePermissions(ctx, map[uuid.UUID][]string{
		f.memberRole.ID: {"organization.read", "audit.read"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Member"}, updated)

	role, err = f.store.GetRoleByID(ctx, f.memberRole.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"organization.read", "audit.read"}, []string(role.Permissions))
}

func TestDeleteOrganizationCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)
	f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionOrganizationCreated,
		"organization", org.ID.String(), "", rbac.OrganizationCreatedDetails{Name: org.Name, Tier: "free"}, "", "")

	require.Equal(t, 1, f.store.MembershipCount())
	require.Equal(t, 1, f.store.AuditLogCount())

	deleted, err := f.svc.DeleteOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, deleted.ID)

	assert.Equal(t, 0, f.store.OrganizationCount())
	assert.Equal(t, 0, f.store.MembershipCount())
	assert.Equal(t, 0, f.store.AuditLogCount())

	// The record of the deletion itself is written after the delete and
	// must persist even though the organization is gone.
	f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionOrganizationDeleted,
		"organization", org.ID.String(), models.AuditSeverityWarning,
		rbac.OrganizationDeletedDetails{Name: org.Name}, "", "")

	entries, total, err := f.svc.GetAuditLogs(ctx, org.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, rbac.ActionOrganizationDeleted, entries[0].Action)
	assert.Equal(t, org.ID.String(), entries[0].ResourceID)

	_, err = f.svc.DeleteOrganization(ctx, org.ID)
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

func TestLogAuditDefaultsAndResilience(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionMemberInvited,
		"membership", "some-id", "", rbac.MemberInvitedDetails{Email: "x@example.com", RoleName: "Member"}, "203.0.113.9", "test-agent")

	entries, total, err := f.svc.GetAuditLogs(ctx, org.ID, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	entry := entries[0]
	assert.Equal(t, models.AuditSeverityInfo, entry.Severity, "severity defaults to info")
	assert.Equal(t, rbac.ActionMemberInvited, entry.Action)
	assert.Equal(t, "some-id", entry.ResourceID)
	assert.Equal(t, models.JSON{"email": "x@example.com", "role_name": "Member"}, entry.Details)
}

func TestGetAuditLogsPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	for i := 0; i < 3; i++ {
		f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionRoleCreated,
			"role", uuid.NewString(), "", nil, "", "")
	}

	page, total, err := f.svc.GetAuditLogs(ctx, org.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	rest, _, err := f.svc.GetAuditLogs(ctx, org.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestExportAuditLogsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionRoleCreated,
		"role", "role-1", models.AuditSeverityInfo, nil, "", "")
	f.svc.LogAudit(ctx, owner.ID, org.ID, rbac.ActionRoleDeleted,
		"role", "role-1", models.AuditSeverityWarning, nil, "", "")

	bySeverity, err := f.svc.ExportAuditLogs(ctx, org.ID, store.AuditLogFilter{Severity: models.AuditSeverityWarning})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, rbac.ActionRoleDeleted, bySeverity[0].Action)

	byAction, err := f.svc.ExportAuditLogs(ctx, org.ID, store.AuditLogFilter{Action: rbac.ActionRoleCreated})
	require.NoError(t, err)
	require.Len(t, byAction, 1)

	bySearch, err := f.svc.ExportAuditLogs(ctx, org.ID, store.AuditLogFilter{Search: "role-1"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)
}

func TestExportAuditLogsDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com")
	org := f.createOrganization(t, "acme", owner.ID)

	appendAt := func(ts time.Time, resourceID, severity string) {
		t.Helper()
		require.NoError(t, f.store.AppendAuditLog(ctx, &models.AuditLog{
			UserID:         owner.ID,
			OrganizationID: org.ID,
			Action:         rbac.ActionRoleCreated,
			Resource:       "role",
			ResourceID:     resourceID,
			Severity:       severity,
			CreatedAt:      ts,
		}))
	}

	appendAt(time.Date(2026, 5, 31, 23, 0, 0, 0, time.UTC), "before-range", models.AuditSeverityInfo)
	appendAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), "on-start-date", models.AuditSeverityError)
	appendAt(time.Date(2026, 6, 30, 23, 59, 0, 0, time.UTC), "on-end-date", models.AuditSeverityInfo)
	appendAt(time.Date(2026, 7, 1, 0, 30, 0, 0, time.UTC), "after-range", models.AuditSeverityError)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	// The end date is inclusive of its whole day
	inRange, err := f.svc.ExportAuditLogs(ctx, org.ID, store.AuditLogFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "on-end-date", inRange[0].ResourceID)
	assert.Equal(t, "on-start-date", inRange[1].ResourceID)

	// Severity narrows the same range further
	errorsInRange, err := f.svc.ExportAuditLogs(ctx, org.ID, store.AuditLogFilter{
		StartDate: &start,
		EndDate:   &end,
		Severity:  models.AuditSeverityError,
	})
	require.NoError(t, err)
	require.Len(t, errorsInRange, 1)
	assert.Equal(t, "on-start-date", errorsInRange[0].ResourceID)
}
