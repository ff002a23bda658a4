package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/utils/query"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It enforces the same invariants as the Postgres schema: unique slugs,
// one membership per (user, organization) pair, and cascade deletion of an
// organization's memberships and audit entries.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[uuid.UUID]models.User
	organizations map[uuid.UUID]models.Organization
	roles         map[uuid.UUID]models.Role
	permissions   map[uuid.UUID]models.Permission
	memberships   map[uuid.UUID]models.Membership
	auditLogs     []models.AuditLog

	// FailOwnerMembership makes the membership half of
	// CreateOrganizationWithOwner fail, for atomicity tests.
	FailOwnerMembership error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uuid.UUID]models.User),
		organizations: make(map[uuid.UUID]models.Organization),
		roles:         make(map[uuid.UUID]models.Role),
		permissions:   make(map[uuid.UUID]models.Permission),
		memberships:   make(map[uuid.UUID]models.Membership),
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// --- Users ---

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureID(&user.ID)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

// --- Organizations ---

func (s *MemoryStore) CreateOrganizationWithOwner(_ context.Context, org *models.Organization, ownerID, ownerRoleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.organizations {
		if existing.Slug == org.Slug {
			return ErrDuplicateSlug
		}
	}

	// Both inserts apply under one lock; validate the membership half
	// before the organization becomes visible.
	if s.FailOwnerMembership != nil {
		return s.FailOwnerMembership
	}

	ensureID(&org.ID)
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.Settings == nil {
		org.Settings = models.JSON{}
	}
	s.organizations[org.ID] = *org

	membership := models.Membership{
		ID:             uuid.New(),
		UserID:         ownerID,
		OrganizationID: org.ID,
		RoleID:         ownerRoleID,
		Status:         models.MembershipStatusActive,
		JoinedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.memberships[membership.ID] = membership
	return nil
}

func (s *MemoryStore) GetOrganizationByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if org, ok := s.organizations[id]; ok {
		return &org, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetOrganizationBySlug(_ context.Context, slug string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.organizations {
		if org.Slug == slug {
			o := org
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListOrganizations(_ context.Context, params query.FilterParams) ([]models.Organization, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Organization
	for _, org := range s.organizations {
		if tier, ok := params.Filters["subscription_tier"]; ok && org.SubscriptionTier != tier {
			continue
		}
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(org.Name), needle) &&
				!strings.Contains(strings.ToLower(org.Slug), needle) {
				continue
			}
		}
		matched = append(matched, org)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) DeleteOrganization(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.organizations[id]; !ok {
		return ErrNotFound
	}
	delete(s.organizations, id)

	// Memberships mirror the Postgres foreign key cascade; scoped audit
	// entries are removed here, as the Postgres store does in its delete
	// transaction.
	for membershipID, membership := range s.memberships {
		if membership.OrganizationID == id {
			delete(s.memberships, membershipID)
		}
	}
	kept := s.auditLogs[:0]
	for _, entry := range s.auditLogs {
		if entry.OrganizationID != id {
			kept = append(kept, entry)
		}
	}
	s.auditLogs = kept
	return nil
}

// --- Roles ---

func (s *MemoryStore) GetRoleByID(_ context.Context, id uuid.UUID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if role, ok := s.roles[id]; ok {
		return &role, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetRoleByName(_ context.Context, name string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, role := range s.roles {
		if role.Name == name {
			r := role
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListRoles(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]models.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (s *MemoryStore) CreateRole(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureID(&role.ID)
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now
	s.roles[role.ID] = *role
	return nil
}

func (s *MemoryStore) DeleteRole(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *MemoryStore) UpdateRolePermissions(_ context.Context, changes map[uuid.UUID][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All roles must resolve before anything is written
	for roleID := range changes {
		if _, ok := s.roles[roleID]; !ok {
			return ErrNotFound
		}
	}

	now := time.Now().UTC()
	for roleID, permissions := range changes {
		role := s.roles[roleID]
		role.Permissions = append(role.Permissions[:0:0], permissions...)
		role.UpdatedAt = now
		s.roles[roleID] = role
	}
	return nil
}

func (s *MemoryStore) CountMembershipsByRole(_ context.Context, roleID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, membership := range s.memberships {
		if membership.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

// --- Permissions ---

func (s *MemoryStore) ListPermissions(_ context.Context) ([]models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permissions := make([]models.Permission, 0, len(s.permissions))
	for _, permission := range s.permissions {
		permissions = append(permissions, permission)
	}
	sort.Slice(permissions, func(i, j int) bool {
		if permissions[i].Resource != permissions[j].Resource {
			return permissions[i].Resource < permissions[j].Resource
		}
		return permissions[i].Action < permissions[j].Action
	})
	return permissions, nil
}

func (s *MemoryStore) GetPermissionsByNames(_ context.Context, names []string) ([]models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var permissions []models.Permission
	for _, permission := range s.permissions {
		if wanted[permission.Name] {
			permissions = append(permissions, permission)
		}
	}
	return permissions, nil
}

// CreatePermission seeds a permission into the fake catalog
func (s *MemoryStore) CreatePermission(permission models.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureID(&permission.ID)
	s.permissions[permission.ID] = permission
}

// --- Memberships ---

func (s *MemoryStore) GetMembership(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findMembershipLocked(userID, orgID)
}

func (s *MemoryStore) findMembershipLocked(userID, orgID uuid.UUID) (*models.Membership, error) {
	for _, membership := range s.memberships {
		if membership.UserID == userID && membership.OrganizationID == orgID {
			m := membership
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetActiveMembership(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, err := s.findMembershipLocked(userID, orgID)
	if err != nil {
		return nil, err
	}
	if membership.Status != models.MembershipStatusActive {
		return nil, ErrNotFound
	}
	if role, ok := s.roles[membership.RoleID]; ok {
		r := role
		membership.Role = &r
	}
	return membership, nil
}

func (s *MemoryStore) ListUserMemberships(_ context.Context, userID uuid.UUID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memberships []models.Membership
	for _, membership := range s.memberships {
		if membership.UserID != userID || membership.Status != models.MembershipStatusActive {
			continue
		}
		m := membership
		if role, ok := s.roles[m.RoleID]; ok {
			r := role
			m.Role = &r
		}
		if org, ok := s.organizations[m.OrganizationID]; ok {
			o := org
			m.Organization = &o
		}
		memberships = append(memberships, m)
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].JoinedAt.After(memberships[j].JoinedAt)
	})
	return memberships, nil
}

func (s *MemoryStore) ListOrganizationMembers(_ context.Context, orgID uuid.UUID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memberships []models.Membership
	for _, membership := range s.memberships {
		if membership.OrganizationID != orgID {
			continue
		}
		m := membership
		if user, ok := s.users[m.UserID]; ok {
			u := user
			m.User = &u
		}
		if role, ok := s.roles[m.RoleID]; ok {
			r := role
			m.Role = &r
		}
		memberships = append(memberships, m)
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].JoinedAt.After(memberships[j].JoinedAt)
	})
	return memberships, nil
}

func (s *MemoryStore) UpsertInvitation(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, err := s.findMembershipLocked(membership.UserID, membership.OrganizationID); err == nil {
		existing.RoleID = membership.RoleID
		existing.Status = membership.Status
		existing.InvitedBy = membership.InvitedBy
		existing.InvitedAt = membership.InvitedAt
		existing.UpdatedAt = now
		s.memberships[existing.ID] = *existing
		*membership = *existing
		return nil
	}

	ensureID(&membership.ID)
	membership.JoinedAt = now
	membership.CreatedAt = now
	membership.UpdatedAt = now
	s.memberships[membership.ID] = *membership
	return nil
}

func (s *MemoryStore) UpdateMembership(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.memberships[membership.ID]
	if !ok {
		return ErrNotFound
	}
	existing.RoleID = membership.RoleID
	existing.Status = membership.Status
	existing.JoinedAt = membership.JoinedAt
	existing.UpdatedAt = time.Now().UTC()
	s.memberships[membership.ID] = existing
	return nil
}

// --- Audit log ---

func (s *MemoryStore) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureID(&entry.ID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = models.JSON{}
	}
	s.auditLogs = append(s.auditLogs, *entry)
	return nil
}

func (s *MemoryStore) ListAuditLogs(_ context.Context, orgID uuid.UUID, limit, offset int) ([]models.AuditLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.collectAuditLocked(orgID)
	total := int64(len(entries))

	if offset > len(entries) {
		offset = len(entries)
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], total, nil
}

func (s *MemoryStore) FilterAuditLogs(_ context.Context, orgID uuid.UUID, filter AuditLogFilter) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.AuditLog
	for _, entry := range s.collectAuditLocked(orgID) {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Severity != "" && entry.Severity != filter.Severity {
			continue
		}
		if filter.StartDate != nil && entry.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !entry.CreatedAt.Before(filter.EndDate.Add(24*time.Hour)) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(entry.Action), needle) &&
				!strings.Contains(strings.ToLower(entry.Resource), needle) &&
				!strings.Contains(strings.ToLower(entry.ResourceID), needle) {
				continue
			}
		}
		matched = append(matched, entry)
	}
	return matched, nil
}

func (s *MemoryStore) collectAuditLocked(orgID uuid.UUID) []models.AuditLog {
	var entries []models.AuditLog
	for _, entry := range s.auditLogs {
		if entry.OrganizationID != orgID {
			continue
		}
		e := entry
		if user, ok := s.users[e.UserID]; ok {
			u := user
			e.User = &u
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// MembershipCount reports the number of membership rows, for test assertions
func (s *MemoryStore) MembershipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memberships)
}

// OrganizationCount reports the number of organizations, for test assertions
func (s *MemoryStore) OrganizationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.organizations)
}

// AuditLogCount reports the number of audit entries, for test assertions
func (s *MemoryStore) AuditLogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.auditLogs)
}
