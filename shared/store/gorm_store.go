package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/utils/query"
)

// GormStore is the Postgres-backed Store implementation
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

func (s *GormStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// --- Organizations ---

// CreateOrganizationWithOwner wraps the organization insert and the owner
// membership insert in one transaction so a failure between them cannot
// leave an organization without an owner.
func (s *GormStore) CreateOrganizationWithOwner(ctx context.Context, org *models.Organization, ownerID, ownerRoleID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			// A concurrent create can slip past the service's slug
			// pre-check; the unique index is the authority.
			if isUniqueViolation(err) {
				return ErrDuplicateSlug
			}
			return err
		}

		membership := models.Membership{
			UserID:         ownerID,
			OrganizationID: org.ID,
			RoleID:         ownerRoleID,
			Status:         models.MembershipStatusActive,
		}
		return tx.Create(&membership).Error
	})
}

func (s *GormStore) GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &org, nil
}

func (s *GormStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "slug = ?", slug).Error; err != nil {
		return nil, translateError(err)
	}
	return &org, nil
}

func (s *GormStore) ListOrganizations(ctx context.Context, params query.FilterParams) ([]models.Organization, int64, error) {
	allowedFilters := map[string]string{
		"subscription_tier": "subscription_tier",
		"slug":              "slug",
	}
	allowedSortFields := map[string]string{
		"name":       "name",
		"slug":       "slug",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	searchFields := []string{"name", "slug"}

	dbQuery := s.db.WithContext(ctx).Model(&models.Organization{})
	dbQuery = query.ApplyFilters(dbQuery, params.Filters, allowedFilters)
	dbQuery = query.ApplySearch(dbQuery, params.Search, searchFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)
	dbQuery = query.ApplyPagination(dbQuery, params.Page, params.Limit)

	var organizations []models.Organization
	if err := dbQuery.Find(&organizations).Error; err != nil {
		return nil, 0, err
	}
	return organizations, total, nil
}

// DeleteOrganization removes the organization and its scoped audit entries
// in one transaction. Memberships go with it through the foreign key
// cascade. Audit entries written afterwards, such as the record of the
// deletion itself, are untouched.
func (s *GormStore) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Organization{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("organization_id = ?", id).Delete(&models.AuditLog{}).Error
	})
}

// --- Roles ---

func (s *GormStore) GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (s *GormStore) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (s *GormStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *GormStore) CreateRole(ctx context.Context, role *models.Role) error {
	return s.db.WithContext(ctx).Create(role).Error
}

func (s *GormStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRolePermissions replaces the permission sets of all listed roles in
// a single transaction; a failure on any role leaves every set unchanged.
func (s *GormStore) UpdateRolePermissions(ctx context.Context, changes map[uuid.UUID][]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for roleID, permissions := range changes {
			result := tx.Model(&models.Role{}).
				Where("id = ?", roleID).
				Update("permissions", pq.StringArray(permissions))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

func (s *GormStore) CountMembershipsByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

// --- Permissions ---

func (s *GormStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := s.db.WithContext(ctx).Order("resource ASC, action ASC").Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

func (s *GormStore) GetPermissionsByNames(ctx context.Context, names []string) ([]models.Permission, error) {
	var permissions []models.Permission
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&permissions).Error; err != nil {
		return nil, err
	}
	return permissions, nil
}

// --- Memberships ---

func (s *GormStore) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

func (s *GormStore) GetActiveMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ? AND organization_id = ? AND status = ?",
			userID, orgID, models.MembershipStatusActive).
		First(&membership).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

func (s *GormStore) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Organization").
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
		Order("joined_at DESC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (s *GormStore) ListOrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Role").
		Where("organization_id = ?", orgID).
		Order("joined_at DESC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// UpsertInvitation relies on the unique (user_id, organization_id) index:
// re-inviting overwrites the existing row instead of duplicating it.
func (s *GormStore) UpsertInvitation(ctx context.Context, membership *models.Membership) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"role_id", "status", "invited_by", "invited_at", "updated_at",
		}),
	}).Create(membership).Error
}

func (s *GormStore) UpdateMembership(ctx context.Context, membership *models.Membership) error {
	result := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", membership.ID).
		Updates(map[string]interface{}{
			"role_id":   membership.RoleID,
			"status":    membership.Status,
			"joined_at": membership.JoinedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Audit log ---

func (s *GormStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListAuditLogs(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.AuditLog, int64, error) {
	dbQuery := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("organization_id = ?", orgID)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	err := dbQuery.
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *GormStore) FilterAuditLogs(ctx context.Context, orgID uuid.UUID, filter AuditLogFilter) ([]models.AuditLog, error) {
	dbQuery := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("organization_id = ?", orgID)

	if filter.Action != "" {
		dbQuery = dbQuery.Where("action = ?", filter.Action)
	}
	if filter.Severity != "" {
		dbQuery = dbQuery.Where("severity = ?", filter.Severity)
	}
	if filter.StartDate != nil {
		dbQuery = dbQuery.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		// Inclusive of the whole end day
		dbQuery = dbQuery.Where("created_at < ?", filter.EndDate.Add(24*time.Hour))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbQuery = dbQuery.Where("action ILIKE ? OR resource ILIKE ? OR resource_id ILIKE ?", like, like, like)
	}

	var entries []models.AuditLog
	err := dbQuery.
		Preload("User").
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
