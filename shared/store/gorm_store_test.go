package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/store"
)

func newMockStore(t *testing.T) (*store.GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return store.NewGormStore(gdb), mock
}

func TestCreateOrganizationWithOwnerRollsBackOnMembershipFailure(t *testing.T) {
	s, mock := newMockStore(t)

	orgID := uuid.New()
	ownerID := uuid.New()
	roleID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orgID))
	mock.ExpectQuery(`INSERT INTO "user_organizations"`).
		WillReturnError(errors.New("membership insert failed"))
	mock.ExpectRollback()

	org := &models.Organization{Name: "Acme", Slug: "acme"}
	err := s.CreateOrganizationWithOwner(context.Background(), org, ownerID, roleID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "membership insert failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationWithOwnerCommits(t *testing.T) {
	s, mock := newMockStore(t)

	orgID := uuid.New()
	membershipID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orgID))
	mock.ExpectQuery(`INSERT INTO "user_organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(membershipID))
	mock.ExpectCommit()

	org := &models.Organization{Name: "Acme", Slug: "acme"}
	err := s.CreateOrganizationWithOwner(context.Background(), org, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationWithOwnerTranslatesUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_organizations_slug"})
	mock.ExpectRollback()

	org := &models.Organization{Name: "Acme", Slug: "acme"}
	err := s.CreateOrganizationWithOwner(context.Background(), org, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrDuplicateSlug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrganizationBySlugTranslatesNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

	_, err := s.GetOrganizationBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "organizations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.DeleteOrganization(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrganizationRemovesScopedAuditEntries(t *testing.T) {
	s, mock := newMockStore(t)
	orgID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "organizations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "audit_logs"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteOrganization(context.Background(), orgID))

	// The deletion record is appended after the delete and must insert
	// cleanly even though the organization row is gone.
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	entry := &models.AuditLog{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Action:         "organization.deleted",
		Resource:       "organization",
		ResourceID:     orgID.String(),
		Severity:       models.AuditSeverityWarning,
		Details:        models.JSON{},
	}
	require.NoError(t, s.AppendAuditLog(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRolePermissionsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "roles"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.UpdateRolePermissions(context.Background(), map[uuid.UUID][]string{
		uuid.New(): {"audit.read"},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRolePermissionsRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "roles"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.UpdateRolePermissions(context.Background(), map[uuid.UUID][]string{
		uuid.New(): {"audit.read"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMembershipNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "user_organizations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateMembership(context.Background(), &models.Membership{ID: uuid.New()})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
