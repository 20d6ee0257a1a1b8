package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

func setup(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(tenancy.NewStore(db, "public")), mock
}

func scoped(t *testing.T, schemaName string, typ model.TenantType) context.Context {
	t.Helper()
	ctx, release := tenancy.NewScoper([]string{"en"}, "en").Enter(context.Background(),
		&model.Tenant{Name: schemaName, SchemaName: schemaName, Type: typ})
	t.Cleanup(release)
	return ctx
}

func expectTenantTx(mock sqlmock.Sqlmock, schemaName string) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(schemaName).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "` + schemaName + `"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUserByUsername(t *testing.T) {
	repo, mock := setup(t)
	ctx := scoped(t, "tenant_acme", model.TenantTypeClient)

	expectTenantTx(mock, "tenant_acme")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE (username = $1 AND is_active = $2)`)).
		WithArgs("alice", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(7, "alice", "alice@acme.test"))
	mock.ExpectCommit()

	user, err := repo.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "alice@acme.test", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserByUsernameNotFound(t *testing.T) {
	repo, mock := setup(t)
	ctx := scoped(t, "tenant_acme", model.TenantTypeClient)

	expectTenantTx(mock, "tenant_acme")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.UserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContactMessagePublicOnly(t *testing.T) {
	repo, mock := setup(t)

	ctx := scoped(t, "tenant_acme", model.TenantTypeClient)
	err := repo.CreateContactMessage(ctx, &model.ContactMessage{Name: "Eve", Email: "eve@example.com", Message: "hi"})
	assert.ErrorIs(t, err, tenancy.ErrCrossPartition)

	ctx = scoped(t, "public", model.TenantTypePublic)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "public"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "contact_messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	msg := &model.ContactMessage{Name: "Eve", Email: "eve@example.com", Message: "hi"}
	require.NoError(t, repo.CreateContactMessage(ctx, msg))
	assert.Equal(t, uint(1), msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersNeedsScope(t *testing.T) {
	repo, _ := setup(t)
	_, err := repo.ListUsers(context.Background())
	assert.ErrorIs(t, err, tenancy.ErrNoTenantContext)

	_, err = repo.ListLocations(scoped(t, "public", model.TenantTypePublic))
	assert.ErrorIs(t, err, tenancy.ErrCrossPartition)
}
