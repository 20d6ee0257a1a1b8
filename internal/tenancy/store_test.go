package tenancy

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
)

const existsQuery = "SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)"

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestStoreTxBindsTenantSchema(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, "public")
	s := NewScoper([]string{"en"}, "en")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
		WithArgs("tenant_acme").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "tenant_acme"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := s.Run(context.Background(), tenant("tenant_acme", model.TenantTypeClient), func(ctx context.Context) error {
		return store.Tx(ctx, EntityUser, func(tx *gorm.DB) error {
			called = true
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTxPublicSkipsExistenceCheck(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, "public")
	s := NewScoper([]string{"en"}, "en")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "public"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.Run(context.Background(), tenant("public", model.TenantTypePublic), func(ctx context.Context) error {
		return store.Tx(ctx, EntityTenant, func(tx *gorm.DB) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTxMissingPartition(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, "public")
	s := NewScoper([]string{"en"}, "en")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
		WithArgs("tenant_gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := s.Run(context.Background(), tenant("tenant_gone", model.TenantTypeClient), func(ctx context.Context) error {
		return store.Tx(ctx, EntityUser, func(tx *gorm.DB) error {
			t.Fatal("fn must not run without a partition")
			return nil
		})
	})
	assert.ErrorIs(t, err, ErrMissingPartition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTxFailsFast(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, "public")
	s := NewScoper([]string{"en"}, "en")
	noop := func(tx *gorm.DB) error { return nil }

	err := store.Tx(context.Background(), EntityUser, noop)
	assert.ErrorIs(t, err, ErrNoTenantContext)

	err = s.Run(context.Background(), tenant("public", model.TenantTypePublic), func(ctx context.Context) error {
		return store.Tx(ctx, EntityUser, noop)
	})
	assert.ErrorIs(t, err, ErrCrossPartition)

	err = s.Run(context.Background(), tenant("tenant_acme", model.TenantTypeClient), func(ctx context.Context) error {
		return store.Tx(ctx, EntityDomain, noop)
	})
	assert.ErrorIs(t, err, ErrCrossPartition)

	assert.NoError(t, mock.ExpectationsWereMet())
}
