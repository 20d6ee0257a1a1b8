package tenancy

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/suteetoe/tenantstarter/internal/schema"
)

// Store runs data access against the partition bound to the caller's
// context. The search_path is set with SET LOCAL, so the binding lives on
// one pooled connection for one transaction and never leaks to the next
// request that borrows the connection.
type Store struct {
	db           *gorm.DB
	publicSchema string
}

// NewStore creates a Store over db. publicSchema names the public partition.
func NewStore(db *gorm.DB, publicSchema string) *Store {
	if publicSchema == "" {
		publicSchema = "public"
	}
	return &Store{db: db, publicSchema: publicSchema}
}

// DB returns the underlying handle, unscoped
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tx runs fn in a transaction bound to the current partition. It fails
// with ErrNoTenantContext outside a scope, ErrCrossPartition when entity
// does not live in the current kind of partition, and ErrMissingPartition
// when the current tenant's schema does not exist.
func (s *Store) Tx(ctx context.Context, entity Entity, fn func(tx *gorm.DB) error) error {
	t, err := MustCurrent(ctx)
	if err != nil {
		return err
	}
	public := t.IsPublic()
	if err := CheckAccess(entity, public); err != nil {
		return err
	}
	target := t.SchemaName
	if public {
		target = s.publicSchema
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !public {
			exists, err := schemaExists(tx, target)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", ErrMissingPartition, target)
			}
		}
		if err := SetSearchPath(tx, target); err != nil {
			return err
		}
		return fn(tx)
	})
}

// SetSearchPath binds tx to a single schema for the rest of the transaction
func SetSearchPath(tx *gorm.DB, schemaName string) error {
	if err := tx.Exec("SET LOCAL search_path TO " + schema.QuoteIdent(schemaName)).Error; err != nil {
		return fmt.Errorf("set search_path %s: %w", schemaName, err)
	}
	return nil
}

func schemaExists(tx *gorm.DB, name string) (bool, error) {
	var exists bool
	err := tx.Raw("SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)", name).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check schema %s: %w", name, err)
	}
	return exists, nil
}
