// Package partition creates, drops and migrates the physical PostgreSQL
// schemas that hold each tenant's tables.
package partition

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/suteetoe/tenantstarter/internal/schema"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Engine manages physical partitions
type Engine interface {
	// CreateSchema creates the partition. With checkExists an existing
	// partition is left alone, otherwise it is an error.
	CreateSchema(ctx context.Context, name string, checkExists bool) error
	SchemaExists(ctx context.Context, name string) (bool, error)
	// DropSchema removes the partition and everything in it
	DropSchema(ctx context.Context, name string) error
	// Migrate applies the pending migrations of set to the partition
	Migrate(ctx context.Context, name string, set Set) error
	// Applied lists the migration versions recorded in the partition
	Applied(ctx context.Context, name string) ([]int, error)
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version integer PRIMARY KEY,
	name text NOT NULL,
	applied_at timestamptz NOT NULL DEFAULT now()
)`

// Postgres is the Engine over a shared gorm pool
type Postgres struct {
	db           *gorm.DB
	publicSchema string
}

// NewPostgres creates an engine. publicSchema names the public partition.
func NewPostgres(db *gorm.DB, publicSchema string) *Postgres {
	if publicSchema == "" {
		publicSchema = "public"
	}
	return &Postgres{db: db, publicSchema: publicSchema}
}

// checkSet refuses to apply a set to the wrong kind of partition
func checkSet(name, publicSchema string, set Set) error {
	public := name == publicSchema
	if public && set.Scope != tenancy.ScopePublic {
		return fmt.Errorf("%w: %s migrations cannot run on the public partition", tenancy.ErrCrossPartition, set.Name)
	}
	if !public && set.Scope != tenancy.ScopeTenant {
		return fmt.Errorf("%w: %s migrations cannot run on %s", tenancy.ErrCrossPartition, set.Name, name)
	}
	return nil
}

func (p *Postgres) CreateSchema(ctx context.Context, name string, checkExists bool) error {
	if err := schema.Validate(name); err != nil {
		return err
	}
	defer prometheus.TrackDBOperation("create_schema")(time.Now())
	stmt := "CREATE SCHEMA "
	if checkExists {
		stmt += "IF NOT EXISTS "
	}
	if err := p.db.WithContext(ctx).Exec(stmt + schema.QuoteIdent(name)).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", name, err)
	}
	logger.FromContext(ctx).Info("Partition created", zap.String("schema", name))
	return nil
}

func (p *Postgres) SchemaExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)", name).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check schema %s: %w", name, err)
	}
	return exists, nil
}

func (p *Postgres) DropSchema(ctx context.Context, name string) error {
	if name == p.publicSchema {
		return fmt.Errorf("%w: the public partition cannot be dropped", tenancy.ErrInvalidKey)
	}
	if err := schema.Validate(name); err != nil {
		return err
	}
	defer prometheus.TrackDBOperation("drop_schema")(time.Now())
	if err := p.db.WithContext(ctx).Exec("DROP SCHEMA IF EXISTS " + schema.QuoteIdent(name) + " CASCADE").Error; err != nil {
		return fmt.Errorf("drop schema %s: %w", name, err)
	}
	logger.FromContext(ctx).Info("Partition dropped", zap.String("schema", name))
	return nil
}

// Migrate runs the pending steps in one transaction. An advisory lock keyed
// on the partition name serialises concurrent runs against one partition.
func (p *Postgres) Migrate(ctx context.Context, name string, set Set) error {
	if err := checkSet(name, p.publicSchema, set); err != nil {
		return err
	}
	defer prometheus.TrackOperation("migrate")(time.Now())
	log := logger.FromContext(ctx).With(zap.String("schema", name), zap.String("set", set.Name))

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", name).Error; err != nil {
			return fmt.Errorf("lock %s: %w", name, err)
		}
		var exists bool
		if err := tx.Raw("SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)", name).
			Scan(&exists).Error; err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", tenancy.ErrMissingPartition, name)
		}
		if err := tenancy.SetSearchPath(tx, name); err != nil {
			return err
		}
		if err := tx.Exec(migrationsTable).Error; err != nil {
			return fmt.Errorf("create schema_migrations in %s: %w", name, err)
		}
		var applied []int
		if err := tx.Raw("SELECT version FROM schema_migrations").Scan(&applied).Error; err != nil {
			return err
		}
		done := make(map[int]bool, len(applied))
		for _, v := range applied {
			done[v] = true
		}

		for _, m := range pending(set, done) {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d_%s: %w", m.Version, m.Name, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name).Error; err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			log.Info("Migration applied", zap.Int("version", m.Version), zap.String("name", m.Name))
		}
		return nil
	})
}

func (p *Postgres) Applied(ctx context.Context, name string) ([]int, error) {
	var versions []int
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenancy.SetSearchPath(tx, name); err != nil {
			return err
		}
		return tx.Raw("SELECT version FROM schema_migrations ORDER BY version").Scan(&versions).Error
	})
	return versions, err
}

// pending returns the steps of set not yet in done, in version order
func pending(set Set, done map[int]bool) []Migration {
	out := make([]Migration, 0, len(set.Migrations))
	for _, m := range set.Migrations {
		if !done[m.Version] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
