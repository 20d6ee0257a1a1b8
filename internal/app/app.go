// Package app wires the components shared by the server and tenantctl
// from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	"github.com/suteetoe/tenantstarter/internal/partition"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/repository"
	"github.com/suteetoe/tenantstarter/internal/resolver"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/config"
	"github.com/suteetoe/tenantstarter/pkg/database"
	"github.com/suteetoe/tenantstarter/pkg/jwtutil"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// App holds the wired components
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Catalog  registry.Catalog
	Engine   partition.Engine
	Scoper   *tenancy.Scoper
	Store    *tenancy.Store
	Repo     *repository.Repository
	Storage  storage.Backend
	Manager  *lifecycle.Manager
	Resolver *resolver.Resolver
	JWT      *jwtutil.JWTUtil
}

// New connects to the database, and to Redis when configured, and builds
// every component on top.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.GetLogger()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &App{Config: cfg, DB: db}

	tc := cfg.Tenancy
	var catalog registry.Catalog = registry.NewPostgres(db, registry.Options{
		PublicSchema:    tc.PublicSchema,
		KeyPrefix:       tc.KeyPrefix,
		Languages:       tc.Languages,
		DefaultLanguage: tc.DefaultLanguage,
	})
	if cfg.Redis.Addr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			// The cache is optional; lookups fall through to the database
			log.Warn("Redis unreachable, hostname cache may be cold", zap.Error(err))
		}
		catalog = registry.NewCached(catalog, registry.NewRedisKV(a.Redis), tc.CacheTTL)
		log.Info("Hostname cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	a.Catalog = catalog

	switch cfg.Storage.Driver {
	case "s3":
		a.Storage, err = storage.NewS3(ctx, cfg.Storage)
	default:
		a.Storage, err = storage.NewLocal(cfg.Storage.LocalRoot)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init %s storage: %w", cfg.Storage.Driver, err)
	}

	a.Engine = partition.NewPostgres(db, tc.PublicSchema)
	a.Scoper = tenancy.NewScoper(tc.Languages, tc.DefaultLanguage)
	a.Store = tenancy.NewStore(db, tc.PublicSchema)
	a.Repo = repository.New(a.Store)
	a.Manager = lifecycle.NewManager(a.Catalog, a.Engine, a.Scoper, lifecycle.NewStoreAccounts(a.Store),
		lifecycle.WithStorage(a.Storage, cfg.Storage.PublicMedia),
		lifecycle.WithPublicSchema(tc.PublicSchema),
	)
	a.Resolver = resolver.New(a.Catalog, a.Scoper)
	a.JWT = jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	return a, nil
}

// Ping checks the database connection
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database pool and the Redis client
func (a *App) Close() error {
	var err error
	if a.Redis != nil {
		err = multierr.Append(err, a.Redis.Close())
	}
	if a.DB != nil {
		err = multierr.Append(err, database.Close(a.DB))
	}
	return err
}
