// Package lifecycle creates, provisions and tears down tenants. It owns
// the ordering that keeps a tenant invisible to hostname resolution until
// its partition is fully migrated.
package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/partition"
	"github.com/suteetoe/tenantstarter/internal/policy"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/schema"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Manager runs tenant lifecycle operations
type Manager struct {
	catalog      registry.Catalog
	engine       partition.Engine
	scoper       *tenancy.Scoper
	accounts     Accounts
	storage      storage.Backend
	publicMedia  bool
	publicSchema string
}

// Option configures a Manager
type Option func(*Manager)

// WithStorage makes the manager create and delete tenant buckets
func WithStorage(backend storage.Backend, publicMedia bool) Option {
	return func(m *Manager) {
		m.storage = backend
		m.publicMedia = publicMedia
	}
}

// WithPublicSchema overrides the public partition name
func WithPublicSchema(name string) Option {
	return func(m *Manager) {
		m.publicSchema = name
	}
}

// NewManager creates a Manager
func NewManager(catalog registry.Catalog, engine partition.Engine, scoper *tenancy.Scoper, accounts Accounts, opts ...Option) *Manager {
	m := &Manager{
		catalog:      catalog,
		engine:       engine,
		scoper:       scoper,
		accounts:     accounts,
		publicSchema: "public",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap migrates the public partition and makes sure the public tenant
// exists with the given hostnames.
func (m *Manager) Bootstrap(ctx context.Context, name string, hosts []string) (*model.Tenant, error) {
	if err := m.engine.Migrate(ctx, m.publicSchema, partition.PublicSet); err != nil {
		return nil, &tenancy.ProvisionError{Schema: m.publicSchema, Step: "migrate", Err: err}
	}
	return m.catalog.EnsurePublicTenant(ctx, name, hosts)
}

// Provision creates t's partition and runs the tenant migrations in it. An
// existing partition is adopted and migrated in place. On a failed migration
// a partition created by this call is dropped again; an adopted one is left
// untouched with its data.
func (m *Manager) Provision(ctx context.Context, t *model.Tenant) (err error) {
	defer prometheus.TrackOperation("provision")(time.Now())
	defer func() { prometheus.RecordProvision(err) }()
	log := logger.FromContext(ctx).With(zap.String("schema", t.SchemaName))

	if t.IsPublic() {
		if err := m.engine.Migrate(ctx, t.SchemaName, partition.PublicSet); err != nil {
			return &tenancy.ProvisionError{Schema: t.SchemaName, Step: "migrate", Err: err}
		}
		return nil
	}

	log.Info("Provisioning partition")
	existed, err := m.engine.SchemaExists(ctx, t.SchemaName)
	if err != nil {
		return &tenancy.ProvisionError{Schema: t.SchemaName, Step: "create", Err: err}
	}
	if existed {
		log.Warn("Partition already exists, migrating in place")
	}
	if err := m.engine.CreateSchema(ctx, t.SchemaName, true); err != nil {
		log.Error("Partition creation failed", zap.Error(err))
		return &tenancy.ProvisionError{Schema: t.SchemaName, Step: "create", Err: err}
	}
	if err := m.engine.Migrate(ctx, t.SchemaName, partition.TenantSet); err != nil {
		log.Error("Partition migration failed", zap.Error(err))
		if existed {
			return &tenancy.ProvisionError{Schema: t.SchemaName, Step: "migrate", Err: err}
		}
		if dropErr := m.engine.DropSchema(ctx, t.SchemaName); dropErr != nil {
			log.Error("Dropping half-built partition failed", zap.Error(dropErr))
			err = multierr.Append(err, dropErr)
		}
		return &tenancy.ProvisionError{Schema: t.SchemaName, Step: "migrate", Err: err}
	}
	log.Info("Partition provisioned")
	return nil
}

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9._+\-]+`)

// usernameBase derives a username from the local part of email
func usernameBase(email string) string {
	local := strings.ToLower(email)
	if i := strings.Index(local, "@"); i >= 0 {
		local = local[:i]
	}
	local = usernameUnsafe.ReplaceAllString(local, "")
	if local == "" {
		return "admin"
	}
	return local
}

// GeneratePassword returns 16 random bytes, base64url encoded
func GeneratePassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateAdmin creates a superuser inside t's partition. When password is
// empty one is generated; the returned password is the only copy of the
// plaintext. The caller's scope is restored before returning.
func (m *Manager) CreateAdmin(ctx context.Context, t *model.Tenant, email, password string) (*model.User, string, error) {
	defer prometheus.TrackOperation("create_admin")(time.Now())
	fail := func(err error) (*model.User, string, error) {
		prometheus.RecordTenantOperation("create_admin", err)
		return nil, "", &tenancy.AdminCreationError{Schema: t.SchemaName, Email: email, Err: err}
	}
	if t.IsPublic() {
		return fail(fmt.Errorf("%w: users live in client partitions", tenancy.ErrCrossPartition))
	}
	if password == "" {
		generated, err := GeneratePassword()
		if err != nil {
			return fail(err)
		}
		password = generated
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(err)
	}

	user := &model.User{
		Email:           email,
		Password:        string(hash),
		IsStaff:         true,
		IsSuperuser:     true,
		IsActive:        true,
		IsEmailVerified: true,
	}
	err = m.scoper.Run(ctx, t, func(ctx context.Context) error {
		base := usernameBase(email)
		username := base
		for n := 1; ; n++ {
			taken, err := m.accounts.UsernameTaken(ctx, username)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			username = base + strconv.Itoa(n)
		}
		user.Username = username
		return m.accounts.CreateAdmin(ctx, user)
	})
	if err != nil {
		return fail(err)
	}
	prometheus.RecordTenantOperation("create_admin", nil)
	logger.FromContext(ctx).Info("Admin user created",
		zap.String("schema", t.SchemaName),
		zap.String("username", user.Username))
	return user, password, nil
}

// Request describes a tenant to create
type Request struct {
	Name     string
	Domain   string
	Email    string
	Password string
	// Schema is an explicit partition key; empty derives one from Name
	Schema string
	// Tenant optionally carries branding, contact and locale fields
	Tenant *model.Tenant
}

// Result reports a created tenant. Password holds the admin's plaintext
// password, and PasswordGenerated tells whether it was generated.
type Result struct {
	Tenant            *model.Tenant
	Domain            *model.Domain
	Admin             *model.User
	Password          string
	PasswordGenerated bool
}

// CreateTenant registers, provisions and routes a new tenant, then creates
// its first admin. Failures up to and including routing undo everything.
// An admin failure leaves the usable tenant in place and is returned as an
// *tenancy.AdminCreationError alongside the result.
func (m *Manager) CreateTenant(ctx context.Context, req Request) (*Result, error) {
	log := logger.FromContext(ctx).With(zap.String("name", req.Name))
	host := registry.NormalizeHost(req.Domain)
	if host == "" {
		return nil, fmt.Errorf("%w: a domain is required", tenancy.ErrInvalidTenant)
	}
	taken, err := m.catalog.DomainExists(ctx, host)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrDuplicateDomain, host)
	}
	if req.Schema != "" {
		if err := schema.Validate(req.Schema); err != nil {
			return nil, err
		}
		exists, err := m.catalog.SchemaExists(ctx, req.Schema)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", tenancy.ErrDuplicateKey, req.Schema)
		}
	}

	t := &model.Tenant{}
	if req.Tenant != nil {
		*t = *req.Tenant
		t.ID = 0
		t.Domains = nil
	}
	t.Name = req.Name
	t.Type = model.TenantTypeClient
	t.SchemaName = req.Schema
	if t.ContactEmail == "" {
		t.ContactEmail = req.Email
	}
	if err := m.catalog.CreateTenant(ctx, t); err != nil {
		return nil, err
	}
	log = log.With(zap.String("schema", t.SchemaName))
	log.Info("Tenant registered")

	adopted, err := m.engine.SchemaExists(ctx, t.SchemaName)
	if err != nil {
		m.rollback(ctx, t, false)
		return nil, &tenancy.ProvisionError{Schema: t.SchemaName, Step: "create", Err: err}
	}
	if err := m.Provision(ctx, t); err != nil {
		m.rollback(ctx, t, false)
		return nil, err
	}

	if m.storage != nil {
		if err := m.storage.EnsureBucket(ctx, policy.BucketFor(t), m.publicMedia); err != nil {
			log.Warn("Bucket creation failed, uploads will fail until it exists", zap.Error(err))
		}
	}

	d, err := m.catalog.AddDomain(ctx, t.ID, host, true)
	if err != nil {
		m.rollback(ctx, t, !adopted)
		return nil, err
	}
	t.Domains = []model.Domain{*d}
	log.Info("Domain assigned", zap.String("domain", d.Domain))

	res := &Result{Tenant: t, Domain: d}
	if req.Email == "" {
		return res, nil
	}
	user, password, err := m.CreateAdmin(ctx, t, req.Email, req.Password)
	if err != nil {
		log.Error("Tenant created but admin creation failed", zap.Error(err))
		return res, err
	}
	res.Admin = user
	res.Password = password
	res.PasswordGenerated = req.Password == ""
	return res, nil
}

// rollback removes a tenant whose creation did not complete
func (m *Manager) rollback(ctx context.Context, t *model.Tenant, dropSchema bool) {
	log := logger.FromContext(ctx).With(zap.String("schema", t.SchemaName))
	var err error
	if dropSchema {
		err = multierr.Append(err, m.engine.DropSchema(ctx, t.SchemaName))
		if m.storage != nil {
			err = multierr.Append(err, m.storage.DeleteBucket(ctx, policy.BucketFor(t)))
		}
	}
	err = multierr.Append(err, m.catalog.DeleteTenant(ctx, t.ID, true))
	if err != nil {
		log.Error("Rollback of failed tenant creation was incomplete", zap.Error(err))
		return
	}
	log.Info("Tenant creation rolled back")
}

// Decommission unroutes t, drops its partition and soft-deletes its row.
// An active tenant is only decommissioned with force. Cleanup steps are
// independent; every failure is reported.
func (m *Manager) Decommission(ctx context.Context, t *model.Tenant, force bool) (err error) {
	defer prometheus.TrackOperation("decommission")(time.Now())
	defer func() { prometheus.RecordTenantOperation("decommission", err) }()
	if t.IsPublic() {
		return fmt.Errorf("%w: the public tenant cannot be decommissioned", tenancy.ErrDecommissionRefused)
	}
	if t.IsActive && !force {
		return fmt.Errorf("%w: %s is active; deactivate it first or force", tenancy.ErrDecommissionRefused, t.SchemaName)
	}
	log := logger.FromContext(ctx).With(zap.String("schema", t.SchemaName))

	if _, derr := m.catalog.ClearDomains(ctx, t.ID); derr != nil {
		err = multierr.Append(err, fmt.Errorf("remove domains: %w", derr))
	}
	if derr := m.engine.DropSchema(ctx, t.SchemaName); derr != nil {
		err = multierr.Append(err, fmt.Errorf("drop partition: %w", derr))
	}
	if derr := m.catalog.DeleteTenant(ctx, t.ID, false); derr != nil && !errors.Is(derr, tenancy.ErrTenantNotFound) {
		err = multierr.Append(err, fmt.Errorf("delete tenant: %w", derr))
	}
	if m.storage != nil {
		if derr := m.storage.DeleteBucket(ctx, policy.BucketFor(t)); derr != nil {
			err = multierr.Append(err, fmt.Errorf("delete bucket: %w", derr))
		}
	}
	if err != nil {
		log.Error("Decommission incomplete", zap.Error(err))
		return err
	}
	log.Info("Tenant decommissioned")
	return nil
}

// Purge removes a decommissioned tenant's row for good, freeing its key
func (m *Manager) Purge(ctx context.Context, t *model.Tenant) error {
	if t.IsPublic() {
		return fmt.Errorf("%w: the public tenant cannot be purged", tenancy.ErrDecommissionRefused)
	}
	err := multierr.Append(
		m.engine.DropSchema(ctx, t.SchemaName),
		m.catalog.DeleteTenant(ctx, t.ID, true),
	)
	prometheus.RecordTenantOperation("purge", err)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Tenant purged", zap.String("schema", t.SchemaName))
	return nil
}

// MigrateAll brings the public partition and then every client partition
// up to date. A failing partition does not stop the others.
func (m *Manager) MigrateAll(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if err := m.engine.Migrate(ctx, m.publicSchema, partition.PublicSet); err != nil {
		return &tenancy.ProvisionError{Schema: m.publicSchema, Step: "migrate", Err: err}
	}
	tenants, err := m.catalog.ListTenants(ctx)
	if err != nil {
		return err
	}
	var errs error
	active := 0
	for i := range tenants {
		t := &tenants[i]
		if t.IsPublic() {
			continue
		}
		if t.IsActive {
			active++
		}
		if err := m.engine.Migrate(ctx, t.SchemaName, partition.TenantSet); err != nil {
			log.Error("Partition migration failed", zap.String("schema", t.SchemaName), zap.Error(err))
			errs = multierr.Append(errs, &tenancy.ProvisionError{Schema: t.SchemaName, Step: "migrate", Err: err})
			continue
		}
		log.Info("Partition migrated", zap.String("schema", t.SchemaName))
	}
	prometheus.UpdateActiveTenants(active)
	return errs
}
