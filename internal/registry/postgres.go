package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Postgres is the gorm-backed catalog
type Postgres struct {
	db   *gorm.DB
	opts Options
}

// NewPostgres creates a catalog over db
func NewPostgres(db *gorm.DB, opts Options) *Postgres {
	return &Postgres{db: db, opts: opts.withDefaults()}
}

// tx runs fn in a transaction bound to the public partition
func (p *Postgres) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenancy.SetSearchPath(tx, p.opts.PublicSchema); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (p *Postgres) CreateTenant(ctx context.Context, t *model.Tenant) error {
	defer prometheus.TrackDBOperation("registry_create")(time.Now())
	explicit, err := prepare(t, p.opts)
	if err != nil {
		return err
	}
	return p.tx(ctx, func(tx *gorm.DB) error {
		exists := func(key string) (bool, error) {
			return schemaTaken(tx, key)
		}
		if err := assignKey(t, explicit, p.opts.KeyPrefix, exists); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", tenancy.ErrDuplicateKey, t.SchemaName)
			}
			return fmt.Errorf("create tenant %s: %w", t.SchemaName, err)
		}
		return nil
	})
}

func (p *Postgres) GetTenant(ctx context.Context, id uint) (*model.Tenant, error) {
	return p.first(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	})
}

func (p *Postgres) TenantBySchema(ctx context.Context, schemaName string) (*model.Tenant, error) {
	return p.first(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("schema_name = ?", schemaName)
	})
}

func (p *Postgres) TenantByDomain(ctx context.Context, host string) (*model.Tenant, error) {
	host = NormalizeHost(host)
	return p.first(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Joins("JOIN domains ON domains.tenant_id = tenants.id").
			Where("domains.domain = ?", host)
	})
}

func (p *Postgres) PublicTenant(ctx context.Context) (*model.Tenant, error) {
	return p.first(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("tenants.type = ?", model.TenantTypePublic)
	})
}

func (p *Postgres) first(ctx context.Context, where func(tx *gorm.DB) *gorm.DB) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("registry_query")(time.Now())
	var t model.Tenant
	err := p.tx(ctx, func(tx *gorm.DB) error {
		return where(tx.Model(&model.Tenant{})).Preload("Domains").First(&t).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, tenancy.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	defer prometheus.TrackDBOperation("registry_query")(time.Now())
	var tenants []model.Tenant
	err := p.tx(ctx, func(tx *gorm.DB) error {
		return tx.Preload("Domains").Order("id").Find(&tenants).Error
	})
	return tenants, err
}

func (p *Postgres) UpdateTenant(ctx context.Context, t *model.Tenant) error {
	defer prometheus.TrackDBOperation("registry_update")(time.Now())
	return p.tx(ctx, func(tx *gorm.DB) error {
		var existing model.Tenant
		if err := tx.First(&existing, t.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tenancy.ErrTenantNotFound
			}
			return err
		}
		if err := checkUpdate(&existing, t, p.opts); err != nil {
			return err
		}
		return tx.Model(&existing).
			Select("*").
			Omit("id", "schema_name", "type", "created_on", "deleted_at", clause.Associations).
			Updates(t).Error
	})
}

func (p *Postgres) DeleteTenant(ctx context.Context, id uint, hard bool) error {
	defer prometheus.TrackDBOperation("registry_delete")(time.Now())
	return p.tx(ctx, func(tx *gorm.DB) error {
		q := tx
		if hard {
			q = tx.Unscoped()
		}
		res := q.Delete(&model.Tenant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tenancy.ErrTenantNotFound
		}
		return nil
	})
}

func (p *Postgres) AddDomain(ctx context.Context, tenantID uint, host string, primary bool) (*model.Domain, error) {
	defer prometheus.TrackDBOperation("registry_domain")(time.Now())
	host = NormalizeHost(host)
	if host == "" {
		return nil, fmt.Errorf("%w: empty domain", tenancy.ErrInvalidTenant)
	}
	d := &model.Domain{Domain: host, TenantID: tenantID}
	err := p.tx(ctx, func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&model.Tenant{}).Where("id = ?", tenantID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return tenancy.ErrTenantNotFound
		}
		var taken int64
		if err := tx.Model(&model.Domain{}).Where("domain = ?", host).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: %s", tenancy.ErrDuplicateDomain, host)
		}
		var existing int64
		if err := tx.Model(&model.Domain{}).Where("tenant_id = ?", tenantID).Count(&existing).Error; err != nil {
			return err
		}
		d.IsPrimary = primary || existing == 0
		if d.IsPrimary && existing > 0 {
			if err := tx.Model(&model.Domain{}).
				Where("tenant_id = ? AND is_primary = ?", tenantID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", tenancy.ErrDuplicateDomain, host)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Postgres) RemoveDomain(ctx context.Context, host string) error {
	defer prometheus.TrackDBOperation("registry_domain")(time.Now())
	host = NormalizeHost(host)
	return p.tx(ctx, func(tx *gorm.DB) error {
		var d model.Domain
		if err := tx.Where("domain = ?", host).First(&d).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", tenancy.ErrDomainNotFound, host)
			}
			return err
		}
		if err := tx.Delete(&d).Error; err != nil {
			return err
		}
		if !d.IsPrimary {
			return nil
		}
		var next model.Domain
		err := tx.Where("tenant_id = ?", d.TenantID).Order("id").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_primary", true).Error
	})
}

func (p *Postgres) ClearDomains(ctx context.Context, tenantID uint) ([]string, error) {
	defer prometheus.TrackDBOperation("registry_domain")(time.Now())
	var hosts []string
	err := p.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&model.Domain{}).Where("tenant_id = ?", tenantID).Order("id").Pluck("domain", &hosts).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ?", tenantID).Delete(&model.Domain{}).Error
	})
	if err != nil {
		return nil, err
	}
	return hosts, nil
}

func (p *Postgres) DomainExists(ctx context.Context, host string) (bool, error) {
	host = NormalizeHost(host)
	var n int64
	err := p.tx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&model.Domain{}).Where("domain = ?", host).Count(&n).Error
	})
	return n > 0, err
}

func (p *Postgres) SchemaExists(ctx context.Context, schemaName string) (bool, error) {
	var taken bool
	err := p.tx(ctx, func(tx *gorm.DB) error {
		var err error
		taken, err = schemaTaken(tx, schemaName)
		return err
	})
	return taken, err
}

func (p *Postgres) EnsurePublicTenant(ctx context.Context, name string, hosts []string) (*model.Tenant, error) {
	return ensurePublic(ctx, p, name, hosts)
}

func schemaTaken(tx *gorm.DB, key string) (bool, error) {
	var n int64
	if err := tx.Unscoped().Model(&model.Tenant{}).Where("schema_name = ?", key).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check partition key %s: %w", key, err)
	}
	return n > 0, nil
}

// ensurePublic is shared by every Catalog implementation
func ensurePublic(ctx context.Context, c Catalog, name string, hosts []string) (*model.Tenant, error) {
	t, err := c.PublicTenant(ctx)
	if errors.Is(err, tenancy.ErrTenantNotFound) {
		t = &model.Tenant{Name: name, Type: model.TenantTypePublic}
		if err := c.CreateTenant(ctx, t); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	for _, h := range hosts {
		h = NormalizeHost(h)
		if h == "" || hasDomain(t, h) {
			continue
		}
		d, err := c.AddDomain(ctx, t.ID, h, false)
		if err != nil {
			return nil, err
		}
		t.Domains = append(t.Domains, *d)
	}
	return t, nil
}

func hasDomain(t *model.Tenant, host string) bool {
	for _, d := range t.Domains {
		if d.Domain == host {
			return true
		}
	}
	return false
}
