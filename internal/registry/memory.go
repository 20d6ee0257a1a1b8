package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// Memory is an in-process catalog for tests. It keeps the same uniqueness
// rules as Postgres.
type Memory struct {
	mu      sync.RWMutex
	opts    Options
	nextID  uint
	tenants map[uint]*model.Tenant
	domains map[string]*model.Domain // host -> domain
}

// NewMemory creates an empty catalog
func NewMemory(opts Options) *Memory {
	return &Memory{
		opts:    opts.withDefaults(),
		tenants: map[uint]*model.Tenant{},
		domains: map[string]*model.Domain{},
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateTenant(_ context.Context, t *model.Tenant) error {
	explicit, err := prepare(t, m.opts)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	exists := func(key string) (bool, error) {
		return m.schemaTaken(key), nil
	}
	if err := assignKey(t, explicit, m.opts.KeyPrefix, exists); err != nil {
		return err
	}
	now := time.Now()
	t.ID = m.id()
	t.CreatedOn = now
	t.UpdatedOn = now
	t.Domains = nil
	stored := *t
	m.tenants[t.ID] = &stored
	return nil
}

func (m *Memory) schemaTaken(key string) bool {
	for _, t := range m.tenants {
		if t.SchemaName == key {
			return true
		}
	}
	return false
}

// snapshot copies a live tenant with its domains ordered by id
func (m *Memory) snapshot(t *model.Tenant) *model.Tenant {
	out := *t
	out.ActiveLanguages = append(model.Languages{}, t.ActiveLanguages...)
	out.Domains = nil
	for _, d := range m.domains {
		if d.TenantID == t.ID {
			out.Domains = append(out.Domains, *d)
		}
	}
	sort.Slice(out.Domains, func(i, j int) bool { return out.Domains[i].ID < out.Domains[j].ID })
	return &out
}

func (m *Memory) find(match func(t *model.Tenant) bool) (*model.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tenants {
		if !t.DeletedAt.Valid && match(t) {
			return m.snapshot(t), nil
		}
	}
	return nil, tenancy.ErrTenantNotFound
}

func (m *Memory) GetTenant(_ context.Context, id uint) (*model.Tenant, error) {
	return m.find(func(t *model.Tenant) bool { return t.ID == id })
}

func (m *Memory) TenantBySchema(_ context.Context, schemaName string) (*model.Tenant, error) {
	return m.find(func(t *model.Tenant) bool { return t.SchemaName == schemaName })
}

func (m *Memory) TenantByDomain(_ context.Context, host string) (*model.Tenant, error) {
	host = NormalizeHost(host)
	m.mu.RLock()
	d, ok := m.domains[host]
	m.mu.RUnlock()
	if !ok {
		return nil, tenancy.ErrTenantNotFound
	}
	return m.find(func(t *model.Tenant) bool { return t.ID == d.TenantID })
}

func (m *Memory) PublicTenant(_ context.Context) (*model.Tenant, error) {
	return m.find(func(t *model.Tenant) bool { return t.IsPublic() })
}

func (m *Memory) ListTenants(_ context.Context) ([]model.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		if !t.DeletedAt.Valid {
			out = append(out, *m.snapshot(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateTenant(_ context.Context, t *model.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.tenants[t.ID]
	if !ok || existing.DeletedAt.Valid {
		return tenancy.ErrTenantNotFound
	}
	if err := checkUpdate(existing, t, m.opts); err != nil {
		return err
	}
	updated := *t
	updated.CreatedOn = existing.CreatedOn
	updated.UpdatedOn = time.Now()
	updated.Domains = nil
	m.tenants[t.ID] = &updated
	return nil
}

func (m *Memory) DeleteTenant(_ context.Context, id uint, hard bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok || (!hard && t.DeletedAt.Valid) {
		return tenancy.ErrTenantNotFound
	}
	if !hard {
		t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		return nil
	}
	delete(m.tenants, id)
	for host, d := range m.domains {
		if d.TenantID == id {
			delete(m.domains, host)
		}
	}
	return nil
}

func (m *Memory) AddDomain(_ context.Context, tenantID uint, host string, primary bool) (*model.Domain, error) {
	host = NormalizeHost(host)
	if host == "" {
		return nil, fmt.Errorf("%w: empty domain", tenancy.ErrInvalidTenant)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tenants[tenantID]; !ok || t.DeletedAt.Valid {
		return nil, tenancy.ErrTenantNotFound
	}
	if _, taken := m.domains[host]; taken {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrDuplicateDomain, host)
	}
	existing := 0
	for _, d := range m.domains {
		if d.TenantID == tenantID {
			existing++
		}
	}
	d := &model.Domain{ID: m.id(), Domain: host, TenantID: tenantID, IsPrimary: primary || existing == 0}
	if d.IsPrimary {
		for _, other := range m.domains {
			if other.TenantID == tenantID {
				other.IsPrimary = false
			}
		}
	}
	m.domains[host] = d
	out := *d
	return &out, nil
}

func (m *Memory) RemoveDomain(_ context.Context, host string) error {
	host = NormalizeHost(host)
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[host]
	if !ok {
		return fmt.Errorf("%w: %s", tenancy.ErrDomainNotFound, host)
	}
	delete(m.domains, host)
	if !d.IsPrimary {
		return nil
	}
	var next *model.Domain
	for _, other := range m.domains {
		if other.TenantID == d.TenantID && (next == nil || other.ID < next.ID) {
			next = other
		}
	}
	if next != nil {
		next.IsPrimary = true
	}
	return nil
}

func (m *Memory) ClearDomains(_ context.Context, tenantID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []*model.Domain
	for host, d := range m.domains {
		if d.TenantID == tenantID {
			removed = append(removed, d)
			delete(m.domains, host)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	hosts := make([]string, len(removed))
	for i, d := range removed {
		hosts[i] = d.Domain
	}
	return hosts, nil
}

func (m *Memory) DomainExists(_ context.Context, host string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.domains[NormalizeHost(host)]
	return ok, nil
}

func (m *Memory) SchemaExists(_ context.Context, schemaName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schemaTaken(schemaName), nil
}

func (m *Memory) EnsurePublicTenant(ctx context.Context, name string, hosts []string) (*model.Tenant, error) {
	return ensurePublic(ctx, m, name, hosts)
}
