// Package registry is the catalog of tenants and the hostnames routed to
// them. It lives in the public partition and is always read and written
// with the public search_path, independent of any request scope.
package registry

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/schema"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// Catalog stores tenants and domains
type Catalog interface {
	// CreateTenant persists a new tenant, filling SchemaName from Name when
	// empty. Generated keys are made unique against every row ever stored,
	// including soft-deleted ones.
	CreateTenant(ctx context.Context, t *model.Tenant) error
	GetTenant(ctx context.Context, id uint) (*model.Tenant, error)
	TenantBySchema(ctx context.Context, schemaName string) (*model.Tenant, error)
	TenantByDomain(ctx context.Context, host string) (*model.Tenant, error)
	PublicTenant(ctx context.Context) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	// UpdateTenant saves mutable fields. The partition key cannot change.
	UpdateTenant(ctx context.Context, t *model.Tenant) error
	// DeleteTenant soft-deletes the row, keeping its key reserved, or
	// removes it for good when hard is set.
	DeleteTenant(ctx context.Context, id uint, hard bool) error

	// AddDomain routes host to the tenant. The first domain of a tenant is
	// always primary; a new primary demotes the previous one.
	AddDomain(ctx context.Context, tenantID uint, host string, primary bool) (*model.Domain, error)
	// RemoveDomain unroutes host, promoting another domain when it was primary
	RemoveDomain(ctx context.Context, host string) error
	// ClearDomains unroutes every host of a tenant and returns them
	ClearDomains(ctx context.Context, tenantID uint) ([]string, error)
	DomainExists(ctx context.Context, host string) (bool, error)
	// SchemaExists reports whether any row, deleted or not, holds the key
	SchemaExists(ctx context.Context, schemaName string) (bool, error)

	// EnsurePublicTenant creates the public tenant when missing and routes
	// hosts to it.
	EnsurePublicTenant(ctx context.Context, name string, hosts []string) (*model.Tenant, error)
}

// Options are the defaults applied to new tenants
type Options struct {
	PublicSchema    string
	KeyPrefix       string
	Languages       []string
	DefaultLanguage string
}

func (o Options) withDefaults() Options {
	if o.PublicSchema == "" {
		o.PublicSchema = "public"
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = schema.DefaultPrefix
	}
	if len(o.Languages) == 0 {
		o.Languages = []string{"en"}
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = o.Languages[0]
	}
	return o
}

// NormalizeHost lower-cases host and strips any port and trailing dot
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.TrimSuffix(host, ".")
}

// prepare fills defaults on a tenant about to be inserted and validates
// it. It returns whether the partition key was supplied by the caller.
func prepare(t *model.Tenant, o Options) (explicitKey bool, err error) {
	if t.ID != 0 {
		return false, fmt.Errorf("%w: tenant %d is already persisted", tenancy.ErrInvalidTenant, t.ID)
	}
	if t.Type == "" {
		t.Type = model.TenantTypeClient
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = model.DefaultPrimaryColor
	}
	if len(t.ActiveLanguages) == 0 {
		t.ActiveLanguages = append(model.Languages{}, o.Languages...)
	}
	if t.DefaultLanguage == "" {
		t.DefaultLanguage = o.DefaultLanguage
		if !t.ActiveLanguages.Contains(t.DefaultLanguage) {
			t.DefaultLanguage = t.ActiveLanguages[0]
		}
	}
	t.IsActive = true
	if err := checkLanguages(t, o); err != nil {
		return false, err
	}

	if t.IsPublic() {
		t.SchemaName = o.PublicSchema
		explicitKey = true
	} else if t.SchemaName != "" {
		if err := schema.Validate(t.SchemaName); err != nil {
			return false, err
		}
		explicitKey = true
	}
	if err := t.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", tenancy.ErrInvalidTenant, err)
	}
	return explicitKey, nil
}

// assignKey sets t.SchemaName, generating a unique one from the name when
// the caller supplied none.
func assignKey(t *model.Tenant, explicit bool, prefix string, exists func(string) (bool, error)) error {
	if explicit {
		taken, err := exists(t.SchemaName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", tenancy.ErrDuplicateKey, t.SchemaName)
		}
		return nil
	}
	base := schema.GenerateWithPrefix(prefix, t.Name)
	if err := schema.Validate(base); err != nil {
		return err
	}
	key, err := schema.Dedupe(base, exists)
	if err != nil {
		return err
	}
	t.SchemaName = key
	return nil
}

// checkLanguages rejects active languages the deployment does not offer
func checkLanguages(t *model.Tenant, o Options) error {
	offered := model.Languages(o.Languages)
	for _, code := range t.ActiveLanguages {
		if !offered.Contains(code) {
			return fmt.Errorf("%w: language %q is not offered (offered: %v)", tenancy.ErrInvalidTenant, code, o.Languages)
		}
	}
	return nil
}

func checkUpdate(existing, t *model.Tenant, o Options) error {
	if t.SchemaName != "" && t.SchemaName != existing.SchemaName {
		return fmt.Errorf("%w: partition key of %s cannot change", tenancy.ErrInvalidKey, existing.SchemaName)
	}
	if t.Type != "" && t.Type != existing.Type {
		return fmt.Errorf("%w: tenant type cannot change", tenancy.ErrInvalidTenant)
	}
	t.SchemaName = existing.SchemaName
	t.Type = existing.Type
	if err := checkLanguages(t, o); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", tenancy.ErrInvalidTenant, err)
	}
	return nil
}
