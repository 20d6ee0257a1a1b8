package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

func newCatalog() *Memory {
	return NewMemory(Options{Languages: []string{"en", "fr", "de"}, DefaultLanguage: "en"})
}

func TestCreateTenantGeneratesKey(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	acme := &model.Tenant{Name: "Acme Corp"}
	require.NoError(t, c.CreateTenant(ctx, acme))
	assert.Equal(t, "tenant_acme_corp", acme.SchemaName)
	assert.Equal(t, model.TenantTypeClient, acme.Type)
	assert.Equal(t, model.DefaultPrimaryColor, acme.PrimaryColor)
	assert.Equal(t, model.Languages{"en", "fr", "de"}, acme.ActiveLanguages)
	assert.Equal(t, "en", acme.DefaultLanguage)
	assert.True(t, acme.IsActive)

	again := &model.Tenant{Name: "ACME corp!"}
	require.NoError(t, c.CreateTenant(ctx, again))
	assert.Equal(t, "tenant_acme_corp_1", again.SchemaName)
}

func TestCreateTenantKeysStayReservedAfterSoftDelete(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	first := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, first))
	require.NoError(t, c.DeleteTenant(ctx, first.ID, false))

	taken, err := c.SchemaExists(ctx, "tenant_acme")
	require.NoError(t, err)
	assert.True(t, taken)

	second := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, second))
	assert.Equal(t, "tenant_acme_1", second.SchemaName)

	require.NoError(t, c.DeleteTenant(ctx, first.ID, true))
	third := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, third))
	assert.Equal(t, "tenant_acme", third.SchemaName)
}

func TestCreateTenantExplicitKey(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	require.NoError(t, c.CreateTenant(ctx, &model.Tenant{Name: "One", SchemaName: "tenant_custom"}))

	err := c.CreateTenant(ctx, &model.Tenant{Name: "Two", SchemaName: "tenant_custom"})
	assert.ErrorIs(t, err, tenancy.ErrDuplicateKey)

	err = c.CreateTenant(ctx, &model.Tenant{Name: "Three", SchemaName: "admin"})
	assert.ErrorIs(t, err, tenancy.ErrInvalidKey)

	err = c.CreateTenant(ctx, &model.Tenant{Name: "Four", SchemaName: "9lives"})
	assert.ErrorIs(t, err, tenancy.ErrInvalidKey)
}

func TestCreateTenantValidation(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	err := c.CreateTenant(ctx, &model.Tenant{Name: "Acme", DefaultLanguage: "it", ActiveLanguages: model.Languages{"en"}})
	assert.ErrorIs(t, err, tenancy.ErrInvalidTenant)

	err = c.CreateTenant(ctx, &model.Tenant{Name: "Acme", Canton: "XX"})
	assert.ErrorIs(t, err, tenancy.ErrInvalidTenant)

	// an empty default takes the first active language when the system default is not active
	tn := &model.Tenant{Name: "Geneva", ActiveLanguages: model.Languages{"fr", "de"}}
	require.NoError(t, c.CreateTenant(ctx, tn))
	assert.Equal(t, "fr", tn.DefaultLanguage)

	err = c.CreateTenant(ctx, tn)
	assert.ErrorIs(t, err, tenancy.ErrInvalidTenant)
}

func TestUpdateTenantKeepsKey(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()
	tn := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, tn))

	changed := *tn
	changed.SchemaName = "tenant_other"
	assert.ErrorIs(t, c.UpdateTenant(ctx, &changed), tenancy.ErrInvalidKey)

	changed = *tn
	changed.Name = "Acme Renamed"
	changed.IsActive = false
	require.NoError(t, c.UpdateTenant(ctx, &changed))

	got, err := c.GetTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", got.Name)
	assert.Equal(t, "tenant_acme", got.SchemaName)
	assert.False(t, got.IsActive)
}

func TestDomains(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()
	acme := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, acme))
	other := &model.Tenant{Name: "Other"}
	require.NoError(t, c.CreateTenant(ctx, other))

	d, err := c.AddDomain(ctx, acme.ID, "Acme.Example.COM:8000", false)
	require.NoError(t, err)
	assert.Equal(t, "acme.example.com", d.Domain)
	assert.True(t, d.IsPrimary, "first domain becomes primary")

	_, err = c.AddDomain(ctx, other.ID, "ACME.example.com.", false)
	assert.ErrorIs(t, err, tenancy.ErrDuplicateDomain)

	_, err = c.AddDomain(ctx, acme.ID, "www.acme.test", true)
	require.NoError(t, err)
	got, err := c.TenantByDomain(ctx, "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, "www.acme.test", got.PrimaryDomain())

	require.NoError(t, c.RemoveDomain(ctx, "www.acme.test"))
	got, err = c.GetTenant(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.example.com", got.PrimaryDomain())

	assert.ErrorIs(t, c.RemoveDomain(ctx, "nope.test"), tenancy.ErrDomainNotFound)

	hosts, err := c.ClearDomains(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.example.com"}, hosts)
	_, err = c.TenantByDomain(ctx, "acme.example.com")
	assert.ErrorIs(t, err, tenancy.ErrTenantNotFound)
}

func TestSoftDeletedTenantStopsResolving(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()
	acme := &model.Tenant{Name: "Acme"}
	require.NoError(t, c.CreateTenant(ctx, acme))
	_, err := c.AddDomain(ctx, acme.ID, "acme.test", false)
	require.NoError(t, err)

	require.NoError(t, c.DeleteTenant(ctx, acme.ID, false))
	_, err = c.TenantByDomain(ctx, "acme.test")
	assert.ErrorIs(t, err, tenancy.ErrTenantNotFound)
	assert.ErrorIs(t, c.DeleteTenant(ctx, acme.ID, false), tenancy.ErrTenantNotFound)

	list, err := c.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEnsurePublicTenant(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	pub, err := c.EnsurePublicTenant(ctx, "Public", []string{"localhost", "Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "public", pub.SchemaName)
	assert.True(t, pub.IsPublic())
	assert.Len(t, pub.Domains, 2)

	again, err := c.EnsurePublicTenant(ctx, "Public", []string{"localhost", "www.example.com"})
	require.NoError(t, err)
	assert.Equal(t, pub.ID, again.ID)
	assert.Len(t, again.Domains, 3)

	err = c.CreateTenant(ctx, &model.Tenant{Name: "Second", Type: model.TenantTypePublic})
	assert.ErrorIs(t, err, tenancy.ErrDuplicateKey)
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Example.COM":      "example.com",
		"example.com:8080": "example.com",
		"example.com.":     "example.com",
		" localhost ":      "localhost",
		"[::1]:8000":       "::1",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHost(in), in)
	}
}

func TestCreateTenantRejectsUnofferedLanguages(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	err := c.CreateTenant(ctx, &model.Tenant{Name: "Milano", ActiveLanguages: model.Languages{"it"}, DefaultLanguage: "it"})
	assert.ErrorIs(t, err, tenancy.ErrInvalidTenant)
	assert.ErrorContains(t, err, `"it"`)

	err = c.CreateTenant(ctx, &model.Tenant{Name: "Lugano", ActiveLanguages: model.Languages{"fr", "it"}})
	assert.ErrorIs(t, err, tenancy.ErrInvalidTenant)

	taken, err := c.SchemaExists(ctx, "tenant_milano")
	require.NoError(t, err)
	assert.False(t, taken)

	tn := &model.Tenant{Name: "Bern", ActiveLanguages: model.Languages{"de", "fr"}}
	require.NoError(t, c.CreateTenant(ctx, tn))
	tn.ActiveLanguages = model.Languages{"de", "rm"}
	assert.ErrorIs(t, c.UpdateTenant(ctx, tn), tenancy.ErrInvalidTenant)
}
