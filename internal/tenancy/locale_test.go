package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suteetoe/tenantstarter/internal/model"
)

func TestLocaleNarrowingRoundTrip(t *testing.T) {
	s := NewScoper([]string{"en", "fr", "de"}, "en")
	acme := &model.Tenant{
		SchemaName:      "tenant_acme",
		Type:            model.TenantTypeClient,
		DefaultLanguage: "fr",
		ActiveLanguages: model.Languages{"fr", "en"},
	}
	before := s.Locales(context.Background())

	err := s.Run(context.Background(), acme, func(ctx context.Context) error {
		l := s.Locales(ctx)
		assert.Equal(t, []string{"en", "fr"}, l.Offered)
		assert.Equal(t, "fr", l.Default)
		assert.Equal(t, "fr", l.Activate("de"))
		assert.Equal(t, "en", l.Activate("en"))
		return nil
	})
	assert.NoError(t, err)

	after := s.Locales(context.Background())
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"en", "fr", "de"}, after.Offered)
	assert.Equal(t, "en", after.Default)
}

func TestLocalesSnapshotIsNotShared(t *testing.T) {
	s := NewScoper([]string{"en", "fr"}, "en")
	l := s.Locales(context.Background())
	l.Offered[0] = "xx"
	assert.Equal(t, []string{"en", "fr"}, s.System().Offered)
}

func TestNarrowWithoutActiveLanguages(t *testing.T) {
	s := NewScoper([]string{"en", "fr"}, "en")
	bare := &model.Tenant{SchemaName: "tenant_bare", Type: model.TenantTypeClient}
	ctx, release := s.Enter(context.Background(), bare)
	defer release()
	assert.Equal(t, s.System(), s.Locales(ctx))
}

func TestNarrowKeepsDefaultInsideSet(t *testing.T) {
	s := NewScoper([]string{"en", "fr", "de"}, "en")
	// The tenant's default is not among its active languages.
	odd := &model.Tenant{
		SchemaName:      "tenant_odd",
		Type:            model.TenantTypeClient,
		DefaultLanguage: "en",
		ActiveLanguages: model.Languages{"de", "fr"},
	}
	ctx, release := s.Enter(context.Background(), odd)
	defer release()
	l := s.Locales(ctx)
	assert.Equal(t, []string{"fr", "de"}, l.Offered)
	assert.Equal(t, "fr", l.Default)
}

func TestNegotiate(t *testing.T) {
	l := Locales{Offered: []string{"en", "fr"}, Default: "fr"}
	assert.Equal(t, "en", l.Negotiate("en-US,en;q=0.9"))
	assert.Equal(t, "fr", l.Negotiate("fr-CH, fr;q=0.9, en;q=0.8"))
	assert.Equal(t, "fr", l.Negotiate("ja"))
	assert.Equal(t, "fr", l.Negotiate(""))
}

func TestNegotiateLanguageUsesScope(t *testing.T) {
	s := NewScoper([]string{"en", "fr", "de"}, "en")
	acme := &model.Tenant{
		SchemaName:      "tenant_acme",
		Type:            model.TenantTypeClient,
		DefaultLanguage: "fr",
		ActiveLanguages: model.Languages{"en", "fr"},
	}
	assert.Equal(t, "de", s.NegotiateLanguage(context.Background(), "de-DE"))
	ctx, release := s.Enter(context.Background(), acme)
	defer release()
	assert.Equal(t, "fr", s.NegotiateLanguage(ctx, "de-DE"))
}
