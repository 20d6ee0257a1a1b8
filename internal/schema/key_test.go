package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"Acme Corporation":      "tenant_acme_corporation",
		"  Helvetia -- Tech!! ": "tenant_helvetia_tech",
		"Genève Digital":        "tenant_geneve_digital",
		"Zürich Straße":         "tenant_zurich_stra_e",
		"ACME":                  "tenant_acme",
		"42 Labs":               "tenant_42_labs",
	}
	for name, want := range cases {
		assert.Equal(t, want, Generate(name), name)
	}
}

func TestGenerateIsDeterministicPerSlug(t *testing.T) {
	// Names that normalise to the same slug produce the same candidate.
	assert.Equal(t, Generate("Acme Corp"), Generate("acme   corp"))
	assert.Equal(t, Generate("Acme Corp"), Generate("ACME-CORP!"))
}

func TestGenerateTruncates(t *testing.T) {
	key := Generate(strings.Repeat("a", 200))
	assert.Len(t, key, MaxLength)
	require.NoError(t, Validate(key))
}

func TestValidateReserved(t *testing.T) {
	for _, key := range []string{"public", "pg_catalog", "admin", "information_schema", "media"} {
		err := Validate(key)
		require.Error(t, err, key)
		assert.True(t, errors.Is(err, ErrInvalidKey), key)
	}
}

func TestValidateMalformed(t *testing.T) {
	for _, key := range []string{"", "1acme", "_acme", "Acme", "acme-corp", "acme corp", strings.Repeat("a", 64)} {
		err := Validate(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestValidateAccepts(t *testing.T) {
	for _, key := range []string{"tenant_acme", "a", "tenant_acme_1", "x9_"} {
		assert.NoError(t, Validate(key), key)
	}
}

func TestDedupe(t *testing.T) {
	taken := map[string]bool{"tenant_acme": true, "tenant_acme_1": true}
	exists := func(k string) (bool, error) { return taken[k], nil }

	key, err := Dedupe("tenant_acme", exists)
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme_2", key)
	require.NoError(t, Validate(key))

	key, err = Dedupe("tenant_free", exists)
	require.NoError(t, err)
	assert.Equal(t, "tenant_free", key)
}

func TestDedupeKeepsLengthLimit(t *testing.T) {
	base := Generate(strings.Repeat("b", 100))
	taken := map[string]bool{base: true}
	key, err := Dedupe(base, func(k string) (bool, error) { return taken[k], nil })
	require.NoError(t, err)
	assert.Len(t, key, MaxLength)
	assert.True(t, strings.HasSuffix(key, "_1"))
}

func TestDedupePropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := Dedupe("tenant_acme", func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"tenant_acme"`, QuoteIdent("tenant_acme"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}
