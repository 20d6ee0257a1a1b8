package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("tenantstarter")
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Tenancy.PublicSchema)
	assert.Equal(t, "tenant_", cfg.Tenancy.KeyPrefix)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LANGUAGES", "en, fr ,de,")
	t.Setenv("DEFAULT_LANGUAGE", "de")
	t.Setenv("TENANT_PUBLIC_HOSTS", "example.com,www.example.com")
	t.Setenv("TENANT_CACHE_TTL", "30s")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("S3_PUBLIC_MEDIA", "false")

	cfg, err := Load("tenantstarter")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr", "de"}, cfg.Tenancy.Languages)
	assert.Equal(t, "de", cfg.Tenancy.DefaultLanguage)
	assert.Equal(t, []string{"example.com", "www.example.com"}, cfg.Tenancy.PublicHosts)
	assert.Equal(t, 30*time.Second, cfg.Tenancy.CacheTTL)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.False(t, cfg.Storage.PublicMedia)
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "ftp")
	_, err := Load("tenantstarter")
	assert.Error(t, err)
}

func TestLogConfigHidesSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("JWT_SIGNING_KEY", "topsecret")
	cfg, err := Load("tenantstarter")
	require.NoError(t, err)
	for _, f := range cfg.LogConfig() {
		assert.NotEqual(t, "hunter2", f.String)
		assert.NotEqual(t, "topsecret", f.String)
	}
}

func TestLoadRejectsDefaultLanguageOutsideLanguages(t *testing.T) {
	t.Setenv("LANGUAGES", "fr,de")
	t.Setenv("DEFAULT_LANGUAGE", "en")
	_, err := Load("tenantstarter")
	assert.ErrorContains(t, err, "DEFAULT_LANGUAGE")
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("TENANT_CACHE_TTL", "soon")
	t.Setenv("DB_LOG_LEVEL", "loud")
	cfg, err := Load("tenantstarter")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Tenancy.CacheTTL)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
}
