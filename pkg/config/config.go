package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// TenancyConfig holds partitioning and locale defaults
type TenancyConfig struct {
	PublicSchema    string
	PublicName      string
	PublicHosts     []string
	KeyPrefix       string
	Languages       []string
	DefaultLanguage string
	CacheTTL        time.Duration
}

// RedisConfig holds the hostname cache connection. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig holds the file storage backend configuration
type StorageConfig struct {
	Driver      string // local or s3
	LocalRoot   string
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	PublicMedia bool
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Tenancy     TenancyConfig
	Redis       RedisConfig
	Storage     StorageConfig
}

// Load reads configuration from the environment, after merging an
// optional .env file.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	cfg := &Config{
		ServiceName: serviceName,
		DB:          loadDB(),
		Server: ServerConfig{
			Port: env("SERVER_PORT", "8080"),
			Env:  env("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      env("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: envAs("JWT_EXPIRATION_HOURS", 24, strconv.Atoi),
		},
		Log:     LogConfig{Level: env("LOG_LEVEL", "info")},
		Metrics: MetricsConfig{Prefix: env("METRICS_PREFIX", serviceName)},
		Tenancy: loadTenancy(),
		Redis: RedisConfig{
			Addr:     env("REDIS_ADDR", ""),
			Password: env("REDIS_PASSWORD", ""),
			DB:       envAs("REDIS_DB", 0, strconv.Atoi),
		},
		Storage: loadStorage(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDB() DBConfig {
	return DBConfig{
		Host:            env("DB_HOST", "localhost"),
		Port:            env("DB_PORT", "5432"),
		User:            env("DB_USER", "postgres"),
		Password:        env("DB_PASSWORD", "password"),
		DBName:          env("DB_NAME", "tenantstarter"),
		SSLMode:         env("DB_SSL_MODE", "disable"),
		MaxIdleConns:    envAs("DB_MAX_IDLE_CONNS", 10, strconv.Atoi),
		MaxOpenConns:    envAs("DB_MAX_OPEN_CONNS", 100, strconv.Atoi),
		ConnMaxLifetime: envAs("DB_CONN_MAX_LIFETIME", time.Hour, time.ParseDuration),
		LogLevel:        envAs("DB_LOG_LEVEL", logger.Warn, parseLogLevel),
	}
}

func loadTenancy() TenancyConfig {
	return TenancyConfig{
		PublicSchema:    env("TENANT_PUBLIC_SCHEMA", "public"),
		PublicName:      env("TENANT_PUBLIC_NAME", "Public"),
		PublicHosts:     envAs("TENANT_PUBLIC_HOSTS", []string{"localhost", "127.0.0.1"}, parseList),
		KeyPrefix:       env("TENANT_KEY_PREFIX", "tenant_"),
		Languages:       envAs("LANGUAGES", []string{"en", "fr"}, parseList),
		DefaultLanguage: env("DEFAULT_LANGUAGE", "en"),
		CacheTTL:        envAs("TENANT_CACHE_TTL", 5*time.Minute, time.ParseDuration),
	}
}

func loadStorage() StorageConfig {
	return StorageConfig{
		Driver:      env("STORAGE_DRIVER", "local"),
		LocalRoot:   env("STORAGE_LOCAL_ROOT", "./data/storage"),
		Endpoint:    env("S3_ENDPOINT", ""),
		Region:      env("S3_REGION", "us-east-1"),
		AccessKey:   env("S3_ACCESS_KEY", ""),
		SecretKey:   env("S3_SECRET_KEY", ""),
		PublicMedia: envAs("S3_PUBLIC_MEDIA", true, strconv.ParseBool),
	}
}

func (c *Config) validate() error {
	if c.Storage.Driver != "local" && c.Storage.Driver != "s3" {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	found := false
	for _, code := range c.Tenancy.Languages {
		found = found || code == c.Tenancy.DefaultLanguage
	}
	if !found {
		return fmt.Errorf("DEFAULT_LANGUAGE %q is not in LANGUAGES %v", c.Tenancy.DefaultLanguage, c.Tenancy.Languages)
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("public_schema", c.Tenancy.PublicSchema),
		zap.Strings("languages", c.Tenancy.Languages),
		zap.Bool("redis_cache", c.Redis.Addr != ""),
		zap.String("storage_driver", c.Storage.Driver),
	}
}

func env(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// envAs parses key with parse, keeping fallback when the variable is unset
// or does not parse.
func envAs[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseList(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

func parseLogLevel(raw string) (logger.LogLevel, error) {
	switch raw {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return 0, fmt.Errorf("unknown log level %q", raw)
}
