package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "printhaus"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Payments  PaymentsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTHAUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRINTHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"PRINTHAUS_DB_DSN" required:"true"`
	AutoMigrate bool   `envconfig:"PRINTHAUS_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"PRINTHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTHAUS_REDIS_URL"`
	Address      string        `envconfig:"PRINTHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `envconfig:"PRINTHAUS_CACHE_CATALOG_TTL" default:"5m"`
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"PRINTHAUS_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"PRINTHAUS_RATE_LIMIT_LIMIT" default:"120"`
}

type PaymentsConfig struct {
	BaseURL       string        `envconfig:"PRINTHAUS_PAYMENTS_BASE_URL" required:"true"`
	APIKey        string        `envconfig:"PRINTHAUS_PAYMENTS_API_KEY"`
	WebhookSecret string        `envconfig:"PRINTHAUS_PAYMENTS_WEBHOOK_SECRET" required:"true"`
	Timeout       time.Duration `envconfig:"PRINTHAUS_PAYMENTS_TIMEOUT" default:"10s"`
	EventTTL      time.Duration `envconfig:"PRINTHAUS_PAYMENTS_EVENT_TTL" default:"720h"`
	Currency      string        `envconfig:"PRINTHAUS_PAYMENTS_CURRENCY" default:"USD"`
}
