package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote catalog/auth service.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"https://fakestoreapi.com"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
}

// StorageConfig selects the local persistence backend and the two keys the
// containers own.
type StorageConfig struct {
	Backend  string `envconfig:"STOREFRONT_STORAGE_BACKEND" default:"file"`
	FilePath string `envconfig:"STOREFRONT_STORAGE_FILE" default:".storefront.json"`
	CartKey  string `envconfig:"STOREFRONT_STORAGE_CART_KEY" default:"cartItems"`
	TokenKey string `envconfig:"STOREFRONT_STORAGE_TOKEN_KEY" default:"authToken"`
}

func (s *StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendMemory, StorageBackendFile, StorageBackendRedis:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}
