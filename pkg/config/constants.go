package config

// EnvPrefix namespaces every variable consumed by envconfig.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendMemory = "memory"
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvAPIBaseURL     = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout     = "STOREFRONT_API_TIMEOUT"
	EnvStorageBackend = "STOREFRONT_STORAGE_BACKEND"
	EnvStorageFile    = "STOREFRONT_STORAGE_FILE"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
)
