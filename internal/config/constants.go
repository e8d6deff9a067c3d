package config

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Analytics backends
const (
	AnalyticsBackendStore = "store"
	AnalyticsBackendRedis = "redis"
)

const (
	EnvironmentProduction = "production"

	// InsecureDBPassword is the example password from the setup docs
	InsecureDBPassword = "change_this_secure_password"

	MinJWTSecretLength = 32

	ErrMsgParseEnv = "failed to parse environment"
)
