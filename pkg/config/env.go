package config

const EnvPrefix = "FOODCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FOODCART_APP_ENV"
	EnvPort     = "FOODCART_APP_PORT"
	EnvLogLevel = "FOODCART_LOG_LEVEL"

	EnvDBDSN  = "FOODCART_DB_DSN"
	EnvDBHost = "FOODCART_DB_HOST"
	EnvDBUser = "FOODCART_DB_USER"
	EnvDBName = "FOODCART_DB_NAME"

	EnvRedisURL = "FOODCART_REDIS_URL"

	EnvJWTSecret  = "FOODCART_JWT_SECRET"
	EnvJWTIssuer  = "FOODCART_JWT_ISSUER"
	EnvJWTExpMins = "FOODCART_JWT_EXPIRATION_MINUTES"

	EnvCartSnapshotTTL = "FOODCART_CART_SNAPSHOT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
