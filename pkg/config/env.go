package config

const (
	EnvPrefix = "BOOKSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultTaxRate = "0.0825"
)

const (
	EnvAppEnv   = "BOOKSTORE_APP_ENV"
	EnvPort     = "BOOKSTORE_APP_PORT"
	EnvLogLevel = "BOOKSTORE_LOG_LEVEL"

	EnvDBDSN  = "BOOKSTORE_DB_DSN"
	EnvDBHost = "BOOKSTORE_DB_HOST"
	EnvDBUser = "BOOKSTORE_DB_USER"
	EnvDBName = "BOOKSTORE_DB_NAME"

	EnvRedisURL = "BOOKSTORE_REDIS_URL"

	EnvAuthJWTSecret = "BOOKSTORE_AUTH_JWT_SECRET"
	EnvAuthIssuer    = "BOOKSTORE_AUTH_ISSUER"
	EnvAuthAudience  = "BOOKSTORE_AUTH_AUDIENCE"

	EnvCartTaxRate = "BOOKSTORE_CART_TAX_RATE"

	EnvAutoMigrate = "BOOKSTORE_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
