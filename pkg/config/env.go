package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "CAFEPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "CAFEPOS_APP_ENV"
	EnvPort     = "CAFEPOS_APP_PORT"
	EnvLogLevel = "CAFEPOS_LOG_LEVEL"

	EnvDBDSN    = "CAFEPOS_DB_DSN"
	EnvDBDriver = "CAFEPOS_DB_DRIVER"
	EnvDBHost   = "CAFEPOS_DB_HOST"
	EnvDBUser   = "CAFEPOS_DB_USER"
	EnvDBName   = "CAFEPOS_DB_NAME"

	EnvRedisURL = "CAFEPOS_REDIS_URL"

	EnvJWTSecret  = "CAFEPOS_JWT_SECRET"
	EnvJWTIssuer  = "CAFEPOS_JWT_ISSUER"
	EnvJWTExpMins = "CAFEPOS_JWT_EXPIRATION_MINUTES"

	EnvCORSAllowedOrigins = "CAFEPOS_CORS_ALLOWED_ORIGINS"

	EnvSalesTaxRateBps = "CAFEPOS_SALES_TAX_RATE_BPS"
	EnvSalesCurrency   = "CAFEPOS_SALES_CURRENCY"

	EnvTerminalBaseURL     = "CAFEPOS_TERMINAL_BASE_URL"
	EnvTerminalAccessToken = "CAFEPOS_TERMINAL_ACCESS_TOKEN"
	EnvTerminalDebounce    = "CAFEPOS_TERMINAL_SEARCH_DEBOUNCE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
