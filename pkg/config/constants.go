package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// BINDERY_* names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "BINDERY_APP_ENV"
	EnvPort      = "BINDERY_APP_PORT"
	EnvDBDSN     = "BINDERY_DB_DSN"
	EnvDBHost    = "BINDERY_DB_HOST"
	EnvDBUser    = "BINDERY_DB_USER"
	EnvDBName    = "BINDERY_DB_NAME"
	EnvRedisURL  = "BINDERY_REDIS_URL"
	EnvJWTSecret = "BINDERY_JWT_SECRET"
	EnvJWTIssuer = "BINDERY_JWT_ISSUER"
	EnvJWTExp    = "BINDERY_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
