package config

const (
	EnvPrefix = "CARTENGINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "CARTENGINE_APP_ENV"
	EnvPort      = "CARTENGINE_APP_PORT"
	EnvRedisURL  = "CARTENGINE_REDIS_URL"
	EnvJWTSecret = "CARTENGINE_JWT_SECRET"
	EnvJWTIssuer = "CARTENGINE_JWT_ISSUER"

	EnvDBDSN  = "CARTENGINE_DB_DSN"
	EnvDBHost = "CARTENGINE_DB_HOST"
	EnvDBUser = "CARTENGINE_DB_USER"
	EnvDBName = "CARTENGINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
