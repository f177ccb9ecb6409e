package config

const (
	EnvPrefix = "PROTEINA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PROTEINA_APP_ENV"
	EnvPort     = "PROTEINA_APP_PORT"
	EnvLogLevel = "PROTEINA_LOG_LEVEL"

	EnvDBDSN  = "PROTEINA_DB_DSN"
	EnvDBHost = "PROTEINA_DB_HOST"
	EnvDBUser = "PROTEINA_DB_USER"
	EnvDBName = "PROTEINA_DB_NAME"

	EnvRedisURL = "PROTEINA_REDIS_URL"

	EnvSupabaseURL       = "PROTEINA_SUPABASE_URL"
	EnvSupabaseAnonKey   = "PROTEINA_SUPABASE_ANON_KEY"
	EnvSupabaseJWTSecret = "PROTEINA_SUPABASE_JWT_SECRET"
	EnvStorageBucket     = "PROTEINA_STORAGE_BUCKET"

	EnvAdminEmails           = "PROTEINA_ADMIN_EMAILS"
	EnvAdminRequireAllowList = "PROTEINA_ADMIN_REQUIRE_ALLOWLIST"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
