package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	Admin    AdminConfig
	Store    StoreConfig
	HTTP     HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Admin.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient reads only the sections the command line tools need (no identity or storage).
func LoadClient() (*Config, error) {
	var cfg Config
	for _, section := range []any{&cfg.App, &cfg.DB, &cfg.Redis, &cfg.Catalog, &cfg.Store} {
		if err := envconfig.Process(EnvPrefix, section); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROTEINA_APP_ENV" default:"dev"`
	Port         string `envconfig:"PROTEINA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PROTEINA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROTEINA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"PROTEINA_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PROTEINA_DB_DSN"`

	Host     string `envconfig:"PROTEINA_DB_HOST"`
	Port     int    `envconfig:"PROTEINA_DB_PORT" default:"5432"`
	User     string `envconfig:"PROTEINA_DB_USER"`
	Password string `envconfig:"PROTEINA_DB_PASSWORD"`
	Name     string `envconfig:"PROTEINA_DB_NAME"`
	SSLMode  string `envconfig:"PROTEINA_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"PROTEINA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PROTEINA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PROTEINA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROTEINA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold reports slower queries as warnings; zero disables the report.
	SlowQueryThreshold time.Duration `envconfig:"PROTEINA_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// RedisConfig is optional; an empty URL and address disables the catalog cache.
type RedisConfig struct {
	URL          string        `envconfig:"PROTEINA_REDIS_URL"`
	Address      string        `envconfig:"PROTEINA_REDIS_ADDR"`
	Password     string        `envconfig:"PROTEINA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROTEINA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROTEINA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROTEINA_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"PROTEINA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROTEINA_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PROTEINA_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"PROTEINA_CATALOG_CACHE_TTL" default:"2m"`
}

type SupabaseConfig struct {
	URL            string `envconfig:"PROTEINA_SUPABASE_URL" required:"true"`
	AnonKey        string `envconfig:"PROTEINA_SUPABASE_ANON_KEY"`
	ServiceRoleKey string `envconfig:"PROTEINA_SUPABASE_SERVICE_ROLE_KEY"`
	// JWTSecret switches token verification to local HS256 checks.
	JWTSecret string `envconfig:"PROTEINA_SUPABASE_JWT_SECRET"`
}

// BaseURL returns the project URL without a trailing slash.
func (s SupabaseConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(s.URL), "/")
}

type StorageConfig struct {
	Bucket      string `envconfig:"PROTEINA_STORAGE_BUCKET"`
	MaxUploadMB int    `envconfig:"PROTEINA_MAX_UPLOAD_MB" default:"10"`
}

func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

type AdminConfig struct {
	Emails           []string `envconfig:"PROTEINA_ADMIN_EMAILS"`
	RequireAllowList bool     `envconfig:"PROTEINA_ADMIN_REQUIRE_ALLOWLIST" default:"false"`

	// RateLimit caps admin requests per client IP per RateWindow; zero disables it.
	RateLimit  int           `envconfig:"PROTEINA_ADMIN_RATE_LIMIT" default:"120"`
	RateWindow time.Duration `envconfig:"PROTEINA_ADMIN_RATE_WINDOW" default:"1m"`

	// TrustProxy keys the rate limit on X-Forwarded-For instead of the peer address.
	TrustProxy bool `envconfig:"PROTEINA_TRUST_PROXY" default:"false"`
}

// AllowList returns the normalized (trimmed, lower-cased, non-empty) admin emails.
func (a AdminConfig) AllowList() []string {
	out := make([]string, 0, len(a.Emails))
	for _, e := range a.Emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (a AdminConfig) validate() error {
	if a.RequireAllowList && len(a.AllowList()) == 0 {
		return errors.New(EnvAdminEmails + " must list at least one email when " + EnvAdminRequireAllowList + " is set")
	}
	return nil
}

type StoreConfig struct {
	Phone string `envconfig:"PROTEINA_STORE_PHONE" default:"+595 981 000000"`
}

type HTTPConfig struct {
	ClientTimeout time.Duration `envconfig:"PROTEINA_HTTP_CLIENT_TIMEOUT" default:"15s"`
	CORSOrigins   []string      `envconfig:"PROTEINA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
