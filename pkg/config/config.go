package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTENGINE_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTENGINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTENGINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTENGINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARTENGINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN       string `envconfig:"CARTENGINE_DB_DSN"`
	UseSQLite bool   `envconfig:"CARTENGINE_DB_USE_SQLITE" default:"false"`

	LegacyHost     string `envconfig:"CARTENGINE_DB_HOST"`
	LegacyPort     int    `envconfig:"CARTENGINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARTENGINE_DB_USER"`
	LegacyPassword string `envconfig:"CARTENGINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARTENGINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARTENGINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTENGINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTENGINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTENGINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTENGINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTENGINE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"CARTENGINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTENGINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTENGINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTENGINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTENGINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTENGINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTENGINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CARTENGINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CARTENGINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CARTENGINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CartConfig tunes the pricing engine's concurrency behavior.
type CartConfig struct {
	SaveRetryAttempts uint64        `envconfig:"CARTENGINE_CART_SAVE_RETRY_ATTEMPTS" default:"3"`
	SaveRetryBackoff  time.Duration `envconfig:"CARTENGINE_CART_SAVE_RETRY_BACKOFF" default:"100ms"`
	CouponLockWait    time.Duration `envconfig:"CARTENGINE_COUPON_LOCK_WAIT" default:"5s"`
	StaleCartTTL      time.Duration `envconfig:"CARTENGINE_STALE_CART_TTL" default:"2160h"`
}

type CronConfig struct {
	StaleCartInterval time.Duration `envconfig:"CARTENGINE_CRON_STALE_CART_INTERVAL" default:"24h"`
	LockTTL           time.Duration `envconfig:"CARTENGINE_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CARTENGINE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.UseSQLite {
		return fmt.Errorf("%s is required when sqlite is enabled", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
