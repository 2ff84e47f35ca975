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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"FOODCART_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOODCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FOODCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FOODCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FOODCART_DB_DSN"`

	LegacyHost     string `envconfig:"FOODCART_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODCART_DB_USER"`
	LegacyPassword string `envconfig:"FOODCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"FOODCART_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODCART_REDIS_URL"`
	Address      string        `envconfig:"FOODCART_REDIS_ADDR"`
	Password     string        `envconfig:"FOODCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FOODCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FOODCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FOODCART_JWT_EXPIRATION_MINUTES" default:"60"`

	// Leeway tolerates clock skew between the issuing service and this one.
	Leeway time.Duration `envconfig:"FOODCART_JWT_LEEWAY" default:"30s"`
}

// CartConfig controls how cart and checkout snapshots are kept in Redis.
type CartConfig struct {
	SnapshotTTL   time.Duration `envconfig:"FOODCART_CART_SNAPSHOT_TTL" default:"720h"`
	SessionHeader string        `envconfig:"FOODCART_CART_SESSION_HEADER" default:"X-Cart-Session"`
}

type CheckoutConfig struct {
	SuggestionsEnabled bool `envconfig:"FOODCART_CHECKOUT_SUGGESTIONS" default:"true"`
}

// CronConfig drives the scheduled job worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"FOODCART_CRON_INTERVAL" default:"5m"`
	PendingOrderTTL time.Duration `envconfig:"FOODCART_CRON_PENDING_ORDER_TTL" default:"2h"`
	BatchSize       int           `envconfig:"FOODCART_CRON_BATCH_SIZE" default:"200"`
	// MetricsAddr serves /metrics for the worker; empty disables the listener.
	MetricsAddr string `envconfig:"FOODCART_CRON_METRICS_ADDR" default:":9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FOODCART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
