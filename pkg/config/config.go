package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Cart.TaxRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BOOKSTORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"BOOKSTORE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"BOOKSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"BOOKSTORE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"BOOKSTORE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BOOKSTORE_DB_DSN"`

	LegacyHost     string `envconfig:"BOOKSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKSTORE_DB_USER"`
	LegacyPassword string `envconfig:"BOOKSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig holds the settings used to verify tokens minted by the hosted
// auth provider. The backend never issues tokens itself.
type AuthConfig struct {
	JWTSecret string        `envconfig:"BOOKSTORE_AUTH_JWT_SECRET" required:"true"`
	Issuer    string        `envconfig:"BOOKSTORE_AUTH_ISSUER"`
	Audience  string        `envconfig:"BOOKSTORE_AUTH_AUDIENCE" default:"authenticated"`
	Leeway    time.Duration `envconfig:"BOOKSTORE_AUTH_LEEWAY" default:"30s"`
}

type CartConfig struct {
	TaxRateRaw string `envconfig:"BOOKSTORE_CART_TAX_RATE" default:"0.0825"`
	MaxLineQty int    `envconfig:"BOOKSTORE_CART_MAX_LINE_QTY" default:"99"`
}

// TaxRate parses the configured sales tax rate. Rates outside [0,1) are rejected.
func (c CartConfig) TaxRate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.TaxRateRaw)
	if raw == "" {
		return decimal.RequireFromString(DefaultTaxRate), nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", EnvCartTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in [0,1), got %s", EnvCartTaxRate, raw)
	}
	return rate, nil
}

type CatalogConfig struct {
	DetailCacheTTL     time.Duration `envconfig:"BOOKSTORE_CATALOG_DETAIL_CACHE_TTL" default:"5m"`
	RelatedPriceWindow int           `envconfig:"BOOKSTORE_CATALOG_RELATED_PRICE_WINDOW_CENTS" default:"500"`
	RelatedLimit       int           `envconfig:"BOOKSTORE_CATALOG_RELATED_LIMIT" default:"4"`
}

type RateLimitConfig struct {
	DiscountWindow time.Duration `envconfig:"BOOKSTORE_RATE_LIMIT_DISCOUNT_WINDOW" default:"1m"`
	DiscountLimit  int           `envconfig:"BOOKSTORE_RATE_LIMIT_DISCOUNT_LIMIT" default:"10"`
	// TrustProxy keys anonymous traffic on X-Forwarded-For. Enable only behind
	// a proxy that appends the client address.
	TrustProxy bool `envconfig:"BOOKSTORE_RATE_LIMIT_TRUST_PROXY" default:"false"`
}

type IdempotencyConfig struct {
	CheckoutTTL time.Duration `envconfig:"BOOKSTORE_IDEMPOTENCY_CHECKOUT_TTL" default:"168h"`
	CancelTTL   time.Duration `envconfig:"BOOKSTORE_IDEMPOTENCY_CANCEL_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOOKSTORE_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BOOKSTORE_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"BOOKSTORE_CRON_LOCK_TTL" default:"2m"`
	// CartRetentionDays drops cart lines untouched for this many days.
	CartRetentionDays int           `envconfig:"BOOKSTORE_CART_RETENTION_DAYS" default:"30"`
	StatsSnapshotTTL  time.Duration `envconfig:"BOOKSTORE_STATS_SNAPSHOT_TTL" default:"10m"`
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
