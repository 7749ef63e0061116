package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Log           LogConfig
	Redis         RedisConfig
	JWT           JWTConfig
	PIN           PINConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Sales         SalesConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Sales.validate(); err != nil {
		return nil, err
	}
	if !cfg.Redis.Enabled() && !cfg.DB.IsSQLite() {
		return nil, fmt.Errorf("%s is required unless %s=%s", EnvRedisURL, EnvDBDriver, DBDriverSQLite)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAFEPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"CAFEPOS_APP_PORT" required:"true"`
}

// LogConfig is shared by every binary.
type LogConfig struct {
	Level     string `envconfig:"CAFEPOS_LOG_LEVEL" default:"info"`
	WarnStack bool   `envconfig:"CAFEPOS_LOG_WARN_STACK" default:"false"`
	Format    string `envconfig:"CAFEPOS_LOG_FORMAT" default:"json"`
	NoColor   bool   `envconfig:"CAFEPOS_LOG_NO_COLOR" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAFEPOS_DB_DSN"`
	Driver string `envconfig:"CAFEPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAFEPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"CAFEPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAFEPOS_DB_USER"`
	LegacyPassword string `envconfig:"CAFEPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAFEPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAFEPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAFEPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAFEPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAFEPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAFEPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"CAFEPOS_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CAFEPOS_REDIS_URL"`
	Address      string        `envconfig:"CAFEPOS_REDIS_ADDR"`
	Password     string        `envconfig:"CAFEPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAFEPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAFEPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAFEPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAFEPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAFEPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAFEPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured. Only the sqlite dev
// profile may run without one.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"CAFEPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAFEPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAFEPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PINConfig struct {
	ArgonMemoryKB    int `envconfig:"CAFEPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAFEPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAFEPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAFEPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAFEPOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"CAFEPOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginCashierLimit int           `envconfig:"CAFEPOS_AUTH_RATE_LIMIT_LOGIN_CASHIER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"CAFEPOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CAFEPOS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"CAFEPOS_CORS_MAX_AGE_SECONDS" default:"300"`
}

type SalesConfig struct {
	TaxRateBps       int64  `envconfig:"CAFEPOS_SALES_TAX_RATE_BPS" default:"0"`
	Currency         string `envconfig:"CAFEPOS_SALES_CURRENCY" default:"USD"`
	Locale           string `envconfig:"CAFEPOS_SALES_LOCALE" default:"en-US"`
	SaleNumberPrefix string `envconfig:"CAFEPOS_SALES_NUMBER_PREFIX" default:"S"`
}

func (s SalesConfig) validate() error {
	if s.TaxRateBps < 0 || s.TaxRateBps > 10000 {
		return fmt.Errorf("%s must be between 0 and 10000, got %d", EnvSalesTaxRateBps, s.TaxRateBps)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAFEPOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
