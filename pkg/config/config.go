package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STOCKPILOT_DB_DSN"
	EnvDBHost = "STOCKPILOT_DB_HOST"
	EnvDBUser = "STOCKPILOT_DB_USER"
	EnvDBName = "STOCKPILOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Ledger       LedgerConfig
	GCP          GCPConfig
	Audit        AuditConfig
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
	Env          string `envconfig:"STOCKPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKPILOT_DB_DSN"`
	Driver string `envconfig:"STOCKPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKPILOT_DB_USER"`
	LegacyPassword string `envconfig:"STOCKPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKPILOT_REDIS_URL"`
	Address      string        `envconfig:"STOCKPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// LedgerConfig bounds the per-product serialization wait. A mutation that
// cannot acquire its stock row inside LockTimeout surfaces a retryable
// concurrency conflict instead of blocking indefinitely.
type LedgerConfig struct {
	LockTimeout     time.Duration `envconfig:"STOCKPILOT_LEDGER_LOCK_TIMEOUT" default:"3s"`
	MovementMaxPage int           `envconfig:"STOCKPILOT_LEDGER_MOVEMENT_MAX_PAGE" default:"100"`
}

// LockTimeoutMillis renders the lock timeout as Postgres expects it.
func (l LedgerConfig) LockTimeoutMillis() int {
	if l.LockTimeout <= 0 {
		return 3000
	}
	return int(l.LockTimeout.Milliseconds())
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKPILOT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOCKPILOT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKPILOT_GOOGLE_APPLICATION_CREDENTIALS"`
}

// AuditConfig wires the best-effort audit trail. The topic is optional;
// with no topic configured audit entries land in the database only.
type AuditConfig struct {
	Topic string `envconfig:"STOCKPILOT_AUDIT_PUBSUB_TOPIC"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKPILOT_AUTO_MIGRATE" default:"false"`
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
