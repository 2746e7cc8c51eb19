// Package config loads settings from config.toml, an optional .env file and
// GEMERP_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const envPrefix = "GEMERP"

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Lock      LockConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Partner   PartnerConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name string
	Env  string // development, test, staging, production
	Port string
}

type LogConfig struct {
	Level  string
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig selects one of postgres, mysql or sqlite. Host and friends are
// ignored for sqlite, Path is ignored for the others.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string
	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int `mapstructure:"conn_max_idle_time"` // minutes
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LockConfig controls the Redis locks taken in front of ledger and processing
// workflows. TTL must outlive the slowest workflow.
type LockConfig struct {
	Enabled    bool
	TTL        time.Duration
	RetryEvery time.Duration `mapstructure:"retry_every"`
	MaxWait    time.Duration `mapstructure:"max_wait"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"` // empty refuses cross-origin requests
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
}

// StorageConfig points at the S3-compatible bucket holding evidence photos.
// An empty Endpoint means AWS itself.
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
}

type PartnerConfig struct {
	PhoneRegion string `mapstructure:"phone_region"` // region assumed for numbers without a country prefix
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          // plaintext gRPC to the collector
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// defaults names every key, so AutomaticEnv can override any of them when
// viper unmarshals
var defaults = map[string]any{
	"app.name": "gemerp-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               0, // filled per driver
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "gemerp",
	"database.sslmode":            "disable",
	"database.path":               "gemerp.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"lock.enabled":     false,
	"lock.ttl":         30 * time.Second,
	"lock.retry_every": 100 * time.Millisecond,
	"lock.max_wait":    5 * time.Second,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      30 * time.Second,
	"http.idle_timeout":       60 * time.Second,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(10 << 20),
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "X-Request-ID", "X-Operator"},
	"http.trusted_proxies":    []string{},

	"storage.enabled":           false,
	"storage.endpoint":          "",
	"storage.region":            "us-east-1",
	"storage.bucket":            "",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.use_path_style":    false,
	"storage.presign_expiry":    15 * time.Minute,
	"storage.max_upload_size":   int64(8 << 20),

	"partner.phone_region": "LK",

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "gemerp-backend",
	"telemetry.insecure":                false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads config.toml from ., ./backend or /app when present, then a .env
// file, then the environment. A .env never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load() // usually absent outside local development

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
		if cfg.Database.Driver == DriverMySQL {
			cfg.Database.Port = 3306
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch {
	case !slices.Contains([]string{DriverPostgres, DriverMySQL, DriverSQLite}, db.Driver):
		return fmt.Errorf("database.driver must be one of postgres, mysql, sqlite; got %q", db.Driver)
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	case c.Lock.Enabled && c.Lock.MaxWait > c.Lock.TTL:
		return fmt.Errorf("lock.max_wait (%s) cannot exceed lock.ttl (%s)", c.Lock.MaxWait, c.Lock.TTL)
	case c.Storage.Enabled && c.Storage.Bucket == "":
		return errors.New("storage.bucket is required when storage is enabled")
	case c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1:
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

func (c *Config) validateProduction() error {
	db := c.Database
	switch {
	case db.Driver == DriverSQLite:
		return errors.New("database.driver sqlite is not allowed in production")
	case db.Password == "":
		return errors.New("database.password is required in production")
	case db.Driver == DriverPostgres && db.SSLMode == "disable":
		return errors.New("database.sslmode cannot be 'disable' in production")
	case slices.Contains(c.HTTP.CORSAllowOrigins, "*"):
		return errors.New("http.cors_allow_origins cannot be '*' in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	return nil
}

// DSN returns the connection string for the configured driver with escaped credentials
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverMySQL:
		// clientFoundRows makes RowsAffected count matched rows, as postgres does
		q := url.Values{}
		q.Set("charset", "utf8mb4")
		q.Set("parseTime", "true")
		q.Set("loc", "UTC")
		q.Set("clientFoundRows", "true")
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", d.User, d.Password, d.Host, d.Port, d.DBName, q.Encode())
	case DriverSQLite:
		if d.Path == ":memory:" {
			return "file::memory:?cache=shared&_foreign_keys=on"
		}
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", d.Path)
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     d.DBName,
			RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
		}
		return u.String()
	}
}
