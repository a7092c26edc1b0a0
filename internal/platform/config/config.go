// Package config loads service configuration from defaults, an optional YAML
// file (RADAR_CONFIG) and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// RetentionMode selects when the retention sweep runs.
type RetentionMode string

const (
	// RetentionOnLookup sweeps at the start of every live lookup.
	RetentionOnLookup RetentionMode = "on_lookup"
	// RetentionScheduled sweeps on a ticker owned by the server process.
	RetentionScheduled RetentionMode = "scheduled"
)

// Config is the full service configuration.
type Config struct {
	Environment string
	Server      Server
	Database    Database
	Redis       RedisConfig
	Kafka       Kafka
	Auth        Auth
	Upstream    Upstream
	Lookup      Lookup
	Batch       Batch
	Log         Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	// WriteTimeout bounds every response, so lookup and batch time limits
	// must stay below it.
	WriteTimeout time.Duration
}

type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL keeps token revocation in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka is optional; no brokers disables the attempt-log topic sink.
type Kafka struct {
	Brokers       []string
	AttemptsTopic string
}

type Auth struct {
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string

	LoginMaxFailures  int
	LoginWindow       time.Duration
	LoginLockDuration time.Duration
}

type Upstream struct {
	RadarURL               string
	RadarToken             string
	RadarTimeout           time.Duration
	ReceitaWSURL           string
	ReceitaWSTimeout       time.Duration
	ReceitaWSRatePerMinute int
}

type Lookup struct {
	CacheDays         int
	MaxAttempts       int
	RetryDelay        time.Duration
	RepairMaxAttempts int
	RepairRetryDelay  time.Duration
	RetentionMode     RetentionMode
	RetentionInterval time.Duration
	// Timeout bounds the upstream fetch of one live lookup.
	Timeout  time.Duration
	Timezone string
	Location *time.Location
}

type Batch struct {
	Workers       int
	RatePerSecond float64
	MaxSize       int
	Timeout       time.Duration
}

type Log struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"environment":               "production",
	"port":                      "8080",
	"shutdown_timeout":          "15s",
	"http_write_timeout":        "15m",
	"database_url":              "",
	"db_max_open_conns":         10,
	"db_max_idle_conns":         5,
	"db_conn_max_lifetime":      "30m",
	"redis_url":                 "",
	"redis_pool_size":           10,
	"redis_min_idle_conns":      2,
	"redis_dial_timeout":        "5s",
	"redis_read_timeout":        "3s",
	"redis_write_timeout":       "3s",
	"kafka_brokers":             "",
	"kafka_attempts_topic":      "radar.lookup-attempts",
	"jwt_secret":                "",
	"jwt_issuer":                "radar",
	"jwt_ttl":                   "60h",
	"admin_email":               "",
	"admin_password":            "",
	"admin_name":                "Administrador",
	"login_max_failures":        5,
	"login_failure_window":      "15m",
	"login_lock_duration":       "15m",
	"url_radar":                 "",
	"api_token":                 "",
	"radar_timeout":             "300s",
	"receitaws_url":             "https://www.receitaws.com.br",
	"receitaws_timeout":         "30s",
	"receitaws_rate_per_minute": 0,
	"cache_days":                90,
	"lookup_max_attempts":       10,
	"lookup_retry_delay":        "5s",
	"repair_max_attempts":       10,
	"repair_retry_delay":        "900ms",
	"retention_mode":            string(RetentionOnLookup),
	"retention_interval":        "1h",
	"lookup_timeout":            "10m",
	"timezone":                  "America/Sao_Paulo",
	"batch_workers":             4,
	"batch_rate_per_second":     2.0,
	"batch_max_size":            1000,
	"batch_timeout":             "14m",
	"log_level":                 "info",
	"log_format":                "json",
}

// Load reads configuration. When RADAR_CONFIG names a YAML file its keys
// (lower-case env names, e.g. cache_days) override defaults; environment
// variables override both.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := v.GetString("radar_config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Environment: v.GetString("environment"),
		Server: Server{
			Addr:            ":" + strings.TrimPrefix(v.GetString("port"), ":"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
			WriteTimeout:    v.GetDuration("http_write_timeout"),
		},
		Database: Database{
			URL:             v.GetString("database_url"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis_url"),
			PoolSize:     v.GetInt("redis_pool_size"),
			MinIdleConns: v.GetInt("redis_min_idle_conns"),
			DialTimeout:  v.GetDuration("redis_dial_timeout"),
			ReadTimeout:  v.GetDuration("redis_read_timeout"),
			WriteTimeout: v.GetDuration("redis_write_timeout"),
		},
		Kafka: Kafka{
			Brokers:       splitList(v.GetString("kafka_brokers")),
			AttemptsTopic: v.GetString("kafka_attempts_topic"),
		},
		Auth: Auth{
			JWTSecret:     v.GetString("jwt_secret"),
			JWTIssuer:     v.GetString("jwt_issuer"),
			TokenTTL:      v.GetDuration("jwt_ttl"),
			AdminEmail:    v.GetString("admin_email"),
			AdminPassword: v.GetString("admin_password"),
			AdminName:     v.GetString("admin_name"),

			LoginMaxFailures:  v.GetInt("login_max_failures"),
			LoginWindow:       v.GetDuration("login_failure_window"),
			LoginLockDuration: v.GetDuration("login_lock_duration"),
		},
		Upstream: Upstream{
			RadarURL:               v.GetString("url_radar"),
			RadarToken:             v.GetString("api_token"),
			RadarTimeout:           v.GetDuration("radar_timeout"),
			ReceitaWSURL:           strings.TrimRight(v.GetString("receitaws_url"), "/"),
			ReceitaWSTimeout:       v.GetDuration("receitaws_timeout"),
			ReceitaWSRatePerMinute: v.GetInt("receitaws_rate_per_minute"),
		},
		Lookup: Lookup{
			CacheDays:         v.GetInt("cache_days"),
			MaxAttempts:       v.GetInt("lookup_max_attempts"),
			RetryDelay:        v.GetDuration("lookup_retry_delay"),
			RepairMaxAttempts: v.GetInt("repair_max_attempts"),
			RepairRetryDelay:  v.GetDuration("repair_retry_delay"),
			RetentionMode:     RetentionMode(strings.ToLower(v.GetString("retention_mode"))),
			RetentionInterval: v.GetDuration("retention_interval"),
			Timeout:           v.GetDuration("lookup_timeout"),
			Timezone:          v.GetString("timezone"),
		},
		Batch: Batch{
			Workers:       v.GetInt("batch_workers"),
			RatePerSecond: v.GetFloat64("batch_rate_per_second"),
			MaxSize:       v.GetInt("batch_max_size"),
			Timeout:       v.GetDuration("batch_timeout"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}

	loc, err := time.LoadLocation(cfg.Lookup.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Lookup.Timezone, err)
	}
	cfg.Lookup.Location = loc

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsLocal reports whether the service runs in a developer environment.
func (c Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "test"
}

// Validate checks ranges and required secrets.
func (c Config) Validate() error {
	var errs []error
	if c.Lookup.CacheDays < 0 {
		errs = append(errs, errors.New("cache_days must not be negative"))
	}
	if c.Lookup.MaxAttempts < 1 || c.Lookup.RepairMaxAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}
	if c.Lookup.RetryDelay < 0 || c.Lookup.RepairRetryDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	switch c.Lookup.RetentionMode {
	case RetentionOnLookup:
	case RetentionScheduled:
		if c.Lookup.RetentionInterval <= 0 {
			errs = append(errs, errors.New("retention_interval must be positive in scheduled mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown retention_mode %q", c.Lookup.RetentionMode))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, errors.New("batch_workers must be at least 1"))
	}
	if c.Batch.RatePerSecond < 0 || c.Upstream.ReceitaWSRatePerMinute < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	errs = append(errs, c.validateTimeouts()...)
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("jwt_ttl must be positive"))
	}
	if c.Auth.LoginMaxFailures < 1 || c.Auth.LoginWindow <= 0 || c.Auth.LoginLockDuration <= 0 {
		errs = append(errs, errors.New("login lockout settings must be positive"))
	}
	if c.Auth.JWTSecret == "" && !c.IsLocal() {
		errs = append(errs, errors.New("jwt_secret is required outside local environments"))
	}
	return errors.Join(errs...)
}

// validateTimeouts keeps every response inside the server write timeout. A
// full batch must be able to start all of its keys before batch_timeout.
func (c Config) validateTimeouts() []error {
	var errs []error
	write := c.Server.WriteTimeout
	if write <= 0 {
		return []error{errors.New("http_write_timeout must be positive")}
	}
	if c.Lookup.Timeout <= 0 || c.Lookup.Timeout >= write {
		errs = append(errs, fmt.Errorf("lookup_timeout must be positive and below http_write_timeout (%s)", write))
	}
	if c.Batch.Timeout <= 0 || c.Batch.Timeout >= write {
		errs = append(errs, fmt.Errorf("batch_timeout must be positive and below http_write_timeout (%s)", write))
	}
	if c.Batch.MaxSize < 1 {
		errs = append(errs, errors.New("batch_max_size must be at least 1"))
	} else if c.Batch.RatePerSecond > 0 {
		startAll := time.Duration(float64(c.Batch.MaxSize) / c.Batch.RatePerSecond * float64(time.Second))
		if startAll >= c.Batch.Timeout {
			errs = append(errs, fmt.Errorf("batch_max_size %d needs %s to start at %.2g/s, above batch_timeout %s",
				c.Batch.MaxSize, startAll, c.Batch.RatePerSecond, c.Batch.Timeout))
		}
	}
	return errs
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
