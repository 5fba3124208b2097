// Package config loads application configuration from defaults, an optional
// YAML file, and CLINICDESK_-prefixed environment variables, in that order
// of precedence (later sources win).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CLINICDESK_"

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Cookie   CookieConfig   `koanf:"cookie"`
	CORS     CORSConfig     `koanf:"cors"`
	Audit    AuditConfig    `koanf:"audit"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// SessionConfig contains session store settings.
type SessionConfig struct {
	// Backend selects the session store: "memory" or "redis".
	Backend string        `koanf:"backend"`
	TTL     time.Duration `koanf:"ttl"`
	Redis   RedisConfig   `koanf:"redis"`
}

// RedisConfig contains Redis connection settings for the session store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`

	// TokenSecret signs bearer tokens for non-browser API clients.
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`

	// LoginRatePerMinute and LoginBurst throttle attempts per identifier.
	// A zero rate disables throttling.
	LoginRatePerMinute float64 `koanf:"login_rate_per_minute"`
	LoginBurst         int     `koanf:"login_burst"`
}

// CookieConfig contains session cookie settings.
type CookieConfig struct {
	Secure bool   `koanf:"secure"`
	Domain string `koanf:"domain"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// AuditConfig contains audit trail settings.
type AuditConfig struct {
	Enabled       bool          `koanf:"enabled"`
	QueueSize     int           `koanf:"queue_size"`
	BatchSize     int           `koanf:"batch_size"`
	FlushInterval time.Duration `koanf:"flush_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     12 * time.Hour,
		},
		Auth: AuthConfig{
			BcryptCost:         12,
			TokenTTL:           15 * time.Minute,
			LoginRatePerMinute: 10,
			LoginBurst:         5,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Audit: AuditConfig{
			Enabled:       true,
			QueueSize:     1024,
			BatchSize:     64,
			FlushInterval: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the optional YAML file at path and from the
// environment, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// CLINICDESK_DATABASE__URL -> database.url; double underscore
	// separates nesting levels so key names may contain underscores.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration using the CONFIG_FILE environment variable
// for the optional file path.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Validate checks settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.backend must be \"memory\" or \"redis\", got %q", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return fmt.Errorf("session.redis.addr is required for the redis backend")
	}
	return nil
}
