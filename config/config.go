// Package config loads the sinapp service configuration from a YAML file,
// applies SINAPP_* environment overrides and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Interop  InteropConfig  `yaml:"interop"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	SecureCookies     bool          `yaml:"secure_cookies"`
	LoginRateLimit    int           `yaml:"login_rate_limit"` // attempts per window per IP, 0 disables
	LoginRateWindow   time.Duration `yaml:"login_rate_window"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig controls staff authentication.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DatabaseConfig points at the SQLite file holding users and, for the
// sqlite session backend, sessions.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig controls the wizard session store.
type SessionConfig struct {
	Backend         string        `yaml:"backend"` // memory | sqlite
	TTL             time.Duration `yaml:"ttl"`
	CookieName      string        `yaml:"cookie_name"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// InteropConfig controls the case management API client.
type InteropConfig struct {
	Mode             string        `yaml:"mode"` // http | fake
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	AllowPrivate     bool          `yaml:"allow_private"`
}

// EventsConfig controls the business event log. An empty DBPath shares the
// main database file.
type EventsConfig struct {
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// Default returns a configuration suitable for local development, minus the
// JWT secret which must always be provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			LoginRateLimit:    10,
			LoginRateWindow:   time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 8 * time.Hour,
		},
		Database: DatabaseConfig{
			Path: "data/sinapp.db",
		},
		Session: SessionConfig{
			Backend:         "sqlite",
			TTL:             8 * time.Hour,
			CookieName:      "sinapp_session",
			JanitorInterval: 10 * time.Minute,
		},
		Interop: InteropConfig{
			Mode:             "fake",
			Timeout:          15 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Events: EventsConfig{
			RetentionDays: 90,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (skipped when empty) over the defaults, applies
// environment overrides and validates. A validation failure is returned as
// ValidationErrors.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from SINAPP_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SINAPP_ADDR", &c.Server.Addr)
	boolean("SINAPP_SECURE_COOKIES", &c.Server.SecureCookies)
	integer("SINAPP_LOGIN_RATE_LIMIT", &c.Server.LoginRateLimit)
	str("SINAPP_JWT_SECRET", &c.Auth.JWTSecret)
	duration("SINAPP_TOKEN_TTL", &c.Auth.TokenTTL)
	str("SINAPP_DB_PATH", &c.Database.Path)
	str("SINAPP_SESSION_BACKEND", &c.Session.Backend)
	duration("SINAPP_SESSION_TTL", &c.Session.TTL)
	str("SINAPP_INTEROP_MODE", &c.Interop.Mode)
	str("SINAPP_INTEROP_BASE_URL", &c.Interop.BaseURL)
	str("SINAPP_INTEROP_API_KEY", &c.Interop.APIKey)
	duration("SINAPP_INTEROP_TIMEOUT", &c.Interop.Timeout)
	str("SINAPP_EVENTS_DB_PATH", &c.Events.DBPath)
	str("SINAPP_LOG_LEVEL", &c.Log.Level)
	str("SINAPP_LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// EventsDBPath is the file the event log writes to.
func (c *Config) EventsDBPath() string {
	if c.Events.DBPath != "" {
		return c.Events.DBPath
	}
	return c.Database.Path
}

// SlogLevel maps Level to a slog.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
