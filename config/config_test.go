package config_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sinapp/config"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sinapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
  secure_cookies: true
auth:
  jwt_secret: "`+secret+`"
  token_ttl: 2h
session:
  backend: memory
interop:
  mode: http
  base_url: "https://cases.internal.example/api"
  timeout: 5s
log:
  level: debug
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.SecureCookies)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 5*time.Second, cfg.Interop.Timeout)
	assert.Equal(t, 5, cfg.Interop.BreakerThreshold, "untouched fields keep defaults")
	assert.Equal(t, "sinapp_session", cfg.Session.CookieName)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("SINAPP_JWT_SECRET", secret)
	t.Setenv("SINAPP_ADDR", ":7000")
	t.Setenv("SINAPP_SESSION_TTL", "30m")
	t.Setenv("SINAPP_SECURE_COOKIES", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Server.SecureCookies)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("SINAPP_JWT_SECRET", secret)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "fake", cfg.Interop.Mode)
	assert.Equal(t, "data/sinapp.db", cfg.EventsDBPath())
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeFile(t, "server:\n  adress: \":9000\"\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adress")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_ValidationErrorsAggregated(t *testing.T) {
	path := writeFile(t, `
session:
  backend: redis
interop:
  mode: http
log:
  level: loud
`)
	_, err := config.Load(path)
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.ElementsMatch(t, []string{
		"auth.jwt_secret",
		"session.backend",
		"interop.base_url",
		"log.level",
	}, verrs.Fields())
	assert.NotContains(t, err.Error(), secret)
}

func TestApplyEnv_BadValues(t *testing.T) {
	cfg := config.Default()
	env := map[string]string{
		"SINAPP_TOKEN_TTL":        "forever",
		"SINAPP_LOGIN_RATE_LIMIT": "many",
	}
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SINAPP_TOKEN_TTL")
	assert.Contains(t, err.Error(), "SINAPP_LOGIN_RATE_LIMIT")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		c := config.Default()
		c.Auth.JWTSecret = secret
		return c
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"short secret", func(c *config.Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"empty addr", func(c *config.Config) { c.Server.Addr = "" }, "server.addr"},
		{"negative rate", func(c *config.Config) { c.Server.LoginRateLimit = -1 }, "server.login_rate_limit"},
		{"bad cookie", func(c *config.Config) { c.Session.CookieName = "a b" }, "session.cookie_name"},
		{"zero ttl", func(c *config.Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"ftp interop", func(c *config.Config) {
			c.Interop.Mode = "http"
			c.Interop.BaseURL = "ftp://cases.example"
		}, "interop.base_url"},
		{"zero breaker", func(c *config.Config) {
			c.Interop.Mode = "http"
			c.Interop.BaseURL = "http://10.0.0.5:8080"
			c.Interop.BreakerThreshold = 0
		}, "interop.breaker_threshold"},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative retention", func(c *config.Config) { c.Events.RetentionDays = -1 }, "events.retention_days"},
	}

	require.Empty(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			errs := config.ValidationErrors(c.Validate())
			assert.Equal(t, []string{tt.field}, errs.Fields())
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Empty(t, config.ValidationErrors(nil).Error())

	one := config.ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	assert.Equal(t, "config: a: bad (got: 1)", one.Error())

	two := append(one, config.ValidationError{Field: "b", Value: 2, Message: "worse"})
	assert.True(t, strings.HasPrefix(two.Error(), "config: 2 validation errors:"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	config.LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	config.LogConfig{Level: "info", Format: "json"}.NewLogger(&buf).Info("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
