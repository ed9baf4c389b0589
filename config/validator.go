package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hazyhaar/sinapp/horosafe"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string // dotted yaml path, e.g. "session.backend"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failure found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return "config: " + e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "config: %d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Fields lists the failing field paths in order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, len(e))
	for i, v := range e {
		out[i] = v.Field
	}
	return out
}

var cookieNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidLogLevels returns the accepted log.level values.
func ValidLogLevels() []string { return []string{"debug", "info", "warn", "error"} }

// ValidSessionBackends returns the accepted session.backend values.
func ValidSessionBackends() []string { return []string{"memory", "sqlite"} }

// ValidInteropModes returns the accepted interop.mode values.
func ValidInteropModes() []string { return []string{"http", "fake"} }

// Validate returns every invalid setting. The JWT secret itself is never
// echoed back.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateInterop()...)
	errs = append(errs, c.validateLog()...)
	return errs
}

func (c *Config) validateServer() []ValidationError {
	var errs []ValidationError
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Value: c.Server.Addr, Message: "is required"})
	}
	if c.Server.LoginRateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.login_rate_limit", Value: c.Server.LoginRateLimit, Message: "must be non-negative"})
	}
	if c.Server.LoginRateLimit > 0 && c.Server.LoginRateWindow <= 0 {
		errs = append(errs, ValidationError{Field: "server.login_rate_window", Value: c.Server.LoginRateWindow, Message: "must be positive when rate limiting is enabled"})
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "server.shutdown_timeout", Value: c.Server.ShutdownTimeout, Message: "must be positive"})
	}
	return errs
}

func (c *Config) validateAuth() []ValidationError {
	var errs []ValidationError
	if err := horosafe.ValidateSecret([]byte(c.Auth.JWTSecret)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "auth.jwt_secret",
			Value:   fmt.Sprintf("<%d bytes>", len(c.Auth.JWTSecret)),
			Message: fmt.Sprintf("must be at least %d bytes", horosafe.MinSecretLen),
		})
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "auth.token_ttl", Value: c.Auth.TokenTTL, Message: "must be positive"})
	}
	return errs
}

func (c *Config) validateStorage() []ValidationError {
	var errs []ValidationError
	if c.Database.Path == "" {
		errs = append(errs, ValidationError{Field: "database.path", Value: c.Database.Path, Message: "is required"})
	}
	if !slices.Contains(ValidSessionBackends(), c.Session.Backend) {
		errs = append(errs, ValidationError{
			Field:   "session.backend",
			Value:   c.Session.Backend,
			Message: "must be one of: " + strings.Join(ValidSessionBackends(), ", "),
		})
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, ValidationError{Field: "session.ttl", Value: c.Session.TTL, Message: "must be positive"})
	}
	if !cookieNamePattern.MatchString(c.Session.CookieName) {
		errs = append(errs, ValidationError{Field: "session.cookie_name", Value: c.Session.CookieName, Message: "must be 1-64 letters, digits, '-' or '_'"})
	}
	if c.Session.Backend == "sqlite" && c.Session.JanitorInterval <= 0 {
		errs = append(errs, ValidationError{Field: "session.janitor_interval", Value: c.Session.JanitorInterval, Message: "must be positive for the sqlite backend"})
	}
	if c.Events.RetentionDays < 0 {
		errs = append(errs, ValidationError{Field: "events.retention_days", Value: c.Events.RetentionDays, Message: "must be non-negative"})
	}
	return errs
}

func (c *Config) validateInterop() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidInteropModes(), c.Interop.Mode) {
		errs = append(errs, ValidationError{
			Field:   "interop.mode",
			Value:   c.Interop.Mode,
			Message: "must be one of: " + strings.Join(ValidInteropModes(), ", "),
		})
		return errs
	}
	if c.Interop.Mode == "fake" {
		return errs
	}

	if c.Interop.BaseURL == "" {
		errs = append(errs, ValidationError{Field: "interop.base_url", Value: c.Interop.BaseURL, Message: "is required in http mode"})
	} else if err := horosafe.ValidateURL(c.Interop.BaseURL, true); err != nil {
		errs = append(errs, ValidationError{Field: "interop.base_url", Value: c.Interop.BaseURL, Message: err.Error()})
	}
	if c.Interop.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "interop.timeout", Value: c.Interop.Timeout, Message: "must be positive"})
	}
	if c.Interop.BreakerThreshold < 1 {
		errs = append(errs, ValidationError{Field: "interop.breaker_threshold", Value: c.Interop.BreakerThreshold, Message: "must be at least 1"})
	}
	if c.Interop.BreakerCooldown <= 0 {
		errs = append(errs, ValidationError{Field: "interop.breaker_cooldown", Value: c.Interop.BreakerCooldown, Message: "must be positive"})
	}
	return errs
}

func (c *Config) validateLog() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be one of: " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, ValidationError{Field: "log.format", Value: c.Log.Format, Message: "must be json or text"})
	}
	return errs
}
