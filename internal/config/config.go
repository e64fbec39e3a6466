// Package config loads folio settings from a YAML file, FOLIO_ environment
// variables and command-line flags, and resolves them into the typed
// configs consumed by the server, store and security packages.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/server"
	"github.com/foliodev/folio/internal/storage"
	"github.com/foliodev/folio/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. FOLIO_SERVER_PORT.
const EnvPrefix = "FOLIO"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// knownDrivers are the store backends folio ships with.
var knownDrivers = []string{"sqlite", "postgres", "mongodb"}

// AuthConfig is the resolved auth section.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	BootstrapUsername string
	BootstrapPassword string
	BootstrapEmail    string
}

// Config is the fully parsed configuration.
type Config struct {
	Server        server.Config
	Store         store.Config
	Auth          AuthConfig
	LoginLimit    security.RateLimitConfig
	SweepInterval time.Duration
	Lockout       security.LockoutPolicy
	Storage       storage.Config
	LogLevel      slog.Level
	LogFormat     string
}

// Resolve parses durations and sizes and maps every section onto its
// typed config. It does not validate cross-field rules; see Validate.
func (f *FileConfig) Resolve() (*Config, error) {
	var errs []error
	dur := func(key, s string) time.Duration {
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	srv := server.DefaultConfig()
	srv.Host = f.Server.Host
	srv.Port = f.Server.Port
	srv.ShutdownTimeout = dur("server.shutdown_timeout", f.Server.ShutdownTimeout)
	srv.CORSOrigins = f.Server.CORSOrigins
	srv.PublicRateLimit = f.Server.PublicRateLimit
	srv.SecureCookie = f.Auth.SecureCookie
	srv.TrustCFHeader = f.Server.TrustCFConnIP
	srv.BaseURL = f.Server.BaseURL
	if size, err := humanize.ParseBytes(f.Server.MaxBodySize); err != nil {
		errs = append(errs, fmt.Errorf("server.max_body_size: %w", err))
	} else {
		srv.MaxBodySize = int64(size)
	}

	level, err := parseLevel(f.Logging.Level)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: srv,
		Store: store.Config{
			Driver:   strings.ToLower(f.Store.Driver),
			DSN:      f.Store.DSN,
			Database: f.Store.Database,
		},
		Auth: AuthConfig{
			JWTSecret:         f.Auth.JWTSecret,
			TokenTTL:          dur("auth.token_ttl", f.Auth.TokenTTL),
			BootstrapUsername: f.Auth.BootstrapUsername,
			BootstrapPassword: f.Auth.BootstrapPassword,
			BootstrapEmail:    f.Auth.BootstrapEmail,
		},
		LoginLimit: security.RateLimitConfig{
			Window:      dur("ratelimit.window", f.RateLimit.Window),
			MaxAttempts: f.RateLimit.LoginMaxAttempts,
			KeyPrefix:   security.LoginKeyPrefix,
		},
		SweepInterval: dur("ratelimit.sweep_interval", f.RateLimit.SweepInterval),
		Lockout: security.LockoutPolicy{
			Threshold: f.Lockout.Threshold,
			Duration:  dur("lockout.duration", f.Lockout.Duration),
		},
		Storage: storage.Config{
			Endpoint:  f.Storage.Endpoint,
			AccessKey: f.Storage.AccessKey,
			SecretKey: f.Storage.SecretKey,
			Bucket:    f.Storage.Bucket,
			UseSSL:    f.Storage.UseSSL,
			PublicURL: f.Storage.PublicURL,
		},
		LogLevel:  level,
		LogFormat: strings.ToLower(f.Logging.Format),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return cfg, nil
}

// Validate checks the resolved config. In dev mode an empty JWT secret is
// tolerated; the caller is expected to substitute a throwaway one.
func (c *Config) Validate(dev bool) error {
	var errs []error
	if c.Auth.JWTSecret == "" && !dev {
		errs = append(errs, errors.New("auth.jwt_secret is required (set FOLIO_AUTH_JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Server.PublicRateLimit < 0 {
		errs = append(errs, errors.New("server.public_rate_limit must not be negative"))
	}
	if !validDriver(c.Store.Driver) {
		errs = append(errs, fmt.Errorf("store.driver %q is not one of %s", c.Store.Driver, strings.Join(knownDrivers, ", ")))
	}
	if c.Store.Driver != "sqlite" && c.Store.DSN == "" {
		errs = append(errs, fmt.Errorf("store.dsn is required for %s", c.Store.Driver))
	}
	if err := c.LoginLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ratelimit: %w", err))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("ratelimit.sweep_interval must be positive"))
	}
	if err := c.Lockout.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("lockout: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func validDriver(d string) bool {
	for _, k := range knownDrivers {
		if d == k {
			return true
		}
	}
	return false
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return l, nil
}

// ---------------------------------------------------------------------------
// Viper integration
// ---------------------------------------------------------------------------

// SetDefaults registers every key with its default so viper's AutomaticEnv
// can resolve FOLIO_ overrides for keys absent from the file.
func SetDefaults(v *viper.Viper) {
	d := DefaultFileConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.public_rate_limit", d.Server.PublicRateLimit)
	v.SetDefault("server.trust_cf_connecting_ip", d.Server.TrustCFConnIP)
	v.SetDefault("server.base_url", d.Server.BaseURL)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.database", d.Store.Database)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.secure_cookie", d.Auth.SecureCookie)
	v.SetDefault("auth.bootstrap_username", d.Auth.BootstrapUsername)
	v.SetDefault("auth.bootstrap_password", d.Auth.BootstrapPassword)
	v.SetDefault("auth.bootstrap_email", d.Auth.BootstrapEmail)

	v.SetDefault("ratelimit.window", d.RateLimit.Window)
	v.SetDefault("ratelimit.login_max_attempts", d.RateLimit.LoginMaxAttempts)
	v.SetDefault("ratelimit.sweep_interval", d.RateLimit.SweepInterval)

	v.SetDefault("lockout.threshold", d.Lockout.Threshold)
	v.SetDefault("lockout.duration", d.Lockout.Duration)

	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.access_key", d.Storage.AccessKey)
	v.SetDefault("storage.secret_key", d.Storage.SecretKey)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.use_ssl", d.Storage.UseSSL)
	v.SetDefault("storage.public_url", d.Storage.PublicURL)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// ConfigureEnv binds FOLIO_SECTION_KEY environment variables to
// section.key settings.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFileInto loads the YAML file at path into v after ${VAR} expansion.
func ReadFileInto(v *viper.Viper, path string) error {
	data, err := ReadExpanded(path)
	if err != nil {
		return err
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// FromViper decodes the merged viper settings into a FileConfig.
func FromViper(v *viper.Viper) (*FileConfig, error) {
	f := DefaultFileConfig()
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return f, nil
}

// Load decodes, resolves and validates the settings held by v.
func Load(v *viper.Viper, dev bool) (*Config, error) {
	f, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	cfg, err := f.Resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(dev); err != nil {
		return nil, err
	}
	return cfg, nil
}
