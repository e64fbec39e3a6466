package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestDefaultsResolve(t *testing.T) {
	cfg, err := DefaultFileConfig().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server addr = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.MaxBodySize != 1<<20 {
		t.Errorf("MaxBodySize = %d, want %d", cfg.Server.MaxBodySize, 1<<20)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.LoginLimit.Window != 15*time.Minute || cfg.LoginLimit.MaxAttempts != 5 {
		t.Errorf("LoginLimit = %+v", cfg.LoginLimit)
	}
	if cfg.LoginLimit.KeyPrefix != "login:" {
		t.Errorf("KeyPrefix = %q", cfg.LoginLimit.KeyPrefix)
	}
	if cfg.Lockout.Threshold != 5 || cfg.Lockout.Duration != 15*time.Minute {
		t.Errorf("Lockout = %+v", cfg.Lockout)
	}
	if cfg.Server.TrustCFHeader {
		t.Error("CF-Connecting-IP must not be trusted by default")
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled by default")
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
		t.Errorf("logging = %v/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestValidate_SecretRequiredOutsideDev(t *testing.T) {
	cfg, err := DefaultFileConfig().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := cfg.Validate(false); err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("Validate(false) = %v, want jwt_secret error", err)
	}
	if err := cfg.Validate(true); err != nil {
		t.Errorf("Validate(true) = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// Resolve and Validate failures
// ---------------------------------------------------------------------------

func TestResolve_BadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
		want   string
	}{
		{"shutdown timeout", func(f *FileConfig) { f.Server.ShutdownTimeout = "soon" }, "server.shutdown_timeout"},
		{"body size", func(f *FileConfig) { f.Server.MaxBodySize = "lots" }, "server.max_body_size"},
		{"token ttl", func(f *FileConfig) { f.Auth.TokenTTL = "7d" }, "auth.token_ttl"},
		{"window", func(f *FileConfig) { f.RateLimit.Window = "" }, "ratelimit.window"},
		{"lockout duration", func(f *FileConfig) { f.Lockout.Duration = "x" }, "lockout.duration"},
		{"log level", func(f *FileConfig) { f.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFileConfig()
			tt.mutate(f)
			_, err := f.Resolve()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
		want   string
	}{
		{"unknown driver", func(f *FileConfig) { f.Store.Driver = "mysql" }, "store.driver"},
		{"postgres without dsn", func(f *FileConfig) { f.Store.Driver = "postgres"; f.Store.DSN = "" }, "store.dsn"},
		{"zero attempts", func(f *FileConfig) { f.RateLimit.LoginMaxAttempts = 0 }, "ratelimit"},
		{"zero threshold", func(f *FileConfig) { f.Lockout.Threshold = 0 }, "lockout"},
		{"bad port", func(f *FileConfig) { f.Server.Port = 70000 }, "server.port"},
		{"negative public limit", func(f *FileConfig) { f.Server.PublicRateLimit = -1 }, "public_rate_limit"},
		{"bad log format", func(f *FileConfig) { f.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFileConfig()
			f.Auth.JWTSecret = "secret"
			tt.mutate(f)
			cfg, err := f.Resolve()
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			err = cfg.Validate(false)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_MongoDriver(t *testing.T) {
	f := DefaultFileConfig()
	f.Auth.JWTSecret = "secret"
	f.Store.Driver = "MongoDB"
	f.Store.DSN = "mongodb://localhost:27017"
	cfg, err := f.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Store.Driver != "mongodb" {
		t.Errorf("Driver = %q, want lowercased", cfg.Store.Driver)
	}
	if err := cfg.Validate(false); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// ---------------------------------------------------------------------------
// YAML file
// ---------------------------------------------------------------------------

func TestWriteAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	if err := WriteDefaultFile(path); err != nil {
		t.Fatalf("WriteDefaultFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	t.Setenv("FOLIO_AUTH_JWT_SECRET", "from-env")
	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Auth.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want expanded value", f.Auth.JWTSecret)
	}
	if f.Server.Port != 8080 {
		t.Errorf("Port = %d", f.Server.Port)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	content := "server:\n  port: 9090\nlockout:\n  threshold: 3\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Server.Port != 9090 || f.Lockout.Threshold != 3 {
		t.Errorf("overrides not applied: %+v %+v", f.Server, f.Lockout)
	}
	if f.Lockout.Duration != "15m" || f.Server.Host != "0.0.0.0" {
		t.Errorf("defaults lost: %+v %+v", f.Server, f.Lockout)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

// ---------------------------------------------------------------------------
// Viper
// ---------------------------------------------------------------------------

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	ConfigureEnv(v)
	return v
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("FOLIO_SERVER_PORT", "9000")
	t.Setenv("FOLIO_LOCKOUT_DURATION", "30m")
	t.Setenv("FOLIO_LOGGING_LEVEL", "debug")
	t.Setenv("FOLIO_SERVER_TRUST_CF_CONNECTING_IP", "true")

	cfg, err := Load(newViper(), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Lockout.Duration != 30*time.Minute {
		t.Errorf("Lockout.Duration = %v", cfg.Lockout.Duration)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if !cfg.Server.TrustCFHeader {
		t.Error("TrustCFHeader not set from env")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	content := "auth:\n  jwt_secret: ${TEST_FOLIO_SECRET}\nserver:\n  port: 7000\n  public_rate_limit: 10\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_FOLIO_SECRET", "file-secret")
	t.Setenv("FOLIO_SERVER_PUBLIC_RATE_LIMIT", "20")

	v := newViper()
	if err := ReadFileInto(v, path); err != nil {
		t.Fatalf("ReadFileInto: %v", err)
	}
	cfg, err := Load(v, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want value from file", cfg.Server.Port)
	}
	if cfg.Server.PublicRateLimit != 20 {
		t.Errorf("PublicRateLimit = %d, want env to win", cfg.Server.PublicRateLimit)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("FOLIO_AUTH_JWT_SECRET", "")
	if _, err := Load(newViper(), false); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}
