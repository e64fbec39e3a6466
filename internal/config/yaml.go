package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the base name of the configuration file searched by the CLI.
const FileName = "folio"

// FileConfig represents the top-level folio configuration file. Durations
// and sizes are kept as strings here and parsed by Resolve.
type FileConfig struct {
	Server    ServerSection    `yaml:"server" mapstructure:"server"`
	Store     StoreSection     `yaml:"store" mapstructure:"store"`
	Auth      AuthSection      `yaml:"auth" mapstructure:"auth"`
	RateLimit RateLimitSection `yaml:"ratelimit" mapstructure:"ratelimit"`
	Lockout   LockoutSection   `yaml:"lockout" mapstructure:"lockout"`
	Storage   StorageSection   `yaml:"storage" mapstructure:"storage"`
	Logging   LoggingSection   `yaml:"logging" mapstructure:"logging"`
}

// ServerSection controls the HTTP server behavior.
type ServerSection struct {
	Host            string   `yaml:"host" mapstructure:"host"`
	Port            int      `yaml:"port" mapstructure:"port"`
	ShutdownTimeout string   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     string   `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	PublicRateLimit int      `yaml:"public_rate_limit" mapstructure:"public_rate_limit"`
	TrustCFConnIP   bool     `yaml:"trust_cf_connecting_ip" mapstructure:"trust_cf_connecting_ip"`
	BaseURL         string   `yaml:"base_url" mapstructure:"base_url"`
}

// StoreSection selects the content and account backend.
type StoreSection struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	Database string `yaml:"database" mapstructure:"database"`
}

// AuthSection controls session tokens and the bootstrap account.
type AuthSection struct {
	JWTSecret         string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL          string `yaml:"token_ttl" mapstructure:"token_ttl"`
	SecureCookie      bool   `yaml:"secure_cookie" mapstructure:"secure_cookie"`
	BootstrapUsername string `yaml:"bootstrap_username" mapstructure:"bootstrap_username"`
	BootstrapPassword string `yaml:"bootstrap_password" mapstructure:"bootstrap_password"`
	BootstrapEmail    string `yaml:"bootstrap_email" mapstructure:"bootstrap_email"`
}

// RateLimitSection controls login throttling.
type RateLimitSection struct {
	Window           string `yaml:"window" mapstructure:"window"`
	LoginMaxAttempts int    `yaml:"login_max_attempts" mapstructure:"login_max_attempts"`
	SweepInterval    string `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// LockoutSection controls account locking after failed logins.
type LockoutSection struct {
	Threshold int    `yaml:"threshold" mapstructure:"threshold"`
	Duration  string `yaml:"duration" mapstructure:"duration"`
}

// StorageSection configures S3-compatible object storage for uploads.
// Uploads are disabled unless endpoint, keys and bucket are all set.
type StorageSection struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
}

// LoggingSection controls log output.
type LoggingSection struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultFileConfig returns a FileConfig pre-filled with sensible defaults.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Server: ServerSection{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			MaxBodySize:     "1MiB",
			CORSOrigins:     []string{"*"},
			PublicRateLimit: 120,
		},
		Store: StoreSection{
			Driver: "sqlite",
			DSN:    "folio.db",
		},
		Auth: AuthSection{
			TokenTTL:          "168h",
			BootstrapUsername: "admin",
		},
		RateLimit: RateLimitSection{
			Window:           "15m",
			LoginMaxAttempts: 5,
			SweepInterval:    "1h",
		},
		Lockout: LockoutSection{
			Threshold: 5,
			Duration:  "15m",
		},
		Storage: StorageSection{
			Bucket: "portfolio",
		},
		Logging: LoggingSection{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile reads and parses a YAML configuration file on top of the
// defaults. Environment variables referenced as ${VAR_NAME} in the file are
// expanded before parsing.
func LoadFile(path string) (*FileConfig, error) {
	data, err := ReadExpanded(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// ReadExpanded returns the file at path with ${VAR_NAME} references
// replaced by their environment values.
func ReadExpanded(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return []byte(os.ExpandEnv(string(data))), nil
}

// Marshal renders cfg as YAML.
func (f *FileConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteDefaultFile writes the default configuration to a YAML file. The JWT
// secret is left as an environment reference so it never lands on disk.
func WriteDefaultFile(path string) error {
	cfg := DefaultFileConfig()
	cfg.Auth.JWTSecret = "${FOLIO_AUTH_JWT_SECRET}"
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
