package issuehub

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sockerless/issuehub/upstream"
)

// Config is the gateway configuration. It is loaded once at startup and
// passed by value afterwards.
type Config struct {
	Addr     string          `yaml:"addr"`
	LogLevel string          `yaml:"log_level"`
	TLSCert  string          `yaml:"tls_cert"`
	TLSKey   string          `yaml:"tls_key"`
	Upstream upstream.Config `yaml:"upstream"`
}

// DefaultConfig returns the built-in defaults. The token has no default.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8000",
		LogLevel: "info",
		Upstream: upstream.DefaultConfig(),
	}
}

// LoadConfig layers, in order: defaults, the YAML file at path (if path is
// non-empty), a .env file in the working directory (if present), and the
// process environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Upstream.Token = v
	} else if v := os.Getenv("TOKEN_KEY"); v != "" {
		c.Upstream.Token = v
	}
	if v := os.Getenv("ISSUEHUB_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("ISSUEHUB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ISSUEHUB_UPSTREAM_URL"); v != "" {
		c.Upstream.Endpoint = v
	}
	if v := os.Getenv("ISSUEHUB_TLS_CERT"); v != "" {
		c.TLSCert = v
	}
	if v := os.Getenv("ISSUEHUB_TLS_KEY"); v != "" {
		c.TLSKey = v
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if c.Addr == "" {
		return &upstream.ConfigError{Field: "addr", Reason: "must not be empty"}
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return &upstream.ConfigError{Field: "tls", Reason: "tls_cert and tls_key must be set together"}
	}
	return c.Upstream.Validate()
}
