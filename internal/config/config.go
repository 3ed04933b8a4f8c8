// Package config loads service configuration from an optional
// config.yaml and FUNNEL_-prefixed environment variables, with env
// taking precedence.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Attribution AttributionConfig `koanf:"attribution"`
	Geo         GeoConfig         `koanf:"geo"`
	Storage     StorageConfig     `koanf:"storage"`
}

type ServerConfig struct {
	Port           int    `koanf:"port"`
	AllowedOrigin  string `koanf:"allowed_origin"`
	RequestTimeout string `koanf:"request_timeout"`
}

// Timeout parses the per-request timeout, defaulting to 30s.
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// AttributionConfig carries the ad-attribution API credentials. Both
// fields empty is a supported state: delivery runs disabled.
type AttributionConfig struct {
	AccountID   string `koanf:"account_id"`
	AccessToken string `koanf:"access_token"`
	BaseURL     string `koanf:"base_url"`
}

type GeoConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type StorageConfig struct {
	Type       string       `koanf:"type"` // memory, sqlite
	SessionTTL string       `koanf:"session_ttl"`
	SQLite     SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// TTL parses the session time-to-live, defaulting to 24h.
func (s StorageConfig) TTL() time.Duration {
	d, err := time.ParseDuration(s.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Load reads config.yaml (when present) and then the environment.
// FUNNEL_SERVER__PORT=9000 maps to server.port; a double underscore
// separates nesting levels so single underscores survive in key names.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("FUNNEL_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "FUNNEL_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Secrets may be referenced as ${VAR} in the config file.
	cfg.Attribution.AccessToken = substituteEnvVars(cfg.Attribution.AccessToken)
	cfg.Geo.APIKey = substituteEnvVars(cfg.Geo.APIKey)

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars expands ${VAR} references against the environment.
// Undefined variables expand to the empty string.
func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
