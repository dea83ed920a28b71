package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for explorer-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (session keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8087"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Data-plane API configuration
	Dataplane DataplaneConfig `yaml:"dataplane"`

	// Catalog configuration
	Catalog CatalogConfig `yaml:"catalog"`

	// Explorer session configuration
	Session SessionConfig `yaml:"session"`

	// MCP server configuration
	MCP MCPConfig `yaml:"mcp"`

	// Metrics endpoint configuration
	Metrics MetricsConfig `yaml:"metrics"`
}

// DataplaneConfig holds the connection settings for the data-plane API.
type DataplaneConfig struct {
	// BaseURL is the data-plane API root. Required.
	BaseURL string `yaml:"base_url" env:"DATAPLANE_BASE_URL" env-default:""`
	// TimeoutSeconds bounds catalog fetches and query executions.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"DATAPLANE_TIMEOUT_SECONDS" env-default:"30"`
	// ExportTimeoutSeconds bounds export downloads, which stream whole
	// result sets.
	ExportTimeoutSeconds int `yaml:"export_timeout_seconds" env:"DATAPLANE_EXPORT_TIMEOUT_SECONDS" env-default:"120"`
}

// Timeout returns the request timeout as a duration.
func (c *DataplaneConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportTimeout returns the export timeout as a duration.
func (c *DataplaneConfig) ExportTimeout() time.Duration {
	return time.Duration(c.ExportTimeoutSeconds) * time.Second
}

// ResolvedBaseURL returns the data-plane base URL with the host adjusted
// for Docker networking when needed.
func (c *DataplaneConfig) ResolvedBaseURL() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return c.BaseURL
	}
	host := ResolveHostForDocker(u.Hostname())
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	return u.String()
}

// CatalogConfig holds catalog loading settings.
type CatalogConfig struct {
	// DomainRulesPath points to an optional YAML file of extra domain
	// keyword rules. Empty selects the built-in defaults only.
	DomainRulesPath string `yaml:"domain_rules_path" env:"CATALOG_DOMAIN_RULES_PATH" env-default:""`
	// RefreshRetryMax is how many times a failed catalog fetch is
	// retried before the load is marked failed.
	RefreshRetryMax int `yaml:"refresh_retry_max" env:"CATALOG_REFRESH_RETRY_MAX" env-default:"3"`
}

// SessionConfig holds explorer session settings.
type SessionConfig struct {
	// TTLMinutes is how long an idle explorer session survives.
	TTLMinutes int `yaml:"ttl_minutes" env:"SESSION_TTL_MINUTES" env-default:"60"`
	// Secret signs the browser session cookie. Required outside local.
	Secret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
}

// TTL returns the session time-to-live as a duration.
func (c *SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (SESSION_SECRET) must
// come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if cfg.Dataplane.BaseURL == "" {
		return nil, fmt.Errorf("dataplane.base_url is required")
	}

	// Validate TLS configuration
	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}
