// Package config loads wikibox configuration from a YAML file, applying
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skohara/wikibox/internal/version"
)

// Provider modes.
const (
	ProviderAPI = "api"
	ProviderDir = "dir"
)

// Config is the full wikibox configuration.
type Config struct {
	// Language selects the Wikipedia edition. Ignored when BaseURL is set.
	Language string `yaml:"language"`

	// BaseURL overrides the derived MediaWiki API endpoint.
	BaseURL string `yaml:"base_url"`

	// UserAgent sent with every API request.
	UserAgent string `yaml:"user_agent"`

	// TimeoutSeconds bounds each API request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Provider selects where page source comes from: "api" or "dir".
	Provider string `yaml:"provider"`

	// PagesDir is the local dump directory for the "dir" provider.
	PagesDir string `yaml:"pages_dir"`

	// DBPath is the template graph database directory. Empty disables it.
	DBPath string `yaml:"db_path"`

	// SearchLimit is the batch size per search API call.
	SearchLimit int `yaml:"search_limit"`

	// MCPAddr is the MCP HTTP listen address.
	MCPAddr string `yaml:"mcp_addr"`

	// HealthPort is the health endpoint port. Zero disables it.
	HealthPort int `yaml:"health_port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Language:       "ja",
		UserAgent:      version.Name + "/" + version.Version,
		TimeoutSeconds: 15,
		Provider:       ProviderAPI,
		SearchLimit:    10,
		MCPAddr:        ":8700",
		HealthPort:     8701,
		LogLevel:       "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAPI, ProviderDir:
	default:
		return fmt.Errorf("provider must be %q or %q, got %q", ProviderAPI, ProviderDir, c.Provider)
	}
	if c.Provider == ProviderDir && c.PagesDir == "" {
		return fmt.Errorf("pages_dir is required with the %q provider", ProviderDir)
	}
	if c.Provider == ProviderAPI && c.Language == "" && c.BaseURL == "" {
		return fmt.Errorf("either language or base_url is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search_limit must be positive, got %d", c.SearchLimit)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// APIBaseURL resolves the MediaWiki endpoint from BaseURL or Language.
func (c Config) APIBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", c.Language)
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
