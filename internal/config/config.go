// Package config loads and validates the run configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joemull/ebook-ident/internal/models"
	"gopkg.in/yaml.v3"
)

// apiKeyEnv is the environment variable consulted for the catalog API key
// (typically populated from .env via godotenv).
const apiKeyEnv = "EBOOK_IDENT_API_KEY"

// CatalogConfig points at the bibliographic API.
type CatalogConfig struct {
	BaseURL        string `yaml:"base_url"`
	Source         string `yaml:"source"`
	LinkTemplate   string `yaml:"link_template"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Limit          int    `yaml:"limit"`
}

// TestMode limits how many manifest rows a run processes.
type TestMode struct {
	On         bool `yaml:"on"`
	NumRecords int  `yaml:"num_records"`
}

// Rightsholder is one allow-listed publisher/copyright-holder pair.
type Rightsholder struct {
	Publisher       string `yaml:"publisher"`
	CopyrightHolder string `yaml:"copyright_holder"`
}

// Config is the full run configuration.
type Config struct {
	Catalog            CatalogConfig  `yaml:"catalog"`
	CacheDir           string         `yaml:"cache_dir"`
	OutputDir          string         `yaml:"output_dir"`
	OutputColumns      []string       `yaml:"output_columns"`
	KnownRightsholders []Rightsholder `yaml:"known_rightsholders"`
	TestMode           TestMode       `yaml:"test_mode"`
	Concurrency        int            `yaml:"concurrency"`

	// APIKey comes from the environment, never the config file, so it
	// cannot end up in version control alongside the config.
	APIKey string `yaml:"-"`
}

// Load reads and validates the YAML config at path. Validation failures
// are fatal to the run and happen before any network activity.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		CacheDir:  ".ebook-ident",
		OutputDir: "outputs",
		Catalog: CatalogConfig{
			TimeoutSeconds: 30,
			Limit:          10,
			Source:         "Harvard Library",
			LinkTemplate:   "https://api.lib.harvard.edu/v2/items?q=%s",
		},
		Concurrency: 1,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.APIKey = os.Getenv(apiKeyEnv)

	if len(cfg.OutputColumns) == 0 {
		cfg.OutputColumns = models.DefaultOutputColumns
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("config: catalog.base_url is required")
	}
	if c.Catalog.Limit <= 0 {
		return fmt.Errorf("config: catalog.limit must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: concurrency must be positive")
	}
	if c.TestMode.On && c.TestMode.NumRecords <= 0 {
		return fmt.Errorf("config: test_mode.num_records must be positive when test mode is on")
	}
	return nil
}

// Allowed reports whether the publisher/copyright-holder pair is on the
// allow-list.
func (c *Config) Allowed(publisher, holder string) bool {
	for _, rh := range c.KnownRightsholders {
		if rh.Publisher == publisher && rh.CopyrightHolder == holder {
			return true
		}
	}
	return false
}
