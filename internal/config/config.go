package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// StartURLEnv names the environment variable holding the crawl start point
const StartURLEnv = "WP_HOME"

// DefaultStartURL is used when neither config nor environment name a start point
const DefaultStartURL = "http://localhost"

// Config holds all runtime configuration parameters
type Config struct {
	StartURL         string   `json:"start_url"`
	MaxDepth         int      `json:"max_depth"`
	MaxPages         int      `json:"max_pages"`
	PageTimeoutMs    int      `json:"page_timeout_ms"`
	RequestTimeoutMs int      `json:"request_timeout_ms"`
	ChromePath       string   `json:"chrome_path"`
	Headful          bool     `json:"headful"`
	UserAgent        string   `json:"user_agent"`
	ExcludePatterns  []string `json:"exclude_patterns"`
	DBPath           string   `json:"db_path"`
	MetricsPath      string   `json:"metrics_path"`
	LogLevel         string   `json:"log_level"`
	Format           string   `json:"format"`
}

// LoadConfig reads configuration from an optional JSON file, applies the
// WP_HOME environment variable and defaults, then validates the result.
// An empty path means defaults only.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if env := strings.TrimSpace(os.Getenv(StartURLEnv)); env != "" {
		cfg.StartURL = env
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.StartURL == "" {
		cfg.StartURL = DefaultStartURL
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 1
	}
	if cfg.PageTimeoutMs == 0 {
		cfg.PageTimeoutMs = 30000
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 10000
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fontscan/1.0"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

// Validate checks that required fields are present and values are sensible.
// It is exported so command line overrides can be re-checked.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.StartURL)
	if err != nil {
		return fmt.Errorf("start_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("start_url must use http or https, got %q", cfg.StartURL)
	}
	if u.Host == "" {
		return fmt.Errorf("start_url has no host: %q", cfg.StartURL)
	}
	if cfg.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1")
	}
	if cfg.MaxPages < 0 {
		return fmt.Errorf("max_pages must be >= 0")
	}
	if cfg.PageTimeoutMs < 1000 {
		return fmt.Errorf("page_timeout_ms must be >= 1000")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if cfg.Format != "text" && cfg.Format != "json" {
		return fmt.Errorf("format must be text or json, got %q", cfg.Format)
	}
	for _, p := range cfg.ExcludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("exclude_patterns: %w", err)
		}
	}
	return nil
}
