// Package config loads docnav configuration: where the corpus and descriptor
// live, what the generated site is called, and the optional daemon, metrics,
// link-check, event and history settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Version string `yaml:"version"`

	Site      SiteConfig      `yaml:"site"`
	Docs      DocsConfig      `yaml:"docs"`
	Output    OutputConfig    `yaml:"output"`
	Sidebar   SidebarConfig   `yaml:"sidebar"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck"`
	Events    EventsConfig    `yaml:"events"`
	History   HistoryConfig   `yaml:"history"`
	Daemon    DaemonConfig    `yaml:"daemon"`
}

// SiteConfig names the generated site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// DocsConfig locates the corpus and its navigation descriptor.
type DocsConfig struct {
	// Dir is the corpus root holding the markdown documents.
	Dir string `yaml:"dir"`
	// Descriptor is the navigation descriptor path, relative to Dir unless
	// absolute.
	Descriptor string `yaml:"descriptor"`
	// Target selects which `only` blocks apply when building.
	Target string `yaml:"target,omitempty"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SidebarConfig supplies values the descriptor leaves open.
type SidebarConfig struct {
	// GitHubSlug backs an empty `:github:` option; when empty too, the slug
	// is derived from the enclosing git repository's origin remote.
	GitHubSlug string `yaml:"github_slug,omitempty"`
}

// LinkCheckConfig tunes external link verification. Durations use Go
// duration strings ("10s", "1m30s").
type LinkCheckConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Timeout         string `yaml:"timeout,omitempty"`
	MaxConcurrent   int    `yaml:"max_concurrent,omitempty"`
	FollowRedirects bool   `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int    `yaml:"max_redirects,omitempty"`
}

// RequestTimeout parses the timeout, falling back to 10s on bad input.
func (l LinkCheckConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(l.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// EventsConfig configures the optional NATS build-event publisher.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig configures the optional SQLite build history.
type HistoryConfig struct {
	// Path of the database file; empty disables history (and with it the
	// fingerprint-based early skip).
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig configures serve/daemon mode.
type DaemonConfig struct {
	Port int `yaml:"port,omitempty"`
	// RebuildInterval schedules periodic rebuilds in daemon mode; empty
	// disables the schedule (file watching still triggers rebuilds).
	RebuildInterval string        `yaml:"rebuild_interval,omitempty"`
	Metrics         MetricsConfig `yaml:"metrics"`
}

// RebuildEvery parses the rebuild interval; ok is false when unset or invalid.
func (d DaemonConfig) RebuildEvery() (time.Duration, bool) {
	if d.RebuildInterval == "" {
		return 0, false
	}
	dur, err := time.ParseDuration(d.RebuildInterval)
	if err != nil || dur <= 0 {
		return 0, false
	}
	return dur, true
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Load reads, expands, defaults and validates a configuration file.
// Environment variables referenced as ${VAR} in the YAML are expanded;
// .env/.env.local files are loaded first without overriding the process
// environment.
func Load(configPath string) (*Config, error) {
	// Best effort; missing .env files are the normal case.
	_ = godotenv.Load(".env.local", ".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Version != "" && cfg.Version != "1.0" {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.0)", cfg.Version)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists: a local
// docs directory with an index.rst descriptor.
func Default() *Config {
	cfg := &Config{Version: "1.0"}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Documentation"
	}
	if cfg.Docs.Dir == "" {
		cfg.Docs.Dir = "./docs"
	}
	if cfg.Docs.Descriptor == "" {
		cfg.Docs.Descriptor = "index.rst"
	}
	if cfg.Docs.Target == "" {
		cfg.Docs.Target = "html"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./site"
	}
	if cfg.LinkCheck.Timeout == "" {
		cfg.LinkCheck.Timeout = "10s"
	}
	if cfg.LinkCheck.MaxConcurrent <= 0 {
		cfg.LinkCheck.MaxConcurrent = 10
	}
	if cfg.LinkCheck.MaxRedirects <= 0 {
		cfg.LinkCheck.MaxRedirects = 5
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docnav.builds"
	}
	if cfg.Daemon.Port <= 0 {
		cfg.Daemon.Port = 1316
	}
	if cfg.Daemon.Metrics.Path == "" {
		cfg.Daemon.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Docs.Dir == "" {
		return fmt.Errorf("docs.dir must not be empty")
	}
	if cfg.Docs.Descriptor == "" {
		return fmt.Errorf("docs.descriptor must not be empty")
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if cfg.Daemon.Port < 1 || cfg.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", cfg.Daemon.Port)
	}
	if cfg.Daemon.RebuildInterval != "" {
		if _, err := time.ParseDuration(cfg.Daemon.RebuildInterval); err != nil {
			return fmt.Errorf("daemon.rebuild_interval: %w", err)
		}
	}
	return nil
}

// DescriptorPath resolves the descriptor location against the docs dir.
func (c *Config) DescriptorPath() string {
	if len(c.Docs.Descriptor) > 0 && (c.Docs.Descriptor[0] == '/' || c.Docs.Descriptor[0] == '.') {
		return c.Docs.Descriptor
	}
	return c.Docs.Dir + "/" + c.Docs.Descriptor
}
