// Package config provides configuration loading and management for the update server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SourceTypeGitHub is the type for release metadata fetched from a GitHub-style releases API
	SourceTypeGitHub = "github"

	// SourceTypeStatic is the type for release metadata fetched from a static metadata document
	SourceTypeStatic = "static"
)

const (
	// DefaultSourceTimeout is the per-source fetch timeout used when the
	// configuration does not specify one.
	DefaultSourceTimeout = 5 * time.Second

	// DefaultCacheTTL is the cache time-to-live used when the configuration
	// does not specify one.
	DefaultCacheTTL = 300 * time.Second

	// DefaultPackageExtension is the asset extension used when the
	// configuration does not specify one.
	DefaultPackageExtension = ".zip"
)

// EnvPrefix is the environment variable prefix for server settings
const EnvPrefix = "UPDATE_SERVER"

// Config represents the root configuration structure
type Config struct {
	// Mod identifies the mod whose releases are being tracked
	Mod ModConfig `yaml:"mod"`

	// SourceTimeoutMs bounds each upstream fetch attempt, in milliseconds
	SourceTimeoutMs int `yaml:"sourceTimeoutMs,omitempty"`

	// CacheTTLSeconds is the time-to-live of the cached update record
	CacheTTLSeconds int `yaml:"cacheTtlSeconds,omitempty"`

	// Sources is the list of upstream update sources, tried in priority order
	Sources []SourceConfig `yaml:"sources"`
}

// ModConfig identifies the tracked mod for asset selection
type ModConfig struct {
	// Identifier is the mod's short identifier, matched against asset
	// filenames when no asset carries the package extension
	Identifier string `yaml:"identifier"`

	// PackageExtension is the file extension of the distributable archive
	PackageExtension string `yaml:"packageExtension,omitempty"`
}

// SourceConfig defines a single upstream update source
type SourceConfig struct {
	// Name is the display name for this source, reported in responses
	Name string `yaml:"name"`

	// Type selects the adapter used to fetch from this source
	Type string `yaml:"type"`

	// Endpoint is the URL the adapter reads from
	Endpoint string `yaml:"endpoint"`

	// Priority orders sources within a refresh pass, lower tried first
	Priority int `yaml:"priority"`

	// Enabled toggles the source without removing its configuration
	Enabled bool `yaml:"enabled"`
}

// Option defines the interface for configuration loader options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		cfg.path = realPath
		return nil
	}
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SourceTimeout returns the per-source fetch timeout, applying the default
// when the configuration does not specify one.
func (c *Config) SourceTimeout() time.Duration {
	if c.SourceTimeoutMs <= 0 {
		return DefaultSourceTimeout
	}
	return time.Duration(c.SourceTimeoutMs) * time.Millisecond
}

// CacheTTL returns the cache time-to-live, applying the default when the
// configuration does not specify one.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return DefaultCacheTTL
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PackageExtension returns the configured asset extension, applying the
// default when the configuration does not specify one.
func (c *Config) PackageExtension() string {
	if c.Mod.PackageExtension == "" {
		return DefaultPackageExtension
	}
	return c.Mod.PackageExtension
}

// Validate performs validation on the configuration.
// Duplicate source names and duplicate priorities are permitted; equal
// priorities are resolved by configured order at fetch time.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Mod.Identifier == "" {
		return fmt.Errorf("mod.identifier is required")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	for i, src := range c.Sources {
		if err := validateSourceConfig(&src, i); err != nil {
			return err
		}
	}

	return nil
}

// validateSourceConfig validates a single source configuration
func validateSourceConfig(src *SourceConfig, index int) error {
	prefix := fmt.Sprintf("source[%d]", index)
	if src.Name != "" {
		prefix = fmt.Sprintf("source[%d] (%s)", index, src.Name)
	}

	if src.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}

	if src.Type != SourceTypeGitHub && src.Type != SourceTypeStatic {
		return fmt.Errorf("%s: type must be one of %q or %q, got %q",
			prefix, SourceTypeGitHub, SourceTypeStatic, src.Type)
	}

	if src.Endpoint == "" {
		return fmt.Errorf("%s: endpoint is required", prefix)
	}

	if src.Priority < 1 {
		return fmt.Errorf("%s: priority must be a positive integer, got %d", prefix, src.Priority)
	}

	return nil
}
