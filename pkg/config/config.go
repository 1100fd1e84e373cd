// Package config provides configuration management for the civetls
// language-service core.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TranspilerConfig registers one SRC -> TGT language pair the host
// should recognize, e.g. sourceExt=".civet", targetExt=".ts" (mirror
// of x.civet is x.civet.ts).
type TranspilerConfig struct {
	SourceExt string `toml:"source_ext"`
	TargetExt string `toml:"target_ext"`
}

// PathMappingConfig is one `pattern -> replacements` entry, mirroring
// tsconfig's `paths` field.
type PathMappingConfig struct {
	Pattern      string   `toml:"pattern"`
	Replacements []string `toml:"replacements"`
}

// ResolutionConfig controls the host's custom module resolver.
type ResolutionConfig struct {
	BaseURL       string              `toml:"base_url"`
	PathsBasePath string              `toml:"paths_base_path"`
	PathMappings  []PathMappingConfig `toml:"paths"`
}

// SourceMapConfig controls how strictly generated maps are checked.
type SourceMapConfig struct {
	// Strict selects strict map checking (validator warnings such as
	// duplicate generated columns or nil names reported as errors). It
	// is loaded from configuration only; nothing in this module passes
	// it to a sourcemap.Validator.
	Strict bool `toml:"strict"`
}

// Config is the complete civetls configuration.
type Config struct {
	Transpilers []TranspilerConfig `toml:"transpilers"`
	Resolution  ResolutionConfig   `toml:"resolution"`
	SourceMap   SourceMapConfig    `toml:"sourcemaps"`
}

// DefaultConfig returns the default configuration: a single
// Civet -> TypeScript transpiler pair and no path mappings.
func DefaultConfig() *Config {
	return &Config{
		Transpilers: []TranspilerConfig{
			{SourceExt: ".civet", TargetExt: ".ts"},
		},
		Resolution: ResolutionConfig{},
		SourceMap: SourceMapConfig{
			Strict: false,
		},
	}
}

// Load loads configuration from multiple sources with precedence:
//  1. CLI flags (highest priority) - passed as overrides
//  2. Project civetls.toml (current directory)
//  3. User config (~/.civetls/config.toml)
//  4. Built-in defaults (lowest priority)
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".civetls", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	projectConfigPath := "civetls.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		if len(overrides.Transpilers) > 0 {
			cfg.Transpilers = overrides.Transpilers
		}
		if overrides.Resolution.BaseURL != "" {
			cfg.Resolution.BaseURL = overrides.Resolution.BaseURL
		}
		if overrides.Resolution.PathsBasePath != "" {
			cfg.Resolution.PathsBasePath = overrides.Resolution.PathsBasePath
		}
		if len(overrides.Resolution.PathMappings) > 0 {
			cfg.Resolution.PathMappings = overrides.Resolution.PathMappings
		}
		if overrides.SourceMap.Strict {
			cfg.SourceMap.Strict = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile loads a TOML configuration file into the provided
// config. If the file doesn't exist, this is not an error (defaults
// are kept).
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Transpilers) == 0 {
		return fmt.Errorf("at least one transpiler must be configured")
	}

	seen := make(map[string]bool, len(c.Transpilers))
	for _, t := range c.Transpilers {
		if t.SourceExt == "" {
			return fmt.Errorf("transpiler source_ext must not be empty")
		}
		if t.TargetExt == "" {
			return fmt.Errorf("transpiler target_ext must not be empty")
		}
		if seen[t.SourceExt] {
			return fmt.Errorf("duplicate transpiler registration for source_ext %q", t.SourceExt)
		}
		seen[t.SourceExt] = true
	}

	for _, pm := range c.Resolution.PathMappings {
		if pm.Pattern == "" {
			return fmt.Errorf("path mapping pattern must not be empty")
		}
		if len(pm.Replacements) == 0 {
			return fmt.Errorf("path mapping %q must have at least one replacement", pm.Pattern)
		}
	}

	return nil
}
