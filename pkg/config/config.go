// Package config loads ghostcode configuration from TOML, YAML, or
// JSON files with sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for ghostcode.
type Config struct {
	Analysis   AnalysisConfig  `koanf:"analysis"`
	Thresholds ThresholdConfig `koanf:"thresholds"`
	Exclude    ExcludeConfig   `koanf:"exclude"`
	Cache      CacheConfig     `koanf:"cache"`
	Rules      RulesConfig     `koanf:"rules"`
	Output     OutputConfig    `koanf:"output"`
}

// AnalysisConfig controls scan breadth and history mining.
type AnalysisConfig struct {
	// MaxFiles bounds a scan on very large repos.
	MaxFiles int `koanf:"max_files"`
	// Evidence toggles git history mining; without it every unit
	// reads as unreviewed.
	Evidence bool `koanf:"evidence"`
	// GitTimeoutSeconds bounds one git subprocess.
	GitTimeoutSeconds int `koanf:"git_timeout_seconds"`
	// GitWorkers caps concurrent git subprocesses.
	GitWorkers int `koanf:"git_workers"`
}

// ThresholdConfig defines scoring and clustering thresholds.
type ThresholdConfig struct {
	SimilarityUtility   float64 `koanf:"similarity_utility"`
	SimilarityComponent float64 `koanf:"similarity_component"`
	HotspotLimit        int     `koanf:"hotspot_limit"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Dirs      []string `koanf:"dirs"`
	Patterns  []string `koanf:"patterns"`
	Gitignore bool     `koanf:"gitignore"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTLDays int    `koanf:"ttl_days"`
}

// RulesConfig points at the active ruleset.
type RulesConfig struct {
	// Path to a YAML ruleset; empty means the builtin rules.
	Path string `koanf:"path"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxFiles:          1000,
			Evidence:          true,
			GitTimeoutSeconds: 30,
			GitWorkers:        8,
		},
		Thresholds: ThresholdConfig{
			SimilarityUtility:   0.70,
			SimilarityComponent: 0.85,
			HotspotLimit:        10,
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				"node_modules",
				"dist",
				"build",
				".next",
				"coverage",
				"__tests__",
				"__mocks__",
				".git",
				".cache",
				"vendor",
				".turbo",
				".vercel",
				"out",
				"storybook-static",
			},
			Patterns: []string{
				".min.js",
				".min.css",
				".bundle.js",
				".d.ts",
				".map",
				".snap",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".ghostcode/cache",
			TTLDays: 7,
		},
		Rules: RulesConfig{},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"ghostcode.toml",
		"ghostcode.yaml",
		"ghostcode.yml",
		"ghostcode.json",
		".ghostcode.toml",
		".ghostcode.yaml",
		".ghostcode.yml",
		".ghostcode.json",
	}
	searchDirs := []string{".", ".ghostcode"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}
