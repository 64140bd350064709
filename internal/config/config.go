// Package config loads the tiered mallet configuration.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/rules"
)

// ErrInvalidSeverity is returned by Validate for an unknown severity name.
var ErrInvalidSeverity = lint.ErrInvalidSeverity

// Project configuration file names, in lookup order.
const (
	ProjectYAML = ".mallet.yaml"
	ProjectTOML = ".mallet.toml"
)

// RuleConfig tunes one rule. A nil Enabled leaves the rule's default in
// place, which is on unless the rule is opt-in.
type RuleConfig struct {
	Enabled  *bool                  `yaml:"enabled,omitempty" toml:"enabled"`
	Severity string                 `yaml:"severity,omitempty" toml:"severity"`
	Options  map[string]interface{} `yaml:"options,omitempty" toml:"options"`
}

// CacheConfig controls the on-disk lint cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled"`
	Dir     string `yaml:"dir,omitempty" toml:"dir"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled" toml:"enabled"`
	Endpoint       string            `yaml:"endpoint,omitempty" toml:"endpoint"`
	Protocol       string            `yaml:"protocol,omitempty" toml:"protocol"`
	Insecure       bool              `yaml:"insecure,omitempty" toml:"insecure"`
	Headers        map[string]string `yaml:"headers,omitempty" toml:"headers"`
	SampleRate     float64           `yaml:"sample_rate,omitempty" toml:"sample_rate"`
	ServiceName    string            `yaml:"service_name,omitempty" toml:"service_name"`
	ServiceVersion string            `yaml:"service_version,omitempty" toml:"service_version"`
}

// WatchConfig tunes lint --watch.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty" toml:"debounce"`
}

// Config holds the full mallet configuration.
type Config struct {
	Rules       map[string]RuleConfig `yaml:"rules,omitempty" toml:"rules"`
	CustomRules []rules.Rule          `yaml:"custom_rules,omitempty" toml:"custom_rules"`
	// RulesDir holds additional custom rule files.
	RulesDir string `yaml:"rules_dir,omitempty" toml:"rules_dir"`

	Included []string `yaml:"included,omitempty" toml:"included"`
	Excluded []string `yaml:"excluded,omitempty" toml:"excluded"`

	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch" toml:"watch"`

	MaxCorrectionPasses int `yaml:"max_correction_passes,omitempty" toml:"max_correction_passes"`
	Jobs                int `yaml:"jobs,omitempty" toml:"jobs"`
}

// Validate checks that the configuration is valid and ready to use
func (c *Config) Validate() error {
	for id, rc := range c.Rules {
		if rc.Severity == "" {
			continue
		}
		if _, err := lint.ParseSeverity(rc.Severity); err != nil {
			return fmt.Errorf("rules.%s.severity: %w", id, err)
		}
	}
	for _, g := range append(append([]string{}, c.Included...), c.Excluded...) {
		if _, err := filepath.Match(g, ""); err != nil {
			return fmt.Errorf("invalid path pattern %q: %w", g, err)
		}
	}
	if c.MaxCorrectionPasses < 0 {
		return fmt.Errorf("max_correction_passes must not be negative, got %d", c.MaxCorrectionPasses)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be in [0, 1], got %v", c.Telemetry.SampleRate)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce: %w", err)
		}
	}
	return nil
}

// RuleEnabled reports whether the rule runs, given whether it is opt-in.
func (c *Config) RuleEnabled(id string, optIn bool) bool {
	if rc, ok := c.Rules[id]; ok && rc.Enabled != nil {
		return *rc.Enabled
	}
	return !optIn
}

// RuleSeverity returns the configured severity override for a rule, or
// SeverityDefault when none is set.
func (c *Config) RuleSeverity(id string) lint.Severity {
	sev, err := lint.ParseSeverity(c.Rules[id].Severity)
	if err != nil {
		return lint.SeverityDefault
	}
	return sev
}

// RuleOptions returns the options configured for a rule.
func (c *Config) RuleOptions(id string) map[string]interface{} {
	return c.Rules[id].Options
}

// CacheEnabled reports whether the lint cache is on.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// WatchDebounce returns the parsed watch debounce, 300ms when unset.
func (c *Config) WatchDebounce() time.Duration {
	if d, err := time.ParseDuration(c.Watch.Debounce); err == nil && d > 0 {
		return d
	}
	return 300 * time.Millisecond
}

// Hash is a stable digest of the configuration, used to key cached
// results.
func (c *Config) Hash() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones. Non-zero fields override; rule
// options are merged key by key.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{
		Rules: make(map[string]RuleConfig),
	}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		for id, rc := range cfg.Rules {
			existing := result.Rules[id]
			if rc.Enabled != nil {
				existing.Enabled = rc.Enabled
			}
			if rc.Severity != "" {
				existing.Severity = rc.Severity
			}
			if len(rc.Options) > 0 {
				opts := make(map[string]interface{}, len(existing.Options)+len(rc.Options))
				for k, v := range existing.Options {
					opts[k] = v
				}
				for k, v := range rc.Options {
					opts[k] = v
				}
				existing.Options = opts
			}
			result.Rules[id] = existing
		}

		// custom rules are keyed by ID like rule files
		for _, r := range cfg.CustomRules {
			replaced := false
			for i := range result.CustomRules {
				if result.CustomRules[i].ID == r.ID {
					result.CustomRules[i] = r
					replaced = true
				}
			}
			if !replaced {
				result.CustomRules = append(result.CustomRules, r)
			}
		}
		if cfg.RulesDir != "" {
			result.RulesDir = cfg.RulesDir
		}

		// path lists replace rather than accumulate
		if len(cfg.Included) > 0 {
			result.Included = cfg.Included
		}
		if len(cfg.Excluded) > 0 {
			result.Excluded = cfg.Excluded
		}

		if cfg.Cache.Enabled != nil {
			result.Cache.Enabled = cfg.Cache.Enabled
		}
		if cfg.Cache.Dir != "" {
			result.Cache.Dir = cfg.Cache.Dir
		}

		mergeTelemetry(&result.Telemetry, cfg.Telemetry)

		if cfg.Watch.Debounce != "" {
			result.Watch.Debounce = cfg.Watch.Debounce
		}
		if cfg.MaxCorrectionPasses != 0 {
			result.MaxCorrectionPasses = cfg.MaxCorrectionPasses
		}
		if cfg.Jobs != 0 {
			result.Jobs = cfg.Jobs
		}
	}

	return result
}

func mergeTelemetry(dst *TelemetryConfig, src TelemetryConfig) {
	if src.Enabled {
		dst.Enabled = true
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Protocol != "" {
		dst.Protocol = src.Protocol
	}
	if src.Insecure {
		dst.Insecure = true
	}
	if len(src.Headers) > 0 {
		dst.Headers = src.Headers
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
	if src.ServiceName != "" {
		dst.ServiceName = src.ServiceName
	}
	if src.ServiceVersion != "" {
		dst.ServiceVersion = src.ServiceVersion
	}
}

// LoadFromFile reads a YAML or TOML config file, chosen by extension.
// Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}

// MachinePath is the per-user configuration file.
func MachinePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mallet", "mallet.yaml")
}

// ProjectPath returns the project configuration file in dir, preferring
// YAML over TOML. The YAML name is returned when neither exists.
func ProjectPath(dir string) string {
	for _, name := range []string{ProjectYAML, ProjectTOML} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, ProjectYAML)
}
