package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/rules"
)

func boolPtr(b bool) *bool { return &b }

func TestMergeRules_HigherTierOverrides(t *testing.T) {
	system := &Config{
		Rules: map[string]RuleConfig{
			"function_length": {
				Enabled:  boolPtr(true),
				Severity: "warning",
				Options:  map[string]interface{}{"max_lines": 50},
			},
		},
	}
	project := &Config{
		Rules: map[string]RuleConfig{
			"function_length": {Severity: "error"},
		},
	}
	merged := MergeConfigs(system, project)
	rc := merged.Rules["function_length"]
	if rc.Severity != "error" {
		t.Errorf("expected severity 'error', got %q", rc.Severity)
	}
	if rc.Options["max_lines"] != 50 {
		t.Errorf("expected options preserved, got %v", rc.Options)
	}
	if rc.Enabled == nil || !*rc.Enabled {
		t.Error("expected enabled to remain true")
	}
}

func TestMergeRules_OptionsMergeByKey(t *testing.T) {
	machine := &Config{Rules: map[string]RuleConfig{
		"nesting_depth": {Options: map[string]interface{}{"max_depth": 3, "other": "x"}},
	}}
	project := &Config{Rules: map[string]RuleConfig{
		"nesting_depth": {Options: map[string]interface{}{"max_depth": 2}},
	}}
	opts := MergeConfigs(machine, project).RuleOptions("nesting_depth")
	if opts["max_depth"] != 2 || opts["other"] != "x" {
		t.Errorf("unexpected merged options %v", opts)
	}
	if machine.Rules["nesting_depth"].Options["max_depth"] != 3 {
		t.Error("merge must not modify its inputs")
	}
}

func TestMergeRules_DisableRule(t *testing.T) {
	system := &Config{Rules: map[string]RuleConfig{"closing_brace": {Enabled: boolPtr(true)}}}
	project := &Config{Rules: map[string]RuleConfig{"closing_brace": {Enabled: boolPtr(false)}}}
	merged := MergeConfigs(system, project)
	if merged.RuleEnabled("closing_brace", false) {
		t.Error("expected rule to be disabled")
	}
}

func TestRuleEnabledDefaults(t *testing.T) {
	cfg := SystemDefaults()
	if !cfg.RuleEnabled("closing_brace", false) {
		t.Error("rules are on by default")
	}
	if cfg.RuleEnabled("trailing_semicolon", true) {
		t.Error("opt-in rules are off by default")
	}
	cfg.Rules["trailing_semicolon"] = RuleConfig{Enabled: boolPtr(true)}
	if !cfg.RuleEnabled("trailing_semicolon", true) {
		t.Error("expected opt-in rule to be enabled by configuration")
	}
}

func TestRuleSeverity(t *testing.T) {
	cfg := &Config{Rules: map[string]RuleConfig{"a": {Severity: "Error"}}}
	if got := cfg.RuleSeverity("a"); got != lint.SeverityError {
		t.Errorf("expected error, got %s", got)
	}
	if got := cfg.RuleSeverity("missing"); got != lint.SeverityDefault {
		t.Errorf("expected default, got %s", got)
	}
}

func TestMergeCustomRulesByID(t *testing.T) {
	machine := &Config{}
	machine.CustomRules = append(machine.CustomRules, customRule("todo", "machine"), customRule("fixme", "machine"))
	project := &Config{}
	project.CustomRules = append(project.CustomRules, customRule("todo", "project"))

	merged := MergeConfigs(machine, project)
	if len(merged.CustomRules) != 2 {
		t.Fatalf("expected 2 custom rules, got %d", len(merged.CustomRules))
	}
	if merged.CustomRules[0].Message != "project" {
		t.Errorf("expected project rule to replace machine rule, got %q", merged.CustomRules[0].Message)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad severity", func(c *Config) { c.Rules["a"] = RuleConfig{Severity: "fatal"} }, true},
		{"bad glob", func(c *Config) { c.Excluded = []string{"[oops"} }, true},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, true},
		{"negative passes", func(c *Config) { c.MaxCorrectionPasses = -2 }, true},
		{"bad protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, true},
		{"bad sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, true},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SystemDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWrapsSeverityError(t *testing.T) {
	cfg := &Config{Rules: map[string]RuleConfig{"a": {Severity: "note"}}}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestHashIsStable(t *testing.T) {
	a := SystemDefaults()
	b := SystemDefaults()
	if a.Hash() != b.Hash() {
		t.Error("equal configs should hash equally")
	}
	b.Rules["x"] = RuleConfig{Severity: "error"}
	if a.Hash() == b.Hash() {
		t.Error("different configs should hash differently")
	}
}

func TestWatchDebounce(t *testing.T) {
	cfg := &Config{}
	if got := cfg.WatchDebounce(); got != 300*time.Millisecond {
		t.Errorf("expected 300ms fallback, got %s", got)
	}
	cfg.Watch.Debounce = "1s"
	if got := cfg.WatchDebounce(); got != time.Second {
		t.Errorf("expected 1s, got %s", got)
	}
}

func TestCacheEnabled(t *testing.T) {
	cfg := &Config{}
	if !cfg.CacheEnabled() {
		t.Error("cache is on unless disabled")
	}
	cfg.Cache.Enabled = boolPtr(false)
	if cfg.CacheEnabled() {
		t.Error("expected cache to be disabled")
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".mallet.yaml")
	data := `rules:
  function_length:
    severity: error
    options:
      max_lines: 20
  trailing_semicolon:
    enabled: true
custom_rules:
  - id: todo
    regex: 'TODO'
    message: "resolve"
excluded: ["build"]
jobs: 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Rules["function_length"].Options["max_lines"] != 20 {
		t.Errorf("unexpected options %v", cfg.Rules["function_length"].Options)
	}
	if !cfg.RuleEnabled("trailing_semicolon", true) {
		t.Error("expected trailing_semicolon enabled")
	}
	if len(cfg.CustomRules) != 1 || cfg.CustomRules[0].RawPattern != "TODO" {
		t.Errorf("unexpected custom rules %+v", cfg.CustomRules)
	}
	if cfg.Jobs != 4 || len(cfg.Excluded) != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".mallet.toml")
	data := `jobs = 2
max_correction_passes = 3

[rules.param_count]
severity = "error"

[rules.param_count.options]
max_params = 4

[[custom_rules]]
id = "todo"
regex = "TODO"
message = "resolve"
match_types = ["comment"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs != 2 || cfg.MaxCorrectionPasses != 3 {
		t.Errorf("unexpected scalars %+v", cfg)
	}
	if cfg.RuleSeverity("param_count") != lint.SeverityError {
		t.Errorf("expected error severity for param_count")
	}
	if cfg.RuleOptions("param_count")["max_params"] != int64(4) {
		t.Errorf("unexpected options %v", cfg.RuleOptions("param_count"))
	}
	if len(cfg.CustomRules) != 1 || cfg.CustomRules[0].MatchTypes[0] != "comment" {
		t.Errorf("unexpected custom rules %+v", cfg.CustomRules)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Error("expected nil config for missing file")
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("rules: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadTiered(t *testing.T) {
	dir := t.TempDir()
	machineConf := filepath.Join(dir, "machine.yaml")
	os.WriteFile(machineConf, []byte("rules:\n  empty_handler:\n    severity: warning\njobs: 2\n"), 0o644)
	projectConf := filepath.Join(dir, "project.yaml")
	os.WriteFile(projectConf, []byte("rules:\n  empty_handler:\n    enabled: false\n"), 0o644)

	cfg, err := LoadTiered(machineConf, projectConf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rules["empty_handler"].Severity != "warning" {
		t.Errorf("expected machine severity preserved, got %q", cfg.Rules["empty_handler"].Severity)
	}
	if cfg.RuleEnabled("empty_handler", false) {
		t.Error("expected project to disable empty_handler")
	}
	if cfg.Jobs != 2 {
		t.Errorf("expected machine jobs, got %d", cfg.Jobs)
	}
	if cfg.MaxCorrectionPasses != DefaultMaxCorrectionPasses {
		t.Errorf("expected system default passes, got %d", cfg.MaxCorrectionPasses)
	}
}

func TestProjectPath(t *testing.T) {
	dir := t.TempDir()
	if got := ProjectPath(dir); got != filepath.Join(dir, ProjectYAML) {
		t.Errorf("expected YAML fallback, got %s", got)
	}
	os.WriteFile(filepath.Join(dir, ProjectTOML), []byte("jobs = 1\n"), 0o644)
	if got := ProjectPath(dir); got != filepath.Join(dir, ProjectTOML) {
		t.Errorf("expected TOML file, got %s", got)
	}
	os.WriteFile(filepath.Join(dir, ProjectYAML), []byte("jobs: 1\n"), 0o644)
	if got := ProjectPath(dir); got != filepath.Join(dir, ProjectYAML) {
		t.Errorf("expected YAML to win, got %s", got)
	}
}

func customRule(id, message string) rules.Rule {
	return rules.Rule{ID: id, RawPattern: id, Message: message}
}
