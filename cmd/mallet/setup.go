package main

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/astcheck"
	"github.com/chris-regnier/mallet/internal/cache"
	"github.com/chris-regnier/mallet/internal/config"
	"github.com/chris-regnier/mallet/internal/metrics"
	"github.com/chris-regnier/mallet/internal/rules"
)

// loadConfig reads the machine and project configuration files named by
// the persistent flags, falling back to their default locations.
func loadConfig() (*config.Config, error) {
	machine := flagMachineConfig
	if machine == "" {
		machine = config.MachinePath()
	}
	project := flagProjectConfig
	if project == "" {
		project = config.ProjectPath(".")
	}
	cfg, err := config.LoadTiered(machine, project)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("configuration loaded", "machine", machine, "project", project, "hash", cfg.Hash())
	return cfg, nil
}

// customRules merges the shipped rules, the user and project rule
// directories and the rules inlined in the configuration. Later sources
// replace earlier ones by ID.
func customRules(cfg *config.Config) ([]rules.Rule, error) {
	userDir := ""
	if p := config.MachinePath(); p != "" {
		userDir = filepath.Join(filepath.Dir(p), "rules")
	}
	loaded, err := rules.LoadRules(userDir, cfg.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	inline, err := rules.Compile(cfg.CustomRules)
	if err != nil {
		return nil, fmt.Errorf("compiling custom_rules: %w", err)
	}
	return mergeRules(loaded, inline), nil
}

func mergeRules(base, overrides []rules.Rule) []rules.Rule {
	byID := make(map[string]rules.Rule, len(base)+len(overrides))
	for _, r := range base {
		byID[r.ID] = r
	}
	for _, r := range overrides {
		byID[r.ID] = r
	}
	out := make([]rules.Rule, 0, len(byID))
	for _, id := range slices.Sorted(maps.Keys(byID)) {
		out = append(out, byID[id])
	}
	return out
}

// cacheDir is the configured cache directory or the per-user default.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// newCache layers an in-memory cache over the disk cache. Without a
// usable directory only the memory tier is kept.
func newCache(cfg *config.Config) cache.CacheManager {
	near := cache.NewMemoryCache()
	dir, err := cacheDir(cfg)
	if err != nil {
		slog.Warn("disk cache unavailable", "err", err)
		return cache.NewMultiTierCache(near, nil, cache.DefaultMultiTierConfig())
	}
	return cache.NewMultiTierCache(near, cache.NewLocalCache(dir), cache.DefaultMultiTierConfig())
}

type analyzerOptions struct {
	noCache bool
	jobs    int
	stats   bool
	// cache replaces the default cache tiers when set.
	cache cache.CacheManager
}

// newAnalyzer builds the analyzer for cfg with the built-in and custom
// rules. The returned collector is nil unless stats are requested.
func newAnalyzer(cfg *config.Config, o analyzerOptions) (*analyzer.Analyzer, *metrics.Collector, error) {
	custom, err := customRules(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []analyzer.Option{analyzer.WithVersion(version)}
	if o.jobs > 0 {
		opts = append(opts, analyzer.WithJobs(o.jobs))
	}
	if !o.noCache && cfg.CacheEnabled() {
		c := o.cache
		if c == nil {
			c = newCache(cfg)
		}
		opts = append(opts, analyzer.WithCache(c))
	}
	var collector *metrics.Collector
	if o.stats {
		collector = metrics.NewCollector()
		opts = append(opts, analyzer.WithRecorder(metrics.NewRecorder(collector)))
	}

	a, err := analyzer.New(astcheck.DefaultRegistry(), custom, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, collector, nil
}
