// Package analyzer runs the configured rules over source files: it lints
// them, applies corrections until they settle, reports superfluous and
// invalid disable commands, and caches per-file results.
package analyzer

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"

	"github.com/chris-regnier/mallet/internal/astcheck"
	"github.com/chris-regnier/mallet/internal/cache"
	"github.com/chris-regnier/mallet/internal/config"
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/metrics"
	"github.com/chris-regnier/mallet/internal/rules"
)

var tracer = otel.Tracer("github.com/chris-regnier/mallet/internal/analyzer")

// DefaultMaxCorrectionPasses bounds the correction loop when the
// configuration does not.
const DefaultMaxCorrectionPasses = 8

// RuleInfo is a known rule and whether the configuration runs it.
type RuleInfo struct {
	lint.Description
	Enabled     bool
	Correctable bool
	Custom      bool
}

// Analyzer orchestrates linting and correction of files with a fixed set
// of configured rules. It is safe for concurrent use.
type Analyzer struct {
	cfg      *config.Config
	rules    []lint.Rule
	known    map[string]RuleInfo
	severity map[string]lint.Severity

	cache     cache.CacheManager
	recorder  *metrics.Recorder
	version   string
	jobs      int
	maxPasses int
	keyHash   string

	files       atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	violations  atomic.Int64
	corrections atomic.Int64
	failures    atomic.Int64
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCache stores and reuses per-file results
func WithCache(c cache.CacheManager) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithRecorder records per-file and per-rule metrics
func WithRecorder(r *metrics.Recorder) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithJobs bounds how many files are processed at once. Zero or less
// means one per CPU.
func WithJobs(n int) Option {
	return func(a *Analyzer) { a.jobs = n }
}

// WithVersion sets the version recorded in cache keys and SARIF output
func WithVersion(v string) Option {
	return func(a *Analyzer) { a.version = v }
}

// New builds an Analyzer from the built-in rules in reg, the compiled
// custom rules and the configuration. Rules the configuration disables
// are skipped; configurable rules receive their options.
func New(reg *astcheck.Registry, custom []rules.Rule, cfg *config.Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.SystemDefaults()
	}
	a := &Analyzer{
		cfg:       cfg,
		known:     make(map[string]RuleInfo),
		severity:  make(map[string]lint.Severity),
		recorder:  metrics.NoOpRecorder(),
		version:   "dev",
		jobs:      cfg.Jobs,
		maxPasses: cfg.MaxCorrectionPasses,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.jobs <= 0 {
		a.jobs = runtime.GOMAXPROCS(0)
	}
	if a.maxPasses <= 0 {
		a.maxPasses = DefaultMaxCorrectionPasses
	}

	fingerprints := []string{cfg.Hash()}
	for _, desc := range commandRules {
		a.register(desc, false, false)
	}
	if reg != nil {
		for _, rule := range reg.All() {
			if err := a.add(rule, false); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range custom {
		if _, dup := a.known[r.ID]; dup {
			return nil, fmt.Errorf("custom rule %q shadows a built-in rule", r.ID)
		}
		if err := a.add(r, true); err != nil {
			return nil, err
		}
		if a.known[r.ID].Enabled {
			fingerprints = append(fingerprints, r.Fingerprint())
		}
	}
	slices.SortFunc(a.rules, func(x, y lint.Rule) int {
		return strings.Compare(x.Description().ID, y.Description().ID)
	})
	a.keyHash = cache.GenerateKey(fingerprints...)
	return a, nil
}

func (a *Analyzer) register(desc lint.Description, correctable, custom bool) RuleInfo {
	info := RuleInfo{
		Description: desc,
		Enabled:     a.cfg.RuleEnabled(desc.ID, desc.OptIn),
		Correctable: correctable,
		Custom:      custom,
	}
	a.known[desc.ID] = info
	a.severity[desc.ID] = a.cfg.RuleSeverity(desc.ID)
	return info
}

func (a *Analyzer) add(rule lint.Rule, custom bool) error {
	_, correctable := rule.(lint.CorrectableRule)
	info := a.register(rule.Description(), correctable, custom)
	if !info.Enabled {
		return nil
	}
	if c, ok := rule.(lint.Configurable); ok {
		if opts := a.cfg.RuleOptions(info.ID); len(opts) > 0 {
			configured, err := c.Configure(opts)
			if err != nil {
				return fmt.Errorf("configuring rule %s: %w", info.ID, err)
			}
			rule = configured
		}
	}
	a.rules = append(a.rules, rule)
	return nil
}

// Rules describes every known rule, ordered by ID.
func (a *Analyzer) Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(a.known))
	for _, info := range a.known {
		out = append(out, info)
	}
	slices.SortFunc(out, func(x, y RuleInfo) int { return strings.Compare(x.ID, y.ID) })
	return out
}

// Rule looks up a known rule by ID.
func (a *Analyzer) Rule(id string) (RuleInfo, bool) {
	info, ok := a.known[id]
	return info, ok
}

func (a *Analyzer) enabled(id string) bool {
	return a.known[id].Enabled
}

// resolve fills in the reason and severity of a violation. A configured
// severity wins over one the rule set on the violation, which wins over
// the rule default.
func (a *Analyzer) resolve(v lint.Violation) lint.Violation {
	info := a.known[v.Rule]
	if v.Reason == "" {
		v.Reason = info.Summary
	}
	v.Severity = a.severity[v.Rule].Or(v.Severity).Or(info.Severity).Or(lint.SeverityWarning)
	return v
}

// Stats summarises what the analyzer has done since it was created.
type Stats struct {
	Files       int64             `json:"files"`
	CacheHits   int64             `json:"cache_hits"`
	CacheMisses int64             `json:"cache_misses"`
	Violations  int64             `json:"violations"`
	Corrections int64             `json:"corrections"`
	Failures    int64             `json:"failures"`
	Rules       int               `json:"rules"`
	Jobs        int               `json:"jobs"`
	CacheStats  *cache.CacheStats `json:"cache_stats,omitempty"`
}

// Stats returns current statistics
func (a *Analyzer) Stats() Stats {
	s := Stats{
		Files:       a.files.Load(),
		CacheHits:   a.cacheHits.Load(),
		CacheMisses: a.cacheMisses.Load(),
		Violations:  a.violations.Load(),
		Corrections: a.corrections.Load(),
		Failures:    a.failures.Load(),
		Rules:       len(a.rules),
		Jobs:        a.jobs,
	}
	if mc, ok := a.cache.(interface{ Stats() cache.CacheStats }); ok {
		cs := mc.Stats()
		s.CacheStats = &cs
	}
	return s
}

// Recorder returns the metrics recorder in use
func (a *Analyzer) Recorder() *metrics.Recorder {
	return a.recorder
}
