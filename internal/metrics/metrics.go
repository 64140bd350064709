// Package metrics records per-file and per-rule lint timings and
// summarizes them for --stats and --benchmark reports.
package metrics

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Phase identifies what a run did to a file
type Phase string

const (
	PhaseLint    Phase = "lint"
	PhaseCorrect Phase = "correct"
)

// CacheResult indicates how the lint cache served a file
type CacheResult string

const (
	CacheHit    CacheResult = "hit"
	CacheMiss   CacheResult = "miss"
	CacheBypass CacheResult = "bypass"
)

// LintEvent captures metrics for one file
type LintEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Phase     Phase     `json:"phase"`

	FilePath  string `json:"file_path"`
	Language  string `json:"language"`
	FileSize  int    `json:"file_size"`
	LineCount int    `json:"line_count"`
	RuleCount int    `json:"rule_count"`

	// QueueDuration is the time spent waiting for a worker.
	QueueDuration time.Duration `json:"queue_duration"`
	LintDuration  time.Duration `json:"lint_duration"`
	TotalDuration time.Duration `json:"total_duration"`

	ViolationCount  int `json:"violation_count"`
	SuppressedCount int `json:"suppressed_count"`
	CorrectionCount int `json:"correction_count"`
	Passes          int `json:"passes,omitempty"`

	CacheResult CacheResult `json:"cache_result"`
	CacheKey    string      `json:"cache_key,omitempty"`

	Error string `json:"error,omitempty"`
}

// Timing tracks when a file was queued, started and finished
type Timing struct {
	queuedAt    time.Time
	startedAt   time.Time
	completedAt time.Time
}

// NewTiming creates a new timing tracker, marking queue time as now
func NewTiming() *Timing {
	return &Timing{
		queuedAt: time.Now(),
	}
}

// Start marks the file as picked up by a worker
func (t *Timing) Start() {
	t.startedAt = time.Now()
}

// Complete marks the file as done
func (t *Timing) Complete() {
	t.completedAt = time.Now()
}

// QueueDuration returns time spent waiting for a worker
func (t *Timing) QueueDuration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return t.startedAt.Sub(t.queuedAt)
}

// LintDuration returns time spent parsing and running rules
func (t *Timing) LintDuration() time.Duration {
	if t.completedAt.IsZero() || t.startedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.startedAt)
}

// TotalDuration returns total end-to-end time
func (t *Timing) TotalDuration() time.Duration {
	if t.completedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.queuedAt)
}

// AggregateStats holds computed aggregate statistics
type AggregateStats struct {
	TotalFiles       int64 `json:"total_files"`
	TotalErrors      int64 `json:"total_errors"`
	TotalViolations  int64 `json:"total_violations"`
	TotalSuppressed  int64 `json:"total_suppressed"`
	TotalCorrections int64 `json:"total_corrections"`

	// Latency stats (in milliseconds for JSON readability)
	AvgLintDurationMs float64 `json:"avg_lint_duration_ms"`
	P50LintDurationMs float64 `json:"p50_lint_duration_ms"`
	P95LintDurationMs float64 `json:"p95_lint_duration_ms"`
	P99LintDurationMs float64 `json:"p99_lint_duration_ms"`
	MaxLintDurationMs float64 `json:"max_lint_duration_ms"`

	AvgQueueDurationMs float64 `json:"avg_queue_duration_ms"`
	AvgTotalDurationMs float64 `json:"avg_total_duration_ms"`

	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	FilesPerSecond    float64 `json:"files_per_second"`
	ViolationsPerFile float64 `json:"violations_per_file"`

	ByLanguage map[string]*LanguageStats `json:"by_language"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// LanguageStats holds stats for the files of one language
type LanguageStats struct {
	Count             int64   `json:"count"`
	AvgLintDurationMs float64 `json:"avg_lint_duration_ms"`
	ErrorRate         float64 `json:"error_rate"`
}

// RuleTiming is the accumulated time one rule spent across all files
type RuleTiming struct {
	Rule  string        `json:"rule"`
	Total time.Duration `json:"total"`
	Runs  int64         `json:"runs"`
}

// atomicCounters holds atomic counters for real-time stats
type atomicCounters struct {
	totalFiles       atomic.Int64
	totalErrors      atomic.Int64
	totalViolations  atomic.Int64
	totalSuppressed  atomic.Int64
	totalCorrections atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
}

// Collector collects and stores lint metrics
type Collector struct {
	mu       sync.RWMutex
	events   []LintEvent
	rules    map[string]*RuleTiming
	counters atomicCounters

	maxEvents  int
	windowSize time.Duration

	startTime time.Time
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// WithWindowSize sets the time window for aggregate stats
func WithWindowSize(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.windowSize = d
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		events:     make([]LintEvent, 0, 256),
		rules:      make(map[string]*RuleTiming),
		maxEvents:  10000,
		windowSize: 1 * time.Hour,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record adds a file event to the collector
func (c *Collector) Record(event LintEvent) {
	c.counters.totalFiles.Add(1)
	c.counters.totalViolations.Add(int64(event.ViolationCount))
	c.counters.totalSuppressed.Add(int64(event.SuppressedCount))
	c.counters.totalCorrections.Add(int64(event.CorrectionCount))

	if event.Error != "" {
		c.counters.totalErrors.Add(1)
	}

	switch event.CacheResult {
	case CacheHit:
		c.counters.cacheHits.Add(1)
	case CacheMiss:
		c.counters.cacheMisses.Add(1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEvents <= 0 {
		return
	}
	c.events = append(c.events, event)

	if len(c.events) > c.maxEvents {
		// drop the oldest 10%
		pruneCount := max(c.maxEvents/10, 1)
		c.events = c.events[pruneCount:]
	}
}

// RecordRule adds d to the time spent by rule
func (c *Collector) RecordRule(rule string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rt, ok := c.rules[rule]
	if !ok {
		rt = &RuleTiming{Rule: rule}
		c.rules[rule] = rt
	}
	rt.Total += d
	rt.Runs++
}

// RuleTimings returns the per-rule totals, slowest first
func (c *Collector) RuleTimings() []RuleTiming {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]RuleTiming, 0, len(c.rules))
	for _, rt := range c.rules {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Rule < out[j].Rule
	})
	return out
}

// GetStats computes aggregate statistics from collected events
func (c *Collector) GetStats() AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	windowStart := now.Add(-c.windowSize)

	stats := AggregateStats{
		TotalFiles:       c.counters.totalFiles.Load(),
		TotalErrors:      c.counters.totalErrors.Load(),
		TotalViolations:  c.counters.totalViolations.Load(),
		TotalSuppressed:  c.counters.totalSuppressed.Load(),
		TotalCorrections: c.counters.totalCorrections.Load(),
		CacheHits:        c.counters.cacheHits.Load(),
		CacheMisses:      c.counters.cacheMisses.Load(),
		ByLanguage:       make(map[string]*LanguageStats),
		WindowStart:      windowStart,
		WindowEnd:        now,
	}

	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(lookups)
	}
	if stats.TotalFiles > 0 {
		stats.ViolationsPerFile = float64(stats.TotalViolations) / float64(stats.TotalFiles)
	}
	if elapsed := now.Sub(c.startTime).Seconds(); elapsed > 0 {
		stats.FilesPerSecond = float64(stats.TotalFiles) / elapsed
	}

	var windowEvents []LintEvent
	for _, e := range c.events {
		if e.Timestamp.After(windowStart) {
			windowEvents = append(windowEvents, e)
		}
	}
	if len(windowEvents) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(windowEvents))
	var sumLint, sumQueue, sumTotal float64
	langCounts := make(map[string]int64)
	langDurations := make(map[string]float64)
	langErrors := make(map[string]int64)

	for _, e := range windowEvents {
		ms := durationMs(e.LintDuration)
		durations = append(durations, ms)
		sumLint += ms
		sumQueue += durationMs(e.QueueDuration)
		sumTotal += durationMs(e.TotalDuration)

		langCounts[e.Language]++
		langDurations[e.Language] += ms
		if e.Error != "" {
			langErrors[e.Language]++
		}
	}

	n := float64(len(windowEvents))
	stats.AvgLintDurationMs = sumLint / n
	stats.AvgQueueDurationMs = sumQueue / n
	stats.AvgTotalDurationMs = sumTotal / n

	slices.Sort(durations)
	stats.P50LintDurationMs = percentile(durations, 0.50)
	stats.P95LintDurationMs = percentile(durations, 0.95)
	stats.P99LintDurationMs = percentile(durations, 0.99)
	stats.MaxLintDurationMs = durations[len(durations)-1]

	for lang, count := range langCounts {
		stats.ByLanguage[lang] = &LanguageStats{
			Count:             count,
			AvgLintDurationMs: langDurations[lang] / float64(count),
			ErrorRate:         float64(langErrors[lang]) / float64(count),
		}
	}

	return stats
}

// GetRecentEvents returns the most recent n events
func (c *Collector) GetRecentEvents(n int) []LintEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.events) {
		n = len(c.events)
	}
	if n <= 0 {
		return nil
	}

	result := make([]LintEvent, n)
	copy(result, c.events[len(c.events)-n:])
	return result
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.rules = make(map[string]*RuleTiming)
	c.counters = atomicCounters{}
	c.startTime = time.Now()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
