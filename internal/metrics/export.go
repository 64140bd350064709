package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// Report is the JSON document written by ExportJSON
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Stats       AggregateStats `json:"stats"`
	Rules       []RuleTiming   `json:"rules"`
	Events      []LintEvent    `json:"events"`
}

// ExportJSON writes stats, rule timings and recent events to a JSON file
func (e *Exporter) ExportJSON(path string) error {
	report := Report{
		GeneratedAt: time.Now(),
		Stats:       e.collector.GetStats(),
		Rules:       e.collector.RuleTimings(),
		Events:      e.collector.GetRecentEvents(1000),
	}
	return writeJSON(path, report)
}

// ExportStatsJSON writes only aggregate stats to a JSON file
func (e *Exporter) ExportStatsJSON(path string) error {
	return writeJSON(path, e.collector.GetStats())
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteReport writes a human-readable summary to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.GetStats()

	fmt.Fprintf(w, "Mallet Lint Metrics\n")
	fmt.Fprintf(w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files:          %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "Errors:         %d (%.1f%%)\n",
		stats.TotalErrors,
		safePercent(float64(stats.TotalErrors), float64(stats.TotalFiles)))
	fmt.Fprintf(w, "Violations:     %d\n", stats.TotalViolations)
	fmt.Fprintf(w, "Suppressed:     %d\n", stats.TotalSuppressed)
	fmt.Fprintf(w, "Corrections:    %d\n", stats.TotalCorrections)
	fmt.Fprintf(w, "Violations/file: %.2f\n\n", stats.ViolationsPerFile)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:  %.1fms\n", stats.AvgLintDurationMs)
	fmt.Fprintf(w, "P50:      %.1fms\n", stats.P50LintDurationMs)
	fmt.Fprintf(w, "P95:      %.1fms\n", stats.P95LintDurationMs)
	fmt.Fprintf(w, "P99:      %.1fms\n", stats.P99LintDurationMs)
	fmt.Fprintf(w, "Max:      %.1fms\n", stats.MaxLintDurationMs)
	fmt.Fprintf(w, "Avg Queue: %.1fms\n\n", stats.AvgQueueDurationMs)

	fmt.Fprintf(w, "=== Cache ===\n")
	fmt.Fprintf(w, "Hits:     %d\n", stats.CacheHits)
	fmt.Fprintf(w, "Misses:   %d\n", stats.CacheMisses)
	fmt.Fprintf(w, "Hit Rate: %.1f%%\n\n", stats.CacheHitRate*100)

	if len(stats.ByLanguage) > 0 {
		fmt.Fprintf(w, "=== By Language ===\n")
		langs := make([]string, 0, len(stats.ByLanguage))
		for lang := range stats.ByLanguage {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			ls := stats.ByLanguage[lang]
			fmt.Fprintf(w, "%s: %d files, %.1fms avg, %.1f%% errors\n",
				lang, ls.Count, ls.AvgLintDurationMs, ls.ErrorRate*100)
		}
		fmt.Fprintln(w)
	}

	return e.WriteRuleReport(w)
}

// WriteRuleReport lists the time spent per rule, slowest first
func (e *Exporter) WriteRuleReport(w io.Writer) error {
	timings := e.collector.RuleTimings()
	if len(timings) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "=== Rules ===\n"); err != nil {
		return err
	}
	for _, rt := range timings {
		if _, err := fmt.Fprintf(w, "%-28s %10.3fms %6d runs\n", rt.Rule, durationMs(rt.Total), rt.Runs); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes events in CSV format for external analysis
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "timestamp", "phase", "file_path", "language", "file_size", "line_count", "rule_count",
		"queue_duration_ms", "lint_duration_ms", "total_duration_ms",
		"violation_count", "suppressed_count", "correction_count", "passes",
		"cache_result", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, ev := range e.collector.GetRecentEvents(e.collector.maxEvents) {
		record := []string{
			ev.ID,
			ev.Timestamp.Format(time.RFC3339),
			string(ev.Phase),
			ev.FilePath,
			ev.Language,
			strconv.Itoa(ev.FileSize),
			strconv.Itoa(ev.LineCount),
			strconv.Itoa(ev.RuleCount),
			strconv.FormatInt(ev.QueueDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.LintDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.TotalDuration.Milliseconds(), 10),
			strconv.Itoa(ev.ViolationCount),
			strconv.Itoa(ev.SuppressedCount),
			strconv.Itoa(ev.CorrectionCount),
			strconv.Itoa(ev.Passes),
			string(ev.CacheResult),
			ev.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func safePercent(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return (numerator / denominator) * 100
}
