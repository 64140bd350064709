package metrics

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/chris-regnier/mallet/internal/metrics"

// Recorder records file events into a Collector and mirrors them to the
// global OpenTelemetry meter.
type Recorder struct {
	collector *Collector

	files      metric.Int64Counter
	violations metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewRecorder creates a new metrics recorder
func NewRecorder(collector *Collector) *Recorder {
	r := &Recorder{collector: collector}
	meter := otel.Meter(meterName)

	var err error
	if r.files, err = meter.Int64Counter("mallet.files",
		metric.WithDescription("Files processed"),
		metric.WithUnit("{file}")); err != nil {
		slog.Debug("creating files counter", "err", err)
	}
	if r.violations, err = meter.Int64Counter("mallet.violations",
		metric.WithDescription("Violations reported"),
		metric.WithUnit("{violation}")); err != nil {
		slog.Debug("creating violations counter", "err", err)
	}
	if r.duration, err = meter.Float64Histogram("mallet.file.duration",
		metric.WithDescription("Time spent linting one file"),
		metric.WithUnit("s")); err != nil {
		slog.Debug("creating duration histogram", "err", err)
	}
	return r
}

// Collector returns the collector events are recorded into
func (r *Recorder) Collector() *Collector {
	return r.collector
}

// FileBuilder helps build a LintEvent incrementally
type FileBuilder struct {
	recorder *Recorder
	event    LintEvent
	timing   *Timing
	mu       sync.Mutex
}

// StartFile begins recording one file. Call it when the file is queued.
func (r *Recorder) StartFile(phase Phase) *FileBuilder {
	return &FileBuilder{
		recorder: r,
		event: LintEvent{
			ID:          generateID(),
			Timestamp:   time.Now(),
			Phase:       phase,
			CacheResult: CacheBypass,
		},
		timing: NewTiming(),
	}
}

// WithFile sets the file information
func (b *FileBuilder) WithFile(path, language, content string) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.FilePath = path
	b.event.Language = language
	b.event.FileSize = len(content)
	b.event.LineCount = strings.Count(content, "\n") + 1
	return b
}

// WithRules sets how many rules ran on the file
func (b *FileBuilder) WithRules(count int) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.RuleCount = count
	return b
}

// WithCacheResult records a cache lookup result
func (b *FileBuilder) WithCacheResult(result CacheResult, key string) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.CacheResult = result
	b.event.CacheKey = key
	return b
}

// WithCorrections records the corrections applied over passes rounds
func (b *FileBuilder) WithCorrections(count, passes int) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.CorrectionCount = count
	b.event.Passes = passes
	return b
}

// MarkStarted marks the file as picked up by a worker
func (b *FileBuilder) MarkStarted() *FileBuilder {
	b.timing.Start()
	return b
}

// Complete finishes recording and submits the event
func (b *FileBuilder) Complete(ctx context.Context, violations, suppressed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.ViolationCount = violations
	b.event.SuppressedCount = suppressed
	b.finish(ctx)
}

// CompleteWithError finishes recording a file that could not be linted
func (b *FileBuilder) CompleteWithError(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.Error = err.Error()
	b.finish(ctx)
}

func (b *FileBuilder) finish(ctx context.Context) {
	b.timing.Complete()
	b.event.QueueDuration = b.timing.QueueDuration()
	b.event.LintDuration = b.timing.LintDuration()
	b.event.TotalDuration = b.timing.TotalDuration()

	b.recorder.collector.Record(b.event)
	b.recorder.export(ctx, b.event)
}

func (r *Recorder) export(ctx context.Context, e LintEvent) {
	attrs := metric.WithAttributes(
		attribute.String("mallet.language", e.Language),
		attribute.String("mallet.phase", string(e.Phase)),
		attribute.Bool("mallet.error", e.Error != ""),
	)
	if r.files != nil {
		r.files.Add(ctx, 1, attrs)
	}
	if r.violations != nil {
		r.violations.Add(ctx, int64(e.ViolationCount), attrs)
	}
	if r.duration != nil {
		r.duration.Record(ctx, e.LintDuration.Seconds(), attrs)
	}
}

// TimeRule records the time since start against rule
func (r *Recorder) TimeRule(rule string, start time.Time) {
	r.collector.RecordRule(rule, time.Since(start))
}

// generateID generates a random ID for an event
func generateID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))[:16]
	}
	return hex.EncodeToString(b[:])
}

type contextKey string

const recorderContextKey contextKey = "metrics_recorder"

// WithRecorder adds a recorder to the context
func WithRecorder(ctx context.Context, recorder *Recorder) context.Context {
	return context.WithValue(ctx, recorderContextKey, recorder)
}

// RecorderFromContext retrieves a recorder from the context
func RecorderFromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderContextKey).(*Recorder); ok {
		return r
	}
	return nil
}

// NoOpRecorder returns a recorder that keeps counters but no events
func NoOpRecorder() *Recorder {
	return &Recorder{
		collector: NewCollector(WithMaxEvents(0)),
	}
}
