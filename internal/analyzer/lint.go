package analyzer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/mallet/internal/cache"
	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/metrics"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/position"
)

// Correction is one applied rewrite, located in the text it was applied
// to.
type Correction struct {
	Rule     string            `json:"rule"`
	Location position.Location `json:"location"`
}

// FileReport is the outcome for one file. Err is set when the file could
// not be processed; the other files of the run are unaffected.
type FileReport struct {
	Path     string
	Language string
	// Lines indexes the final text of the file.
	Lines *position.Converter
	// Violations are ordered by position, then rule, with reason and
	// severity resolved.
	Violations []lint.Violation
	Suppressed []lint.Violation

	Corrections []Correction
	Passes      int
	// Changed reports whether corrections altered the text.
	Changed bool
	// Text is the corrected text when Changed is set.
	Text string

	Cached bool
	Err    error
}

// Lint checks every artifact and returns one report per artifact, in
// input order. It only fails when ctx is cancelled.
func (a *Analyzer) Lint(ctx context.Context, arts []input.Artifact) ([]FileReport, error) {
	ctx, span := tracer.Start(ctx, "lint",
		trace.WithAttributes(
			attribute.Int("mallet.files", len(arts)),
			attribute.Int("mallet.rules", len(a.rules)),
			attribute.Int("mallet.jobs", a.jobs),
		))
	defer span.End()

	reports, err := a.each(ctx, arts, metrics.PhaseLint, func(ctx context.Context, art input.Artifact, fb *metrics.FileBuilder) FileReport {
		return a.lintArtifact(ctx, art, fb)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return reports, nil
}

type fileFunc func(ctx context.Context, art input.Artifact, fb *metrics.FileBuilder) FileReport

// each runs fn over arts with at most a.jobs files in flight. Results are
// stored by index so output order matches input order.
func (a *Analyzer) each(ctx context.Context, arts []input.Artifact, phase metrics.Phase, fn fileFunc) ([]FileReport, error) {
	builders := make([]*metrics.FileBuilder, len(arts))
	for i, art := range arts {
		builders[i] = a.recorder.StartFile(phase).WithFile(art.Path, art.Language, art.Content)
	}

	reports := make([]FileReport, len(arts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.jobs)
	for i, art := range arts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = fn(gctx, art, builders[i].MarkStarted())
			a.files.Add(1)
			if reports[i].Err != nil {
				a.failures.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *Analyzer) lintArtifact(ctx context.Context, art input.Artifact, fb *metrics.FileBuilder) FileReport {
	ctx, span := tracer.Start(ctx, "lint file",
		trace.WithAttributes(
			attribute.String("mallet.path", art.Path),
			attribute.String("mallet.language", art.Language),
		))
	defer span.End()

	rep := a.lintSource(ctx, art.Path, art.Language, art.Content, fb)
	if rep.Err != nil {
		span.RecordError(rep.Err)
		span.SetStatus(codes.Error, rep.Err.Error())
		fb.CompleteWithError(ctx, rep.Err)
		return rep
	}
	span.SetAttributes(
		attribute.Int("mallet.violations", len(rep.Violations)),
		attribute.Bool("mallet.cache.hit", rep.Cached),
	)
	fb.Complete(ctx, len(rep.Violations), len(rep.Suppressed))
	return rep
}

func (a *Analyzer) cacheKey(path, content string) cache.CacheKey {
	return cache.CacheKey{
		FileHash:   cache.ContentHash([]byte(content)),
		FilePath:   path,
		ConfigHash: a.keyHash,
		Version:    a.version,
	}
}

// lintSource lints one text, answering from the cache when it can.
func (a *Analyzer) lintSource(ctx context.Context, path, language, content string, fb *metrics.FileBuilder) FileReport {
	rep := FileReport{Path: path, Language: language}
	fb.WithRules(len(a.rules))

	key := a.cacheKey(path, content)
	if a.cache != nil {
		entry, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			a.cacheHits.Add(1)
			a.violations.Add(int64(len(entry.Violations)))
			fb.WithCacheResult(metrics.CacheHit, key.Hash())
			rep.Lines = position.NewConverter(content)
			rep.Violations = entry.Violations
			rep.Suppressed = entry.Suppressed
			rep.Cached = true
			return rep
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			slog.Warn("cache lookup failed", "path", path, "err", err)
		}
		a.cacheMisses.Add(1)
		fb.WithCacheResult(metrics.CacheMiss, key.Hash())
	}

	f, err := parseFile(ctx, path, language, content)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Lines = f.Lines
	rep.Violations, rep.Suppressed = a.check(f)
	a.violations.Add(int64(len(rep.Violations)))

	if a.cache != nil {
		entry := &cache.CacheEntry{Key: key, Violations: rep.Violations, Suppressed: rep.Suppressed}
		if err := a.cache.Put(ctx, entry); err != nil {
			slog.Warn("cache store failed", "path", path, "err", err)
		}
	}
	return rep
}

func parseFile(ctx context.Context, path, language, content string) (*lint.File, error) {
	lang, ok := parse.Lookup(language)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", path, parse.ErrUnsupportedLanguage, language)
	}
	tree, err := parse.Parse(ctx, []byte(content), lang)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lint.NewFile(path, tree), nil
}

// check runs every enabled rule that supports the file's language, then
// the command checks.
func (a *Analyzer) check(f *lint.File) (kept, suppressed []lint.Violation) {
	ran := make(map[string]bool, len(a.rules))
	for _, rule := range a.rules {
		desc := rule.Description()
		if !desc.Supports(f.Language) {
			continue
		}
		ran[desc.ID] = true

		start := time.Now()
		k, s := lint.CollectAll(f, rule)
		a.recorder.TimeRule(desc.ID, start)

		for _, v := range k {
			kept = append(kept, a.resolve(v))
		}
		for _, v := range s {
			suppressed = append(suppressed, a.resolve(v))
		}
	}
	for _, v := range a.commandViolations(f, ran, suppressed) {
		kept = append(kept, a.resolve(v))
	}
	sortViolations(kept)
	sortViolations(suppressed)
	return kept, suppressed
}

func sortViolations(vs []lint.Violation) {
	slices.SortStableFunc(vs, func(x, y lint.Violation) int {
		return cmp.Or(cmp.Compare(x.Position, y.Position), cmp.Compare(x.Rule, y.Rule))
	})
}
