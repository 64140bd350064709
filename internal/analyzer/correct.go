package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/metrics"
)

// Correct applies every enabled correctable rule to each artifact until a
// full pass changes nothing or the pass limit is reached, then lints the
// result. With write set, changed files are written back in place.
func (a *Analyzer) Correct(ctx context.Context, arts []input.Artifact, write bool) ([]FileReport, error) {
	ctx, span := tracer.Start(ctx, "correct",
		trace.WithAttributes(
			attribute.Int("mallet.files", len(arts)),
			attribute.Int("mallet.max_passes", a.maxPasses),
			attribute.Bool("mallet.write", write),
		))
	defer span.End()

	reports, err := a.each(ctx, arts, metrics.PhaseCorrect, func(ctx context.Context, art input.Artifact, fb *metrics.FileBuilder) FileReport {
		return a.correctArtifact(ctx, art, write, fb)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return reports, nil
}

func (a *Analyzer) correctable(language string) []lint.CorrectableRule {
	var out []lint.CorrectableRule
	for _, rule := range a.rules {
		cr, ok := rule.(lint.CorrectableRule)
		if ok && cr.Description().Supports(language) {
			out = append(out, cr)
		}
	}
	return out
}

func (a *Analyzer) correctArtifact(ctx context.Context, art input.Artifact, write bool, fb *metrics.FileBuilder) FileReport {
	ctx, span := tracer.Start(ctx, "correct file",
		trace.WithAttributes(
			attribute.String("mallet.path", art.Path),
			attribute.String("mallet.language", art.Language),
		))
	defer span.End()

	fail := func(rep FileReport) FileReport {
		span.RecordError(rep.Err)
		span.SetStatus(codes.Error, rep.Err.Error())
		fb.CompleteWithError(ctx, rep.Err)
		return rep
	}

	text, corrections, passes, err := a.fix(ctx, art)
	if err != nil {
		return fail(FileReport{Path: art.Path, Language: art.Language, Err: err})
	}
	changed := text != art.Content

	if changed && write {
		if err := writeInPlace(art.Path, text); err != nil {
			return fail(FileReport{Path: art.Path, Language: art.Language, Err: err})
		}
	}

	rep := a.lintSource(ctx, art.Path, art.Language, text, fb)
	rep.Corrections = corrections
	rep.Passes = passes
	rep.Changed = changed
	if changed {
		rep.Text = text
	}
	if rep.Err != nil {
		return fail(rep)
	}

	a.corrections.Add(int64(len(corrections)))
	fb.WithCorrections(len(corrections), passes)
	span.SetAttributes(
		attribute.Int("mallet.corrections", len(corrections)),
		attribute.Int("mallet.passes", passes),
	)
	fb.Complete(ctx, len(rep.Violations), len(rep.Suppressed))
	return rep
}

// fix runs correction passes over the artifact's text. Each rule sees the
// tree produced by the rules before it, re-parsed so that positions and
// disabled regions match the current text.
func (a *Analyzer) fix(ctx context.Context, art input.Artifact) (string, []Correction, int, error) {
	rules := a.correctable(art.Language)
	if len(rules) == 0 {
		return art.Content, nil, 0, nil
	}

	f, err := parseFile(ctx, art.Path, art.Language, art.Content)
	if err != nil {
		return "", nil, 0, err
	}

	var corrections []Correction
	passes := 0
	for passes < a.maxPasses {
		passes++
		changed := false
		for _, rule := range rules {
			res := lint.Correct(f, rule)
			if !res.Changed() {
				continue
			}
			changed = true
			for _, c := range res.Corrections {
				corrections = append(corrections, Correction{Rule: c.Rule, Location: f.Lines.Location(c.Position)})
			}
			if f, err = parseFile(ctx, art.Path, art.Language, res.Text); err != nil {
				return "", nil, passes, fmt.Errorf("after %s correction: %w", rule.Description().ID, err)
			}
		}
		if !changed {
			return f.Source(), corrections, passes, nil
		}
	}
	slog.Warn("corrections did not settle", "path", art.Path, "passes", passes)
	return f.Source(), corrections, passes, nil
}

func writeInPlace(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(text), mode); err != nil {
		return fmt.Errorf("writing corrected %s: %w", path, err)
	}
	return nil
}
