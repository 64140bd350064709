// Package linttest checks rules against the examples in their
// descriptions.
package linttest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/position"
)

// Marker flags the offset of an expected violation in example code.
const Marker = "↓"

// StripMarkers removes every Marker from code and returns the cleaned
// text with the byte offsets the markers stood at.
func StripMarkers(code string) (string, []position.Position) {
	var b strings.Builder
	var marks []position.Position
	for {
		i := strings.Index(code, Marker)
		if i < 0 {
			b.WriteString(code)
			break
		}
		b.WriteString(code[:i])
		marks = append(marks, position.Position(b.Len()))
		code = code[i+len(Marker):]
	}
	return b.String(), marks
}

// Parse builds a lint file for code in the named language.
func Parse(t testing.TB, language, code string) *lint.File {
	t.Helper()
	lang, ok := parse.Lookup(language)
	require.True(t, ok, "unknown language %q", language)
	tree, err := parse.Parse(context.Background(), []byte(code), lang)
	require.NoError(t, err)
	return lint.NewFile("example", tree)
}

// Positions extracts the positions of violations.
func Positions(vs []lint.Violation) []position.Position {
	out := make([]position.Position, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Position)
	}
	return out
}

func configure(t testing.TB, rule lint.Rule, options map[string]interface{}) lint.Rule {
	t.Helper()
	if options == nil {
		return rule
	}
	c, ok := rule.(lint.Configurable)
	require.True(t, ok, "%s has example options but is not configurable", rule.Description().ID)
	configured, err := c.Configure(options)
	require.NoError(t, err)
	return configured
}

func languageOf(ex lint.Example, fallback string) string {
	if ex.Language != "" {
		return ex.Language
	}
	return fallback
}

// Verify runs every example of the rule's description. Non-triggering
// examples must produce no violations and triggering examples must
// produce violations exactly at their markers, or at least one when they
// carry none. Each triggering example is also checked with a disable
// command in front of it. Corrections must produce the expected text and
// leave nothing to correct on a second pass.
func Verify(t *testing.T, rule lint.Rule, language string) {
	t.Helper()
	desc := rule.Description()
	require.NotEmpty(t, desc.Triggering, "%s has no triggering examples", desc.ID)

	for i, ex := range desc.NonTriggering {
		t.Run(fmt.Sprintf("non_triggering_%d", i), func(t *testing.T) {
			r := configure(t, rule, ex.Config)
			code, _ := StripMarkers(ex.Code)
			f := Parse(t, languageOf(ex, language), code)
			assert.Empty(t, lint.Collect(f, r), "example:\n%s", code)
		})
	}

	for i, ex := range desc.Triggering {
		t.Run(fmt.Sprintf("triggering_%d", i), func(t *testing.T) {
			r := configure(t, rule, ex.Config)
			lang := languageOf(ex, language)
			code, marks := StripMarkers(ex.Code)
			got := lint.Collect(Parse(t, lang, code), r)
			if len(marks) > 0 {
				assert.Equal(t, marks, Positions(got), "example:\n%s", code)
			} else {
				assert.NotEmpty(t, got, "example:\n%s", code)
			}

			l, _ := parse.Lookup(lang)
			disabled := fmt.Sprintf("%s mallet:disable %s\n%s", l.LineComment, desc.ID, code)
			assert.Empty(t, lint.Collect(Parse(t, lang, disabled), r), "disabled example:\n%s", disabled)
		})
	}

	cr, ok := rule.(lint.CorrectableRule)
	if !ok {
		return
	}
	for i, ex := range desc.Corrections {
		t.Run(fmt.Sprintf("correction_%d", i), func(t *testing.T) {
			r, ok := configure(t, cr, ex.Before.Config).(lint.CorrectableRule)
			require.True(t, ok)
			lang := languageOf(ex.Before, language)
			code, marks := StripMarkers(ex.Before.Code)

			res := lint.Correct(Parse(t, lang, code), r)
			assert.Equal(t, ex.After, res.Text)
			if len(marks) > 0 {
				var at []position.Position
				for _, c := range res.Corrections {
					at = append(at, c.Position)
				}
				assert.Equal(t, marks, at)
			}

			again := Parse(t, lang, res.Text)
			assert.Empty(t, lint.Collect(again, r), "corrected output still violates:\n%s", res.Text)
			assert.False(t, lint.Correct(again, r).Changed(), "correction is not idempotent")
		})
	}
}
