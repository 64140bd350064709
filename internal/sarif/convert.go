package sarif

import (
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/position"
)

// Level maps a severity to a SARIF result level.
func Level(s lint.Severity) string {
	switch s {
	case lint.SeverityError:
		return "error"
	case lint.SeverityWarning:
		return "warning"
	}
	return "note"
}

// Descriptor describes a rule for the tool driver.
func Descriptor(desc lint.Description, enabled bool) ReportingDescriptor {
	props := map[string]interface{}{
		"mallet/kind": string(desc.Kind),
	}
	if len(desc.Languages) > 0 {
		props["mallet/languages"] = desc.Languages
	}
	if desc.OptIn {
		props["mallet/optIn"] = true
	}
	return ReportingDescriptor{
		ID:               desc.ID,
		Name:             desc.Name,
		ShortDescription: Message{Text: desc.Summary},
		DefaultConfig: &ReportingConfiguration{
			Enabled: &enabled,
			Level:   Level(desc.Severity.Or(lint.SeverityWarning)),
		},
		Properties: props,
	}
}

// NewResult converts a violation of a file at path into a result. The
// violation's severity must already be resolved.
func NewResult(path string, v lint.Violation, lines *position.Converter) Result {
	return Result{
		RuleID:  v.Rule,
		Level:   Level(v.Severity),
		Message: Message{Text: v.Reason},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: path},
				Region:           PointRegion(lines, v.Position),
			},
		}},
		Properties: map[string]interface{}{
			"mallet/offset": int(v.Position),
		},
	}
}

// PointRegion locates p. Columns and the char offset count code points;
// when p falls inside a multi-byte character the column falls back to
// bytes and the char offset is omitted.
func PointRegion(lines *position.Converter, p position.Position) Region {
	loc := lines.Location(p)
	if !loc.Valid() {
		return Region{}
	}
	r := Region{StartLine: loc.Line, StartColumn: loc.Column}
	chars := lines.CharOffset(p)
	if chars == position.Invalid {
		return r
	}
	lineChars := lines.CharOffset(lines.LineStart(loc.Line))
	r.StartColumn = int(chars-lineChars) + 1
	offset := int(chars)
	r.CharOffset = &offset
	return r
}
