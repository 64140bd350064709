package sarif

import (
	"encoding/json"
	"testing"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/position"
)

func TestSarifLog_MarshalJSON(t *testing.T) {
	log := NewLog("mallet", "0.1.0")
	offset := 42
	log.Runs[0].Results = append(log.Runs[0].Results, Result{
		RuleID:  "trailing_whitespace",
		Level:   "warning",
		Message: Message{Text: "Lines should not have trailing whitespace"},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: "pkg/bar/bar.go"},
				Region:           Region{StartLine: 10, StartColumn: 3, CharOffset: &offset},
			},
		}},
		Properties: map[string]interface{}{
			"mallet/offset": 42,
		},
	})

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		t.Fatal(err)
	}

	var parsed Log
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}

	if len(parsed.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(parsed.Runs))
	}
	if parsed.Runs[0].ColumnKind != ColumnKindCodePoints {
		t.Errorf("expected columnKind %q, got %q", ColumnKindCodePoints, parsed.Runs[0].ColumnKind)
	}
	if len(parsed.Runs[0].Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed.Runs[0].Results))
	}
	r := parsed.Runs[0].Results[0]
	if r.RuleID != "trailing_whitespace" {
		t.Errorf("expected ruleId 'trailing_whitespace', got %q", r.RuleID)
	}
	region := r.Region()
	if region.StartLine != 10 || region.StartColumn != 3 {
		t.Errorf("expected region 10:3, got %d:%d", region.StartLine, region.StartColumn)
	}
	if region.CharOffset == nil || *region.CharOffset != 42 {
		t.Errorf("expected charOffset 42, got %v", region.CharOffset)
	}
	if r.URI() != "pkg/bar/bar.go" {
		t.Errorf("expected uri preserved, got %q", r.URI())
	}
}

func TestResultAccessors_NoLocation(t *testing.T) {
	var r Result
	if r.URI() != "" {
		t.Errorf("expected empty uri, got %q", r.URI())
	}
	if r.Region() != (Region{}) {
		t.Errorf("expected zero region, got %+v", r.Region())
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		sev  lint.Severity
		want string
	}{
		{lint.SeverityError, "error"},
		{lint.SeverityWarning, "warning"},
		{lint.SeverityDefault, "note"},
	}
	for _, tt := range tests {
		if got := Level(tt.sev); got != tt.want {
			t.Errorf("Level(%v) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestPointRegion(t *testing.T) {
	lines := position.NewConverter("abc\ndef\n")

	r := PointRegion(lines, 5)
	if r.StartLine != 2 || r.StartColumn != 2 {
		t.Errorf("expected 2:2, got %d:%d", r.StartLine, r.StartColumn)
	}
	if r.CharOffset == nil || *r.CharOffset != 5 {
		t.Errorf("expected charOffset 5, got %v", r.CharOffset)
	}
}

func TestPointRegion_MultiByte(t *testing.T) {
	// "héllo\n" is 7 bytes and "wörld " is 7 more, so x is at byte 14.
	lines := position.NewConverter("héllo\nwörld x\n")

	r := PointRegion(lines, 14)
	if r.StartLine != 2 {
		t.Fatalf("expected line 2, got %d", r.StartLine)
	}
	if r.StartColumn != 7 {
		t.Errorf("expected code point column 7, got %d", r.StartColumn)
	}
	if r.CharOffset == nil || *r.CharOffset != 12 {
		t.Errorf("expected charOffset 12, got %v", r.CharOffset)
	}
}

func TestPointRegion_InsideRune(t *testing.T) {
	lines := position.NewConverter("héllo\n")

	// Byte 2 is the second byte of é.
	r := PointRegion(lines, 2)
	if r.StartLine != 1 || r.StartColumn != 3 {
		t.Errorf("expected byte column fallback 1:3, got %d:%d", r.StartLine, r.StartColumn)
	}
	if r.CharOffset != nil {
		t.Errorf("expected no charOffset, got %d", *r.CharOffset)
	}
}

func TestPointRegion_OutOfRange(t *testing.T) {
	lines := position.NewConverter("abc")
	if r := PointRegion(lines, 99); r != (Region{}) {
		t.Errorf("expected zero region, got %+v", r)
	}
}

func TestNewResult(t *testing.T) {
	lines := position.NewConverter("let x = 1;\n")
	v := lint.Violation{
		Rule:     "trailing_semicolon",
		Position: 9,
		Reason:   "Lines should not have trailing semicolons",
		Severity: lint.SeverityError,
	}

	r := NewResult("main.swift", v, lines)
	if r.RuleID != "trailing_semicolon" {
		t.Errorf("expected ruleId trailing_semicolon, got %q", r.RuleID)
	}
	if r.Level != "error" {
		t.Errorf("expected level error, got %q", r.Level)
	}
	if r.Message.Text != v.Reason {
		t.Errorf("expected message %q, got %q", v.Reason, r.Message.Text)
	}
	if r.URI() != "main.swift" {
		t.Errorf("expected uri main.swift, got %q", r.URI())
	}
	if got := r.Region(); got.StartLine != 1 || got.StartColumn != 10 {
		t.Errorf("expected 1:10, got %d:%d", got.StartLine, got.StartColumn)
	}
	if r.Properties["mallet/offset"] != 9 {
		t.Errorf("expected offset property 9, got %v", r.Properties["mallet/offset"])
	}
}

func TestDescriptor(t *testing.T) {
	desc := lint.Description{
		ID:        "trailing_semicolon",
		Name:      "Trailing Semicolon",
		Summary:   "Lines should not have trailing semicolons",
		Kind:      lint.KindIdiomatic,
		Languages: []string{"swift"},
		OptIn:     true,
	}

	d := Descriptor(desc, false)
	if d.ID != desc.ID || d.Name != desc.Name {
		t.Errorf("unexpected identity %q/%q", d.ID, d.Name)
	}
	if d.ShortDescription.Text != desc.Summary {
		t.Errorf("expected summary, got %q", d.ShortDescription.Text)
	}
	if d.DefaultConfig == nil {
		t.Fatal("expected default configuration")
	}
	if d.DefaultConfig.Level != "warning" {
		t.Errorf("expected default level warning, got %q", d.DefaultConfig.Level)
	}
	if d.DefaultConfig.Enabled == nil || *d.DefaultConfig.Enabled {
		t.Errorf("expected disabled descriptor")
	}
	if d.Properties["mallet/optIn"] != true {
		t.Errorf("expected optIn property")
	}
	if d.Properties["mallet/kind"] != "idiomatic" {
		t.Errorf("expected kind idiomatic, got %v", d.Properties["mallet/kind"])
	}
}
