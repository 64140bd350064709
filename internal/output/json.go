package output

import (
	"encoding/json"
	"fmt"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/sarif"
)

// JSONFormatter renders analysis output as indented JSON: the verdict and
// a flat list of violations.
type JSONFormatter struct{}

type jsonViolation struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	CharOffset *int   `json:"char_offset,omitempty"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
}

type jsonReport struct {
	Decision   string                 `json:"decision"`
	Reason     string                 `json:"reason"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Violations []jsonViolation        `json:"violations"`
	Stats      *analyzer.Stats        `json:"stats,omitempty"`
}

func toJSONViolation(r sarif.Result) jsonViolation {
	region := r.Region()
	return jsonViolation{
		File:       r.URI(),
		Line:       region.StartLine,
		Column:     region.StartColumn,
		CharOffset: region.CharOffset,
		Rule:       r.RuleID,
		Severity:   r.Level,
		Message:    r.Message.Text,
	}
}

// Format serializes the verdict and violations as pretty-printed JSON
// with a trailing newline.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.Verdict == nil {
		return nil, fmt.Errorf("json formatter: verdict is required")
	}
	report := jsonReport{
		Decision:   result.Verdict.Decision,
		Reason:     result.Verdict.Reason,
		Metadata:   result.Verdict.Metadata,
		Violations: []jsonViolation{},
		Stats:      result.Stats,
	}
	for _, r := range result.Results() {
		report.Violations = append(report.Violations, toJSONViolation(r))
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
