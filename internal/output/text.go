package output

import (
	"fmt"
	"strings"
)

// TextFormatter renders one line per violation in the conventional
// compiler style, followed by the verdict. It is the default when output
// is piped.
type TextFormatter struct{}

// Format writes "path:line:col: level: message (rule)" lines in file and
// position order.
func (f *TextFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("text formatter: result is required")
	}

	var b strings.Builder
	for _, r := range sortByLocation(result.Results()) {
		region := r.Region()
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s (%s)\n",
			r.URI(), region.StartLine, region.StartColumn, r.Level, r.Message.Text, r.RuleID)
	}
	if result.Verdict != nil {
		fmt.Fprintf(&b, "%s: %s\n", result.Verdict.Decision, result.Verdict.Reason)
	}
	return []byte(b.String()), nil
}
