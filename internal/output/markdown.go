package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// MarkdownFormatter renders analysis output as GitHub-Flavored Markdown
// suitable for PR comments. Findings are grouped by file in collapsible
// <details> sections.
type MarkdownFormatter struct{}

// severityPriority returns a sort priority for SARIF severity levels.
// Lower values sort first: error (0) > warning (1) > note (2).
func severityPriority(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	case "note":
		return 2
	default:
		return 3
	}
}

// severityEmoji returns the GitHub emoji shortcode for a SARIF severity level.
func severityEmoji(level string) string {
	switch level {
	case "error":
		return ":red_circle:"
	case "warning":
		return ":warning:"
	case "note":
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

// decisionBanner returns the emoji + text for a verdict decision.
func decisionBanner(decision string) string {
	switch decision {
	case "pass":
		return ":white_check_mark: Pass"
	case "reject":
		return ":x: Reject"
	case "review":
		return ":warning: Review Required"
	default:
		return decision
	}
}

// resultLocation returns "line:column", or "line" when the column is
// unknown, or "" when the result has no region.
func resultLocation(r sarif.Result) string {
	region := r.Region()
	switch {
	case region.StartLine == 0:
		return ""
	case region.StartColumn == 0:
		return fmt.Sprintf("%d", region.StartLine)
	default:
		return fmt.Sprintf("%d:%d", region.StartLine, region.StartColumn)
	}
}

// sortResults orders results by severity, then file, then position.
func sortResults(results []sarif.Result) []sarif.Result {
	sorted := make([]sarif.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if pa, pb := severityPriority(a.Level), severityPriority(b.Level); pa != pb {
			return pa < pb
		}
		if a.URI() != b.URI() {
			return a.URI() < b.URI()
		}
		ra, rb := a.Region(), b.Region()
		if ra.StartLine != rb.StartLine {
			return ra.StartLine < rb.StartLine
		}
		return ra.StartColumn < rb.StartColumn
	})
	return sorted
}

// Format produces GFM Markdown output from the analysis results.
func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}
	if result.Verdict == nil {
		return nil, fmt.Errorf("markdown formatter: verdict is required")
	}

	var b strings.Builder
	results := result.Results()

	fileSet := make(map[string]struct{})
	severityCounts := make(map[string]int)
	for _, r := range results {
		if fp := r.URI(); fp != "" {
			fileSet[fp] = struct{}{}
		}
		severityCounts[r.Level]++
	}

	b.WriteString("## Mallet Lint Summary\n\n")
	fmt.Fprintf(&b, "**Decision:** %s | **Violations:** %d | **Files:** %d\n",
		decisionBanner(result.Verdict.Decision), len(results), len(fileSet))

	if len(results) == 0 {
		b.WriteString("\nNo violations found.\n")
	} else {
		b.WriteString("\n### Violations by Severity\n")
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, level := range []string{"error", "warning", "note"} {
			if count := severityCounts[level]; count > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", level, count)
			}
		}

		b.WriteString("\n### Violations\n\n")
		for _, r := range sortResults(results) {
			fp := r.URI()
			loc := resultLocation(r)

			where := ""
			switch {
			case fp != "" && loc != "":
				where = fmt.Sprintf(" in <code>%s:%s</code>", fp, loc)
			case fp != "":
				where = fmt.Sprintf(" in <code>%s</code>", fp)
			}

			b.WriteString("<details>\n")
			fmt.Fprintf(&b, "<summary>%s <strong>%s</strong> %s: %s%s</summary>\n\n",
				severityEmoji(r.Level), r.Level, r.RuleID, truncate(r.Message.Text, 80), where)
			fmt.Fprintf(&b, "**Rule:** `%s`\n", r.RuleID)
			if fp != "" {
				if loc != "" {
					fmt.Fprintf(&b, "**Location:** `%s` %s\n", fp, loc)
				} else {
					fmt.Fprintf(&b, "**Location:** `%s`\n", fp)
				}
			}
			fmt.Fprintf(&b, "\n> %s\n", r.Message.Text)
			b.WriteString("\n</details>\n\n")
		}
	}

	if result.Stats != nil {
		fmt.Fprintf(&b, "_%d files checked, %d cache hits, %d corrections_\n\n",
			result.Stats.Files, result.Stats.CacheHits, result.Stats.Corrections)
	}

	b.WriteString("---\n")
	b.WriteString("*Generated by [mallet](https://github.com/chris-regnier/mallet)*\n")
	return []byte(b.String()), nil
}

// truncate shortens a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
