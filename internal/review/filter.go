package review

import "github.com/chris-regnier/mallet/internal/sarif"

// Filter selects results by level
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
	FilterUnreviewed
)

func (f Filter) String() string {
	switch f {
	case FilterErrors:
		return "errors"
	case FilterWarnings:
		return "warnings and errors"
	case FilterUnreviewed:
		return "unreviewed"
	default:
		return "all"
	}
}

func (m Model) keep(r sarif.Result) bool {
	switch m.filter {
	case FilterErrors:
		return r.Level == "error"
	case FilterWarnings:
		return r.Level == "error" || r.Level == "warning"
	case FilterUnreviewed:
		return m.marks[FindingID(r)] == StatusNone
	default:
		return true
	}
}

// filtered returns the findings passing the current filter, in order
func (m Model) filtered() []sarif.Result {
	if m.filter == FilterAll {
		return m.findings
	}
	var out []sarif.Result
	for _, f := range m.findings {
		if m.keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// filteredFiles counts the findings per file passing the current filter.
// Files with none are left out.
func (m Model) filteredFiles() map[string]int {
	counts := make(map[string]int)
	for uri, findings := range m.files {
		for _, f := range findings {
			if m.keep(f) {
				counts[uri]++
			}
		}
	}
	return counts
}
