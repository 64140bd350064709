package sarif

import (
	"cmp"
	"slices"
)

// Assemble creates a SARIF log from lint results. Results are ordered by
// file, line, column and rule; rules are ordered by ID.
func Assemble(results []Result, rules []ReportingDescriptor, inputScope string) *Log {
	log := NewLog(ToolName, "dev")
	log.Runs[0].Tool.Driver.InformationURI = InformationURI
	log.Runs[0].Tool.Driver.Rules = sortRules(rules)
	log.Runs[0].Results = sortResults(results)
	if inputScope != "" {
		log.Runs[0].Properties = map[string]interface{}{
			"mallet/inputScope": inputScope,
		}
	}
	return log
}

func sortResults(results []Result) []Result {
	out := slices.Clone(results)
	if out == nil {
		out = []Result{}
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		ra, rb := a.Region(), b.Region()
		return cmp.Or(
			cmp.Compare(a.URI(), b.URI()),
			cmp.Compare(ra.StartLine, rb.StartLine),
			cmp.Compare(ra.StartColumn, rb.StartColumn),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
	return out
}

func sortRules(rules []ReportingDescriptor) []ReportingDescriptor {
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b ReportingDescriptor) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Counts tallies results by level.
func Counts(log *Log) map[string]int {
	counts := make(map[string]int)
	if log == nil {
		return counts
	}
	for _, run := range log.Runs {
		for _, r := range run.Results {
			counts[r.Level]++
		}
	}
	return counts
}
