package lint

import (
	"sort"

	"github.com/chris-regnier/mallet/internal/position"
)

// Violation is one finding of one rule.
type Violation struct {
	Rule     string
	Position position.Position
	Reason   string
	// Severity overrides the rule default when set.
	Severity Severity
}

// Report accumulates the violations found during one walk.
type Report struct {
	violations []Violation
}

// Add records a violation at p with the rule's default reason.
func (r *Report) Add(p position.Position) {
	r.violations = append(r.violations, Violation{Position: p})
}

// AddReason records a violation at p with a specific reason.
func (r *Report) AddReason(p position.Position, reason string) {
	r.violations = append(r.violations, Violation{Position: p, Reason: reason})
}

// AddViolation records a fully specified violation.
func (r *Report) AddViolation(v Violation) {
	r.violations = append(r.violations, v)
}

// Len is the number of violations recorded so far.
func (r *Report) Len() int {
	return len(r.violations)
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].Position < vs[j].Position
	})
}
