// Package lint defines rules and the engine that runs them over a syntax
// tree: a visitor that collects violations and a rewriter that applies
// corrections, both honouring the disabled regions of the file.
package lint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSeverity is returned when parsing an unknown severity name.
var ErrInvalidSeverity = errors.New("invalid severity")

// Severity of a violation. The zero value defers to the rule's default.
type Severity uint8

const (
	SeverityDefault Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "default"
}

// ParseSeverity accepts "warning" and "error", case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityDefault, fmt.Errorf("%w: %q (want warning or error)", ErrInvalidSeverity, s)
}

// Or returns s unless it is the default, in which case it returns fallback.
func (s Severity) Or(fallback Severity) Severity {
	if s == SeverityDefault {
		return fallback
	}
	return s
}

// Kind groups rules in listings.
type Kind string

const (
	KindLint        Kind = "lint"
	KindStyle       Kind = "style"
	KindMetrics     Kind = "metrics"
	KindIdiomatic   Kind = "idiomatic"
	KindPerformance Kind = "performance"
)

// Example is a source snippet used to document and test a rule. A ↓
// marks each offset where a violation is expected.
type Example struct {
	Code     string
	Language string
	// Config holds rule options to apply before running the example.
	Config map[string]interface{}
}

// CorrectionExample pairs a snippet with its expected corrected form.
type CorrectionExample struct {
	Before Example
	After  string
}

// Description is the immutable identity and documentation of a rule.
type Description struct {
	ID      string
	Name    string
	Summary string
	Kind    Kind

	// Severity is the default severity of the rule's violations.
	Severity Severity
	// Languages restricts the rule; empty means every language.
	Languages []string
	// OptIn rules are disabled unless configuration enables them.
	OptIn bool

	NonTriggering []Example
	Triggering    []Example
	Corrections   []CorrectionExample
}

// Supports reports whether the rule runs on files of the given language.
func (d Description) Supports(language string) bool {
	if len(d.Languages) == 0 {
		return true
	}
	for _, l := range d.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// Rule inspects a file through a visitor. Visitor is called once per file
// and run; any state the visitor keeps is local to that walk.
type Rule interface {
	Description() Description
	Visitor(f *File) *Visitor
}

// CorrectableRule can also rewrite the nodes it reports.
type CorrectableRule interface {
	Rule
	Rewriter(f *File) *Rewriter
}

// Configurable rules accept options from configuration and return a
// configured copy of themselves.
type Configurable interface {
	Rule
	Configure(options map[string]interface{}) (Rule, error)
}
