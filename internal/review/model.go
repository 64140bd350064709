// Package review is an interactive terminal browser for the results of a
// stored lint run. Results can be marked as confirmed or dismissed, and
// the marks are saved beside the run.
package review

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/bubbles/help"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// Pane represents which pane is currently active
type Pane int

const (
	PaneFiles Pane = iota
	PaneCode
	PaneDetails
)

// Model is the bubbletea model of the review browser
type Model struct {
	log      *sarif.Log
	runID    string
	root     string
	findings []sarif.Result
	files    map[string][]sarif.Result
	rules    map[string]sarif.ReportingDescriptor

	current    int
	activePane Pane
	filter     Filter

	marks    map[string]Status
	sources  map[string][]string
	keys     keyMap
	help     help.Model
	save     func(*State) error
	saveErr  error
	reviewer string

	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithRoot resolves relative result paths against dir. By default the
// working directory recorded in the run is used.
func WithRoot(dir string) Option {
	return func(m *Model) { m.root = dir }
}

// WithState restores the marks of an earlier session
func WithState(s *State) Option {
	return func(m *Model) {
		if s == nil {
			return
		}
		for id, f := range s.Findings {
			if f.Status != StatusNone {
				m.marks[id] = f.Status
			}
		}
	}
}

// WithSaver sets the function that persists marks on quit
func WithSaver(save func(*State) error) Option {
	return func(m *Model) { m.save = save }
}

// WithReviewer names who made the marks
func WithReviewer(name string) Option {
	return func(m *Model) { m.reviewer = name }
}

// NewModel creates a Model over the first run of log, identified by runID
func NewModel(log *sarif.Log, runID string, opts ...Option) Model {
	m := Model{
		log:     log,
		runID:   runID,
		files:   make(map[string][]sarif.Result),
		rules:   make(map[string]sarif.ReportingDescriptor),
		marks:   make(map[string]Status),
		sources: make(map[string][]string),
		keys:    newKeyMap(),
		help:    help.New(),
	}

	if log != nil && len(log.Runs) > 0 {
		run := log.Runs[0]
		if len(run.Invocations) > 0 {
			m.root = run.Invocations[0].WorkingDirectory.URI
		}
		for _, rule := range run.Tool.Driver.Rules {
			m.rules[rule.ID] = rule
		}
		m.findings = slices.Clone(run.Results)
	}
	slices.SortStableFunc(m.findings, func(a, b sarif.Result) int {
		ra, rb := a.Region(), b.Region()
		return cmp.Or(
			cmp.Compare(a.URI(), b.URI()),
			cmp.Compare(ra.StartLine, rb.StartLine),
			cmp.Compare(ra.StartColumn, rb.StartColumn),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
	for _, f := range m.findings {
		if uri := f.URI(); uri != "" {
			m.files[uri] = append(m.files[uri], f)
		}
	}

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// FindingID identifies a result within a run
func FindingID(r sarif.Result) string {
	region := r.Region()
	return fmt.Sprintf("%s:%s:%d:%d", r.RuleID, r.URI(), region.StartLine, region.StartColumn)
}

// selected returns the finding under the cursor
func (m Model) selected() (sarif.Result, bool) {
	filtered := m.filtered()
	if m.current < 0 || m.current >= len(filtered) {
		return sarif.Result{}, false
	}
	return filtered[m.current], true
}

// path resolves a result URI to a file on disk
func (m Model) path(uri string) string {
	if filepath.IsAbs(uri) || m.root == "" {
		return uri
	}
	return filepath.Join(m.root, uri)
}

// State returns the marks of this session
func (m Model) State() *State {
	s := newState(m.runID, m.reviewer)
	for id, status := range m.marks {
		s.Findings[id] = FindingReview{Status: status}
	}
	return s
}

// SaveErr reports the error of the save made on quit, if any
func (m Model) SaveErr() error {
	return m.saveErr
}
