package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is the mark a reviewer put on a finding
type Status string

const (
	StatusNone      Status = ""
	StatusConfirmed Status = "confirmed"
	StatusDismissed Status = "dismissed"
)

// State is the persisted outcome of a review session
type State struct {
	RunID      string                   `json:"run_id"`
	ReviewedAt string                   `json:"reviewed_at"`
	Reviewer   string                   `json:"reviewer,omitempty"`
	Findings   map[string]FindingReview `json:"findings"`
}

// FindingReview is the review of a single finding
type FindingReview struct {
	Status  Status `json:"status"`
	Comment string `json:"comment,omitempty"`
}

func newState(runID, reviewer string) *State {
	return &State{
		RunID:      runID,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
		Reviewer:   reviewer,
		Findings:   make(map[string]FindingReview),
	}
}

// Counts returns how many findings carry each status
func (s *State) Counts() (confirmed, dismissed int) {
	for _, f := range s.Findings {
		switch f.Status {
		case StatusConfirmed:
			confirmed++
		case StatusDismissed:
			dismissed++
		}
	}
	return confirmed, dismissed
}

// SaveState writes s to path as JSON, creating its directory.
func SaveState(s *State, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating review dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadState reads the state saved at path. A missing file is reported
// with an error matching os.ErrNotExist.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding review state %s: %w", path, err)
	}
	if s.Findings == nil {
		s.Findings = make(map[string]FindingReview)
	}
	return &s, nil
}
