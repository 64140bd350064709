// Package store persists lint runs: the SARIF log of each run and the
// gate verdict reached on it.
package store

import (
	"context"
	"errors"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// ErrNotFound is returned when a run or its verdict does not exist.
var ErrNotFound = errors.New("run not found")

// Verdict is the gate decision on one run: pass, review or reject.
type Verdict struct {
	Decision         string                 `json:"decision"`
	Reason           string                 `json:"reason"`
	RelevantFindings []sarif.Result         `json:"relevant_findings,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Store keeps lint runs addressed by an ID assigned on write. IDs sort
// chronologically.
type Store interface {
	WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error)
	WriteVerdict(ctx context.Context, runID string, verdict *Verdict) error
	ReadSARIF(ctx context.Context, id string) (*sarif.Log, error)
	ReadVerdict(ctx context.Context, runID string) (*Verdict, error)
	// List returns run IDs, newest first.
	List(ctx context.Context) ([]string, error)
	// Latest returns the newest run ID, or ErrNotFound when there is none.
	Latest(ctx context.Context) (string, error)
	// Prune keeps the newest keep runs and reports how many it removed.
	Prune(ctx context.Context, keep int) (int, error)
}
