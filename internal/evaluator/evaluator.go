// Package evaluator runs a rego gate policy over a SARIF log and reaches
// a verdict: pass, review or reject.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"

	"github.com/chris-regnier/mallet/internal/sarif"
	"github.com/chris-regnier/mallet/internal/store"
)

//go:embed default.rego
var defaultPolicy string

const query = "data.mallet.gate.decision"

// Decisions reached by the gate.
const (
	DecisionPass   = "pass"
	DecisionReview = "review"
	DecisionReject = "reject"
)

type Evaluator struct {
	query  rego.PreparedEvalQuery
	strict bool
}

// Option configures an Evaluator.
type Option func(*settings)

type settings struct {
	strict bool
}

// WithStrict makes warnings reject like errors. The policy reads it as
// data.mallet.settings.strict.
func WithStrict(strict bool) Option {
	return func(s *settings) { s.strict = strict }
}

// NewEvaluator creates an evaluator. If policyDir is empty, uses the default policy.
// If policyDir holds .rego files, they replace the default; they must
// define data.mallet.gate.decision.
func NewEvaluator(policyDir string, opts ...Option) (*Evaluator, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	modules, err := loadPolicies(policyDir)
	if err != nil {
		return nil, err
	}

	args := []func(*rego.Rego){
		rego.Query(query),
		rego.Store(inmem.NewFromObject(map[string]interface{}{
			"mallet": map[string]interface{}{
				"settings": map[string]interface{}{"strict": s.strict},
			},
		})),
	}
	for name, src := range modules {
		args = append(args, rego.Module(name, src))
	}

	prepared, err := rego.New(args...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}

	return &Evaluator{query: prepared, strict: s.strict}, nil
}

func loadPolicies(policyDir string) (map[string]string, error) {
	defaults := map[string]string{"default.rego": defaultPolicy}
	if policyDir == "" {
		return defaults, nil
	}
	entries, err := os.ReadDir(policyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading policy dir: %w", err)
	}
	custom := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rego") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(policyDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading policy %s: %w", e.Name(), err)
		}
		custom[e.Name()] = string(data)
	}
	if len(custom) == 0 {
		return defaults, nil
	}
	return custom, nil
}

func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*store.Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := DecisionReview
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if d, ok := results[0].Expressions[0].Value.(string); ok {
			decision = d
		}
	}

	counts := sarif.Counts(log)
	var relevant []sarif.Result
	for _, run := range log.Runs {
		for _, r := range run.Results {
			if e.relevant(decision, r.Level) {
				relevant = append(relevant, r)
			}
		}
	}

	return &store.Verdict{
		Decision: decision,
		Reason: fmt.Sprintf("Decision: %s based on %d errors and %d warnings",
			decision, counts["error"], counts["warning"]),
		RelevantFindings: relevant,
		Metadata: map[string]interface{}{
			"errors":   counts["error"],
			"warnings": counts["warning"],
			"strict":   e.strict,
		},
	}, nil
}

func (e *Evaluator) relevant(decision, level string) bool {
	switch decision {
	case DecisionReject:
		return level == "error" || (e.strict && level == "warning")
	case DecisionReview:
		return level == "error" || level == "warning"
	}
	return false
}

// ExitCode maps a decision to the process exit status. Only a rejection
// fails the run; 1 is left for usage and runtime errors.
func ExitCode(decision string) int {
	if decision == DecisionReject {
		return 2
	}
	return 0
}
