package rules

import (
	_ "embed"

	"github.com/chris-regnier/mallet/internal/lint"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the custom rules shipped with mallet.
func DefaultRules() ([]Rule, error) {
	rf, err := ParseRuleFile(defaultRulesYAML)
	if err != nil {
		return nil, err
	}
	return rf.Rules, nil
}

// LintRules adapts rules for the lint engine.
func LintRules(rs []Rule) []lint.Rule {
	out := make([]lint.Rule, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
