// Package rules loads user-defined regex rules from YAML files and runs
// them through the lint engine.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/mallet/internal/lint"
)

type RuleCategory string

const (
	CategorySecurity        RuleCategory = "security"
	CategoryReliability     RuleCategory = "reliability"
	CategoryMaintainability RuleCategory = "maintainability"
)

// Match classes for source that is not inside a token.
const (
	MatchComment    = "comment"
	MatchWhitespace = "whitespace"
)

// Rule is a regex rule. A match is reported at its first byte when that
// byte falls in one of MatchTypes, a token type of the grammar or one of
// the trivia classes above.
type Rule struct {
	ID                 string         `yaml:"id" toml:"id"`
	Name               string         `yaml:"name" toml:"name"`
	Category           RuleCategory   `yaml:"category" toml:"category"`
	Pattern            *regexp.Regexp `yaml:"-" toml:"-"`
	RawPattern         string         `yaml:"regex" toml:"regex"`
	Languages          []string       `yaml:"languages,omitempty" toml:"languages"`
	Severity           string         `yaml:"severity" toml:"severity"`
	Message            string         `yaml:"message" toml:"message"`
	Explanation        string         `yaml:"explanation,omitempty" toml:"explanation"`
	MatchTypes         []string       `yaml:"match_types,omitempty" toml:"match_types"`
	ExcludedMatchTypes []string       `yaml:"excluded_match_types,omitempty" toml:"excluded_match_types"`
	Included           string         `yaml:"included,omitempty" toml:"included"`
	Excluded           string         `yaml:"excluded,omitempty" toml:"excluded"`

	severity lint.Severity
	included *regexp.Regexp
	excluded *regexp.Regexp
}

type RuleFile struct {
	Rules []Rule `yaml:"rules" toml:"rules"`
}

func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	seen := make(map[string]bool)
	for i := range rf.Rules {
		r := &rf.Rules[i]
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %q (index %d): %w", r.ID, i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
	}

	return &rf, nil
}

func validateRule(r *Rule) error {
	if r.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if r.RawPattern == "" {
		return fmt.Errorf("missing required field: regex")
	}
	if r.Message == "" {
		return fmt.Errorf("missing required field: message")
	}
	for _, t := range r.MatchTypes {
		if slices.Contains(r.ExcludedMatchTypes, t) {
			return fmt.Errorf("match type %q is both matched and excluded", t)
		}
	}
	return nil
}

// compile validates r and prepares its regular expressions.
func (r *Rule) compile() error {
	if err := validateRule(r); err != nil {
		return err
	}
	r.severity = lint.SeverityWarning
	if r.Severity != "" {
		sev, err := lint.ParseSeverity(r.Severity)
		if err != nil {
			return err
		}
		r.severity = sev
	}

	var err error
	if r.Pattern, err = regexp.Compile(r.RawPattern); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	if r.Included != "" {
		if r.included, err = regexp.Compile(r.Included); err != nil {
			return fmt.Errorf("invalid included pattern: %w", err)
		}
	}
	if r.Excluded != "" {
		if r.excluded, err = regexp.Compile(r.Excluded); err != nil {
			return fmt.Errorf("invalid excluded pattern: %w", err)
		}
	}
	return nil
}

// AppliesTo reports whether the rule's path filters accept path.
func (r Rule) AppliesTo(path string) bool {
	if r.included != nil && !r.included.MatchString(path) {
		return false
	}
	if r.excluded != nil && r.excluded.MatchString(path) {
		return false
	}
	return true
}

func ByCategory(rules []Rule, category RuleCategory) []Rule {
	var filtered []Rule
	for _, r := range rules {
		if r.Category == category {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Compile validates rules decoded outside a rule file, such as those
// embedded in the configuration, and returns compiled copies.
func Compile(rs []Rule) ([]Rule, error) {
	out := make([]Rule, len(rs))
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %q (index %d): %w", r.ID, i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
		out[i] = r
	}
	return out, nil
}

// Fingerprint is a stable digest of everything that changes what the
// rule reports.
func (r Rule) Fingerprint() string {
	parts := []string{
		r.ID, r.RawPattern, r.Severity, r.Message,
		strings.Join(r.Languages, ","),
		strings.Join(r.MatchTypes, ","),
		strings.Join(r.ExcludedMatchTypes, ","),
		r.Included, r.Excluded,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
