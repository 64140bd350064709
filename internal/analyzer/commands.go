package analyzer

import (
	"fmt"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/region"
)

// Rule IDs of the checks the analyzer runs on the disable commands
// themselves.
const (
	SuperfluousDisableCommand = "superfluous_disable_command"
	InvalidCommand            = "invalid_command"
)

var commandRules = []lint.Description{
	{
		ID:       SuperfluousDisableCommand,
		Name:     "Superfluous Disable Command",
		Summary:  "Disable commands are superfluous when the disabled rule would not have triggered a violation in the disabled region",
		Kind:     lint.KindLint,
		Severity: lint.SeverityWarning,
		NonTriggering: []lint.Example{
			{Code: "// mallet:disable:next trailing_whitespace\nlet a = 1 \n", Language: "swift"},
		},
		Triggering: []lint.Example{
			{Code: "↓// mallet:disable:next trailing_whitespace\nlet a = 1\n", Language: "swift"},
		},
	},
	{
		ID:       InvalidCommand,
		Name:     "Invalid Command",
		Summary:  "mallet commands should be well formed",
		Kind:     lint.KindLint,
		Severity: lint.SeverityWarning,
		NonTriggering: []lint.Example{
			{Code: "// mallet:disable:next trailing_whitespace\n", Language: "swift"},
		},
		Triggering: []lint.Example{
			{Code: "↓// mallet:disable:nxt trailing_whitespace\n", Language: "swift"},
		},
	},
}

func isCommandRule(id string) bool {
	return id == SuperfluousDisableCommand || id == InvalidCommand
}

type commandRule struct {
	at   position.Position
	rule string
}

// commandViolations reports disable commands that suppressed nothing and
// commands that could not be parsed. ran holds the rules that were run on
// the file; suppressed are the violations the regions hid.
func (a *Analyzer) commandViolations(f *lint.File, ran map[string]bool, suppressed []lint.Violation) []lint.Violation {
	var out []lint.Violation

	if a.enabled(InvalidCommand) {
		for _, cmd := range f.Regions.Invalid() {
			if f.Regions.Contains(cmd.Position, InvalidCommand) {
				continue
			}
			out = append(out, lint.Violation{
				Rule:     InvalidCommand,
				Position: cmd.Position,
				Reason:   fmt.Sprintf("Invalid mallet command %q", cmd.Raw),
			})
		}
	}

	if !a.enabled(SuperfluousDisableCommand) {
		return out
	}

	used := make(map[commandRule]bool)
	regions := f.Regions.Regions()
	for _, v := range suppressed {
		for _, r := range regions {
			if r.Contains(v.Position) && (r.Rule == v.Rule || r.Rule == region.All) {
				used[commandRule{r.Command.Position, r.Rule}] = true
			}
		}
	}

	for _, cmd := range f.Regions.Commands() {
		if cmd.Action != region.Disable {
			continue
		}
		if f.Regions.Contains(cmd.Position, SuperfluousDisableCommand) {
			continue
		}
		for _, rule := range cmd.Rules {
			if rule == region.All || isCommandRule(rule) {
				continue
			}
			if _, known := a.known[rule]; !known {
				out = append(out, lint.Violation{
					Rule:     SuperfluousDisableCommand,
					Position: cmd.Position,
					Reason:   fmt.Sprintf("'%s' is not a valid mallet rule; remove it from the disable command", rule),
				})
				continue
			}
			if !ran[rule] || used[commandRule{cmd.Position, rule}] {
				continue
			}
			out = append(out, lint.Violation{
				Rule:     SuperfluousDisableCommand,
				Position: cmd.Position,
				Reason:   fmt.Sprintf("mallet rule '%s' did not trigger a violation in the disabled region; remove the disable command", rule),
			})
		}
	}
	return out
}
