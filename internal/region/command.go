// Package region resolves in-source mallet commands into the ranges of a
// file where individual rules are switched off.
package region

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris-regnier/mallet/internal/position"
)

// Prefix introduces a command inside a comment.
const Prefix = "mallet:"

// All is the identifier that addresses every rule.
const All = "all"

// Action says whether a command switches rules off or back on.
type Action uint8

const (
	InvalidAction Action = iota
	Disable
	Enable
)

func (a Action) String() string {
	switch a {
	case Disable:
		return "disable"
	case Enable:
		return "enable"
	}
	return "invalid"
}

func (a Action) inverse() Action {
	if a == Disable {
		return Enable
	}
	return Disable
}

// Modifier narrows a command to a single line.
type Modifier uint8

const (
	ModifierNone Modifier = iota
	Previous
	This
	Next
	InvalidModifier
)

func (m Modifier) String() string {
	switch m {
	case ModifierNone:
		return ""
	case Previous:
		return "previous"
	case This:
		return "this"
	case Next:
		return "next"
	}
	return "invalid"
}

// Command is one parsed marker such as
//
//	// mallet:disable:next closing_brace trailing_whitespace - reason
type Command struct {
	Action   Action
	Modifier Modifier
	// Rules is sorted and free of duplicates.
	Rules []string
	// Trailing is the free text after " - ".
	Trailing string
	// Position is the start of the comment that holds the command.
	Position position.Position
	Line     int
	Raw      string
}

// Valid reports whether the command names a known action, a known
// modifier and at least one rule.
func (c Command) Valid() bool {
	return c.Action != InvalidAction && c.Modifier != InvalidModifier && len(c.Rules) > 0
}

// Applies reports whether the command addresses rule, directly or via all.
func (c Command) Applies(rule string) bool {
	for _, r := range c.Rules {
		if r == rule || r == All {
			return true
		}
	}
	return false
}

func (c Command) String() string {
	s := Prefix + c.Action.String()
	if c.Modifier != ModifierNone {
		s += ":" + c.Modifier.String()
	}
	return fmt.Sprintf("%s %s", s, strings.Join(c.Rules, " "))
}

// FindCommand locates a command in comment text. It returns false when
// the comment holds no command prefix at all; a prefix followed by
// nonsense yields an invalid command.
func FindCommand(comment string) (Command, int, bool) {
	i := strings.Index(comment, Prefix)
	if i < 0 {
		return Command{}, 0, false
	}
	return ParseCommand(comment[i:]), i, true
}

// ParseCommand parses text that starts with Prefix.
func ParseCommand(text string) Command {
	cmd := Command{Raw: strings.TrimSpace(text)}
	body := strings.TrimPrefix(text, Prefix)

	if i := strings.Index(body, " - "); i >= 0 {
		cmd.Trailing = strings.TrimSpace(body[i+3:])
		body = body[:i]
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return cmd
	}

	actionPart, modifierPart, hasModifier := strings.Cut(fields[0], ":")
	switch actionPart {
	case "disable":
		cmd.Action = Disable
	case "enable":
		cmd.Action = Enable
	}
	if hasModifier {
		switch modifierPart {
		case "previous":
			cmd.Modifier = Previous
		case "this":
			cmd.Modifier = This
		case "next":
			cmd.Modifier = Next
		default:
			cmd.Modifier = InvalidModifier
		}
	}

	seen := make(map[string]bool)
	for _, f := range fields[1:] {
		f = strings.TrimSuffix(f, "*/")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		cmd.Rules = append(cmd.Rules, f)
	}
	sort.Strings(cmd.Rules)
	return cmd
}
