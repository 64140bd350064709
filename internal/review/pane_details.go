package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	levelStyles = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}

	statusStyles = map[Status]lipgloss.Style{
		StatusConfirmed: lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		StatusDismissed: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
	}
)

// renderDetailsPane describes the selected finding and its rule
func (m Model) renderDetailsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Details"))
	b.WriteString("\n")

	f, ok := m.selected()
	if !ok {
		b.WriteString("\nNo findings to display")
		return m.pane(PaneDetails, b.String(), width, height)
	}

	level := f.Level
	if level == "" {
		level = "warning"
	}
	fmt.Fprintf(&b, "%s  %s", levelStyles[level].Render(strings.ToUpper(level)), f.RuleID)
	if status := m.marks[FindingID(f)]; status != StatusNone {
		fmt.Fprintf(&b, "  %s", statusStyles[status].Render(string(status)))
	}
	b.WriteString("\n")

	var md strings.Builder
	if f.Message.Text != "" {
		md.WriteString(f.Message.Text)
		md.WriteString("\n\n")
	}
	if rule, ok := m.rules[f.RuleID]; ok {
		if rule.Name != "" {
			fmt.Fprintf(&md, "**%s**", rule.Name)
			if rule.ShortDescription.Text != "" {
				md.WriteString(": ")
			}
		}
		md.WriteString(rule.ShortDescription.Text)
		md.WriteString("\n")
	}

	text := md.String()
	if rendered, err := renderMarkdown(text, max(width-4, 20)); err == nil {
		text = rendered
	}
	b.WriteString(text)

	return m.pane(PaneDetails, b.String(), width, height)
}

// renderMarkdown renders markdown text using glamour
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
