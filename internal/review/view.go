package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// pane draws content in a bordered box of the given outer size,
// highlighting the border of the active pane.
func (m Model) pane(p Pane, content string, width, height int) string {
	style := paneStyle
	if m.activePane == p {
		style = style.BorderForeground(lipgloss.Color("170"))
	}
	return style.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		MaxHeight(height).
		Render(content)
}

// View implements tea.Model
func (m Model) View() string {
	width, height := m.width, m.height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	header := m.renderHeader()
	footer := m.help.View(m.keys)
	if m.saveErr != nil {
		footer = fmt.Sprintf("save failed: %v\n%s", m.saveErr, footer)
	}

	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 6)
	filesWidth := max(width/4, 20)
	rightWidth := max(width-filesWidth, 20)
	codeHeight := bodyHeight * 3 / 5
	detailsHeight := bodyHeight - codeHeight

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFilesPane(filesWidth, bodyHeight),
		lipgloss.JoinVertical(lipgloss.Left,
			m.renderCodePane(rightWidth, codeHeight),
			m.renderDetailsPane(rightWidth, detailsHeight),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	filtered := m.filtered()
	var b strings.Builder
	b.WriteString(titleStyle.Render("mallet review"))
	if m.runID != "" {
		b.WriteString(mutedStyle.Render("  " + m.runID))
	}
	b.WriteString("\n")

	position := "0/0"
	if len(filtered) > 0 {
		position = fmt.Sprintf("%d/%d", m.current+1, len(filtered))
	}
	confirmed, dismissed := m.State().Counts()
	fmt.Fprintf(&b, "%s %s, %s  finding %s  filter: %s  %d confirmed, %d dismissed",
		mutedStyle.Render("Run:"),
		plural(len(m.files), "file"),
		plural(len(m.findings), "finding"),
		position, m.filter, confirmed, dismissed)
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
