package review

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

var (
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)

	targetLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			Width(5).
			Align(lipgloss.Right)

	caretStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// renderCodePane shows the source around the selected finding
func (m Model) renderCodePane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Code"))
	b.WriteString("\n")

	f, ok := m.selected()
	switch {
	case !ok:
		b.WriteString("\nNo findings to display")
	case f.URI() == "":
		b.WriteString("\nNo location information")
	default:
		region := f.Region()
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("%s:%d:%d", f.URI(), region.StartLine, region.StartColumn)))
		around := max((height-6)/2, 1)
		b.WriteString(m.codeWithContext(m.path(f.URI()), region.StartLine, region.StartColumn, around))
	}

	return m.pane(PaneCode, b.String(), width, height)
}

// source returns the lines of path, read once per session
func (m Model) source(path string) ([]string, error) {
	if lines, ok := m.sources[path]; ok {
		return lines, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	m.sources[path] = lines
	return lines, nil
}

// codeWithContext renders up to around lines either side of line, with a
// caret under column.
func (m Model) codeWithContext(path string, line, column, around int) string {
	lines, err := m.source(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	if line < 1 || line > len(lines) {
		return "Line out of range"
	}

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	color := lipgloss.ColorProfile() != termenv.Ascii

	start := max(line-around, 1)
	end := min(line+around, len(lines))
	var b strings.Builder
	for i := start; i <= end; i++ {
		text := strings.ReplaceAll(lines[i-1], "\t", "    ")
		if color {
			if highlighted, err := highlightLine(text, lexer); err == nil {
				text = highlighted
			}
		}
		num := lineNumberStyle.Render(fmt.Sprint(i))
		if i == line {
			num = targetLineStyle.Render(fmt.Sprint(i))
		}
		fmt.Fprintf(&b, "%s │ %s\n", num, text)
		if i == line && column > 0 {
			fmt.Fprintf(&b, "%5s │ %s%s\n", "", strings.Repeat(" ", caretOffset(lines[i-1], column)), caretStyle.Render("^"))
		}
	}
	return b.String()
}

// caretOffset is the display width of line before the one-based code
// point column, with tabs expanded to four spaces.
func caretOffset(line string, column int) int {
	width, n := 0, 1
	for _, r := range line {
		if n >= column {
			break
		}
		if r == '\t' {
			width += 4
		} else {
			width += runewidth.RuneWidth(r)
		}
		n++
	}
	return width
}

// highlightLine applies syntax highlighting to a single line of code
func highlightLine(line string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	var b strings.Builder
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
