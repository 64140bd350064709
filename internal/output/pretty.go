package output

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
)

var (
	fileStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	summaryStyle = lipgloss.NewStyle().Bold(true)
	levelStyles  = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
	decisionStyles = map[string]lipgloss.Style{
		"pass":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		"review": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		"reject": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

// PrettyFormatter renders analysis output for an interactive terminal:
// violations grouped by file with a highlighted snippet and a caret under
// the offending column.
type PrettyFormatter struct {
	// NoColor disables styling. Color is also off when NO_COLOR is set.
	NoColor bool
	// Width truncates messages to the terminal width when positive.
	Width int
}

func (f *PrettyFormatter) color() bool {
	if f.NoColor {
		return false
	}
	_, set := os.LookupEnv("NO_COLOR")
	return !set
}

// Format produces pretty terminal output.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("pretty formatter: result is required")
	}
	color := f.color()
	paint := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	results := sortByLocation(result.Results())
	counts := make(map[string]int)

	for i, r := range results {
		uri := r.URI()
		if i == 0 || results[i-1].URI() != uri {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(paint(fileStyle, uri) + "\n")
		}
		counts[r.Level]++

		region := r.Region()
		head := fmt.Sprintf("  %d:%d ", region.StartLine, region.StartColumn)
		msg := r.Message.Text
		if f.Width > 0 {
			room := f.Width - runewidth.StringWidth(head) - runewidth.StringWidth(r.Level) - runewidth.StringWidth(r.RuleID) - 4
			if room > 3 {
				msg = runewidth.Truncate(msg, room, "...")
			}
		}
		fmt.Fprintf(&b, "%s%s %s %s\n",
			paint(lineNumStyle, head), paint(levelStyles[r.Level], r.Level), msg, paint(ruleStyle, "("+r.RuleID+")"))

		if src, ok := result.Sources[uri]; ok {
			f.writeSnippet(&b, uri, src, region.StartLine, region.StartColumn, color, paint)
		}
	}

	if len(results) == 0 {
		b.WriteString("No findings\n")
	} else {
		b.WriteString("\n")
		b.WriteString(paint(summaryStyle, fmt.Sprintf("%s, %s, %s",
			plural(counts["error"], "error"), plural(counts["warning"], "warning"), plural(counts["note"], "note"))) + "\n")
	}
	if result.Verdict != nil {
		decision := paint(decisionStyles[result.Verdict.Decision], strings.ToUpper(result.Verdict.Decision))
		fmt.Fprintf(&b, "Decision: %s  %s\n", decision, result.Verdict.Reason)
	}
	return []byte(b.String()), nil
}

func (f *PrettyFormatter) writeSnippet(b *strings.Builder, uri, src string, line, column int, color bool, paint func(lipgloss.Style, string) string) {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return
	}
	text := strings.TrimSuffix(lines[line-1], "\r")
	gutter := fmt.Sprintf("%6d | ", line)

	shown := text
	if color {
		if h, err := highlightLine(uri, text); err == nil {
			shown = h
		}
	}
	b.WriteString(paint(lineNumStyle, gutter) + shown + "\n")

	if column < 1 {
		return
	}
	fmt.Fprintf(b, "%s%s%s\n", paint(lineNumStyle, strings.Repeat(" ", len(gutter)-2)+"| "), caretIndent(text, column), paint(caretStyle, "^"))
}

// caretIndent returns the blank prefix that puts a caret under the
// code-point column of text, keeping tabs and wide characters aligned.
func caretIndent(text string, column int) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		if n >= column-1 {
			break
		}
		n++
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func highlightLine(path, line string) (string, error) {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
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

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
