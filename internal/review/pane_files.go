package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	fileItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)
)

// renderFilesPane lists the files with findings under the current filter
// and how many each has.
func (m Model) renderFilesPane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Files"))
	b.WriteString("\n\n")

	counts := m.filteredFiles()
	files := m.fileList(counts)
	if len(files) == 0 {
		b.WriteString(mutedStyle.Render("No findings"))
	}

	selected := ""
	if f, ok := m.selected(); ok {
		selected = f.URI()
	}
	inner := max(width-4, 8)
	for _, file := range files {
		count := fmt.Sprintf(" (%d)", counts[file])
		name := file
		if avail, w := max(inner-2-len(count), 4), runewidth.StringWidth(file); w > avail {
			name = runewidth.TruncateLeft(file, w-avail+1, "…")
		}
		if file == selected {
			b.WriteString(selectedFileStyle.Render("▸ " + name))
		} else {
			b.WriteString(fileItemStyle.Render(name))
		}
		b.WriteString(mutedStyle.Render(count))
		b.WriteString("\n")
	}

	return m.pane(PaneFiles, b.String(), width, height)
}

// fileList returns the files in counts, sorted
func (m Model) fileList(counts map[string]int) []string {
	files := make([]string, 0, len(counts))
	for file := range counts {
		files = append(files, file)
	}
	slices.Sort(files)
	return files
}
