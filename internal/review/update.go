package review

import (
	"log/slog"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.filtered())

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.save != nil {
			if err := m.save(m.State()); err != nil {
				slog.Warn("failed to save review state", "err", err)
				m.saveErr = err
			}
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		if m.activePane == PaneFiles {
			m.moveFile(1)
		} else if count > 0 {
			m.current = (m.current + 1) % count
		}

	case key.Matches(msg, m.keys.Prev):
		if m.activePane == PaneFiles {
			m.moveFile(-1)
		} else if count > 0 {
			m.current = (m.current - 1 + count) % count
		}

	case key.Matches(msg, m.keys.NextFile):
		m.moveFile(1)

	case key.Matches(msg, m.keys.PrevFile):
		m.moveFile(-1)

	case key.Matches(msg, m.keys.Confirm):
		m.mark(StatusConfirmed)

	case key.Matches(msg, m.keys.Dismiss):
		m.mark(StatusDismissed)

	case key.Matches(msg, m.keys.Unmark):
		m.mark(StatusNone)

	case key.Matches(msg, m.keys.Pane):
		m.activePane = (m.activePane + 1) % 3

	case key.Matches(msg, m.keys.Errors):
		m.setFilter(FilterErrors)

	case key.Matches(msg, m.keys.Warnings):
		m.setFilter(FilterWarnings)

	case key.Matches(msg, m.keys.All):
		m.setFilter(FilterAll)

	case key.Matches(msg, m.keys.Pending):
		m.setFilter(FilterUnreviewed)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.current = 0
}

// mark sets the status of the selected finding. Under the unreviewed
// filter the marked finding drops out, so the cursor is kept in range.
func (m *Model) mark(status Status) {
	f, ok := m.selected()
	if !ok {
		return
	}
	id := FindingID(f)
	if status == StatusNone {
		delete(m.marks, id)
	} else {
		m.marks[id] = status
	}
	if n := len(m.filtered()); m.current >= n {
		m.current = max(n-1, 0)
	}
}

// moveFile puts the cursor on the first finding of the next or previous
// file, wrapping around.
func (m *Model) moveFile(delta int) {
	filtered := m.filtered()
	if len(filtered) == 0 {
		return
	}
	var starts []int
	for i, f := range filtered {
		if i == 0 || f.URI() != filtered[i-1].URI() {
			starts = append(starts, i)
		}
	}
	file, found := slices.BinarySearch(starts, m.current)
	if !found {
		file--
	}
	file = (file + delta + len(starts)) % len(starts)
	m.current = starts[file]
}
