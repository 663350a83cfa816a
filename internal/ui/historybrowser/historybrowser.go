// Package historybrowser is a full-screen picker over stored snapshots.
// Choosing one loads its DDL and quits the program.
package historybrowser

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/matviewddl/internal/history"
	"github.com/sadopc/matviewddl/internal/theme"
)

const loadLimit = 200

// Store is the part of history.History the browser reads.
type Store interface {
	Recent(limit int) ([]history.Snapshot, error)
	Search(pattern string, limit int) ([]history.Snapshot, error)
	Get(id int64) (*history.Snapshot, error)
}

// Model is the snapshot browser.
type Model struct {
	store    Store
	theme    *theme.Theme
	entries  []history.Snapshot
	cursor   int
	offset   int // scroll offset
	width    int
	height   int
	search   textinput.Model
	selected *history.Snapshot
	err      error
}

// New creates a browser over store. A nil theme selects the default.
func New(store Store, th *theme.Theme) Model {
	if th == nil {
		th = theme.Default()
	}
	ti := textinput.New()
	ti.Placeholder = "Filter by connection or schema..."
	ti.Prompt = "  > "
	ti.Width = 50
	ti.Focus()

	m := Model{
		store:  store,
		theme:  th,
		search: ti,
	}
	m.loadEntries()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Selected returns the chosen snapshot with its DDL, or nil if the user
// quit without choosing.
func (m Model) Selected() *history.Snapshot { return m.selected }

// Err returns the last load error.
func (m Model) Err() error { return m.err }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				m.ensureVisible()
			}
			return m, nil
		case "pgup":
			m.cursor -= m.visibleCount()
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.ensureVisible()
			return m, nil
		case "pgdown":
			m.cursor += m.visibleCount()
			if m.cursor >= len(m.entries) {
				m.cursor = len(m.entries) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.ensureVisible()
			return m, nil
		case "enter":
			if m.cursor >= len(m.entries) || m.store == nil {
				return m, nil
			}
			snap, err := m.store.Get(m.entries[m.cursor].ID)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.selected = snap
			return m, tea.Quit
		}

		// Everything else edits the filter
		prev := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != prev {
			m.cursor = 0
			m.offset = 0
			m.loadEntries()
		}
		return m, cmd
	}

	// Non-key messages (e.g. blink)
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	th := m.theme
	w := m.contentWidth()

	title := th.PreviewTitle.Render("Snapshots")
	searchView := m.search.View()

	var lines []string
	end := m.offset + m.visibleCount()
	if end > len(m.entries) {
		end = len(m.entries)
	}
	for i := m.offset; i < end; i++ {
		line := formatEntry(m.entries[i], w-4)
		if i == m.cursor {
			lines = append(lines, th.ListSelected.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	if len(m.entries) == 0 {
		lines = append(lines, th.MutedText.Render("  No snapshots"))
	}

	footer := th.MutedText.Render(fmt.Sprintf("  %d snapshots  enter:print ddl  esc:quit  up/down:navigate", len(m.entries)))
	if m.err != nil {
		footer = th.ErrorText.Render("  " + m.err.Error())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		searchView,
		"",
		strings.Join(lines, "\n"),
		"",
		footer,
	)
	return th.PreviewBorder.Width(w).Render(content)
}

func (m Model) contentWidth() int {
	w := 100
	if m.width > 0 && w > m.width-2 {
		w = m.width - 2
	}
	return w
}

// visibleCount returns how many entries fit in the visible area.
func (m Model) visibleCount() int {
	// Title + search + two blanks + footer + border
	avail := m.height - 7
	if avail < 3 {
		avail = 3
	}
	return avail
}

func (m *Model) ensureVisible() {
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *Model) loadEntries() {
	if m.store == nil {
		m.entries = nil
		return
	}
	var err error
	if text := m.search.Value(); text != "" {
		m.entries, err = m.store.Search("%"+text+"%", loadLimit)
	} else {
		m.entries, err = m.store.Recent(loadLimit)
	}
	if err != nil {
		m.entries = nil
	}
	m.err = err
}

func formatEntry(s history.Snapshot, maxWidth int) string {
	label := s.Connection + " / " + s.Schema
	labelMax := maxWidth - 40 // leave room for metadata
	if labelMax < 10 {
		labelMax = 10
	}
	if len(label) > labelMax {
		label = label[:labelMax-3] + "..."
	}

	meta := []string{
		fmt.Sprintf("%dv %di", s.Views, s.Indexes),
		shortSum(s.Checksum),
		RelativeTime(s.ExtractedAt),
	}
	return fmt.Sprintf("%-*s  %s", labelMax, label, strings.Join(meta, " | "))
}

func shortSum(sum string) string {
	if len(sum) > 8 {
		return sum[:8]
	}
	return sum
}

// RelativeTime formats a timestamp as a human-readable relative time.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
