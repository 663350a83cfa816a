package statusbar

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmsg "github.com/sadopc/matviewddl/internal/msg"
	"github.com/sadopc/matviewddl/internal/theme"
)

// ClearStatusMsg is sent after a timeout to clear a transient message. Gen
// identifies the message it belongs to so a stale timer cannot clear a newer
// message.
type ClearStatusMsg struct {
	Gen uint64
}

// Model is the status bar component of the preview pager.
type Model struct {
	theme        *theme.Theme
	width        int
	adapterName  string
	databaseName string
	schemaName   string
	views        int
	indexes      int
	duration     time.Duration
	scroll       float64
	keyMode      appmsg.KeyMode
	message      string
	isError      bool
	loaded       bool
	gen          uint64
}

// New creates a new status bar rendered with th.
func New(th *theme.Theme) Model {
	if th == nil {
		th = theme.Default()
	}
	return Model{theme: th, keyMode: appmsg.KeyModeStandard}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	clearAfter := func() tea.Cmd {
		m.gen++
		gen := m.gen
		return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return ClearStatusMsg{Gen: gen}
		})
	}

	switch msg := msg.(type) {
	case appmsg.ExtractStartedMsg:
		m.schemaName = msg.Schema
		m.message = "extracting"
		m.isError = false

	case appmsg.ExtractedMsg:
		m.adapterName = msg.Adapter
		m.databaseName = msg.Database
		if msg.Result != nil {
			m.schemaName = msg.Result.Schema
			m.views = msg.Result.Views
			m.indexes = msg.Result.Indexes
			m.duration = msg.Result.Duration
		}
		m.loaded = true
		m.message = ""
		m.isError = false

	case appmsg.ExtractErrMsg:
		if msg.Err != nil {
			m.message = msg.Err.Error()
		} else {
			m.message = "unknown error"
		}
		m.isError = true
		cmd := clearAfter()
		return m, cmd

	case appmsg.StatusMsg:
		m.message = msg.Text
		m.isError = msg.IsError
		cmd := clearAfter()
		return m, cmd

	case appmsg.ScrollMsg:
		m.scroll = msg.Percent

	case ClearStatusMsg:
		if msg.Gen != m.gen {
			break
		}
		m.message = ""
		m.isError = false
	}

	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	th := m.theme

	left := th.StatusBarKey.Render(" " + m.schemaName + " ")
	if m.databaseName != "" {
		left = th.StatusBarKey.Render(fmt.Sprintf(" %s://%s/%s ", m.adapterName, m.databaseName, m.schemaName))
	}

	var center string
	switch {
	case m.message != "" && m.isError:
		center = th.StatusBarError.Render(" " + truncate(m.message, m.width/2) + " ")
	case m.message != "":
		center = th.StatusBarSuccess.Render(" " + m.message + " ")
	case m.loaded:
		center = th.StatusBarValue.Render(fmt.Sprintf(" %s ", plural(m.views, "view"))) +
			th.StatusBarValue.Render(fmt.Sprintf(" %s ", plural(m.indexes, "index"))) +
			th.StatusBarValue.Render(fmt.Sprintf(" %s ", formatDuration(m.duration)))
	}

	right := th.StatusBarKey.Render(fmt.Sprintf(" %s ", m.keyMode)) +
		th.StatusBarValue.Render(fmt.Sprintf(" %3.0f%% ", m.scroll*100))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	leftGap := gap / 2
	rightGap := gap - leftGap

	bar := left +
		th.StatusBar.Render(strings.Repeat(" ", leftGap)) +
		center +
		th.StatusBar.Render(strings.Repeat(" ", rightGap)) +
		right

	return th.StatusBar.Width(m.width).Render(bar)
}

// SetSize sets the status bar width.
func (m *Model) SetSize(width int) {
	m.width = width
}

// SetKeyMode sets the key mode shown on the right.
func (m *Model) SetKeyMode(mode appmsg.KeyMode) {
	m.keyMode = mode
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "x") {
		return fmt.Sprintf("%d %ses", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
