// Package app implements the interactive DDL preview: a scrollable,
// highlighted pager over one schema's extracted statements.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/extract"
	"github.com/sadopc/matviewddl/internal/highlight"
	appmsg "github.com/sadopc/matviewddl/internal/msg"
	"github.com/sadopc/matviewddl/internal/theme"
	"github.com/sadopc/matviewddl/internal/ui/statusbar"
)

// Source describes what the preview extracts.
type Source struct {
	Schema   string
	Database string
	Adapter  string
	Load     func(ctx context.Context) (*extract.Result, error)
}

// Model is the preview application model.
type Model struct {
	width  int
	height int

	viewport  viewport.Model
	statusbar statusbar.Model
	help      help.Model
	spinner   spinner.Model

	theme       *theme.Theme
	highlighter *highlight.Highlighter
	keyMap      KeyMap
	keyMode     appmsg.KeyMode

	src        Source
	result     *extract.Result
	err        error
	cancelFunc context.CancelFunc

	loading  bool
	showHelp bool
	quitting bool
}

// New creates a preview model for src using the theme and key mode from cfg.
func New(cfg *config.Config, src Source) Model {
	keyMode := appmsg.ParseKeyMode(cfg.KeyMode)
	km := StandardKeyMap()
	if keyMode == appmsg.KeyModeVim {
		km = VimKeyMap()
	}
	th := theme.Get(cfg.Theme)

	s := spinner.New()
	s.Spinner = spinner.Dot

	vp := viewport.New(0, 0)
	vp.KeyMap.Up = km.Up
	vp.KeyMap.Down = km.Down
	vp.KeyMap.PageUp = km.PageUp
	vp.KeyMap.PageDown = km.PageDown
	vp.KeyMap.HalfPageUp = key.NewBinding(key.WithDisabled())
	vp.KeyMap.HalfPageDown = key.NewBinding(key.WithDisabled())

	sb := statusbar.New(th)
	sb.SetKeyMode(keyMode)

	return Model{
		viewport:    vp,
		statusbar:   sb,
		help:        help.New(),
		spinner:     s,
		theme:       th,
		highlighter: highlight.New(),
		keyMap:      km,
		keyMode:     keyMode,
		src:         src,
	}
}

// Init starts the first extraction.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return appmsg.ExtractStartedMsg{Schema: m.src.Schema} },
	)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.quitting = true
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Help):
			m.showHelp = !m.showHelp
			m.updateLayout()
			return m, nil

		case key.Matches(msg, m.keyMap.Refresh):
			if m.loading {
				return m, nil
			}
			return m, func() tea.Msg { return appmsg.ExtractStartedMsg{Schema: m.src.Schema} }

		case key.Matches(msg, m.keyMap.Top):
			m.viewport.GotoTop()
			m.statusbar, _ = m.statusbar.Update(appmsg.ScrollMsg{Percent: m.viewport.ScrollPercent()})
			return m, nil

		case key.Matches(msg, m.keyMap.Bottom):
			m.viewport.GotoBottom()
			m.statusbar, _ = m.statusbar.Update(appmsg.ScrollMsg{Percent: m.viewport.ScrollPercent()})
			return m, nil
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.statusbar, _ = m.statusbar.Update(appmsg.ScrollMsg{Percent: m.viewport.ScrollPercent()})

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.statusbar, _ = m.statusbar.Update(appmsg.ScrollMsg{Percent: m.viewport.ScrollPercent()})

	case appmsg.ExtractStartedMsg:
		m.loading = true
		m.err = nil
		m.statusbar, _ = m.statusbar.Update(msg)
		cmds = append(cmds, m.extractCmd(), m.spinner.Tick)

	case appmsg.ExtractedMsg:
		m.loading = false
		m.cancelFunc = nil
		m.result = msg.Result
		m.statusbar, _ = m.statusbar.Update(msg)
		m.setContent()

	case appmsg.ExtractErrMsg:
		m.loading = false
		m.cancelFunc = nil
		m.err = msg.Err
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(msg)
		cmds = append(cmds, cmd)
		m.setContent()

	case appmsg.StatusMsg, statusbar.ClearStatusMsg:
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// extractCmd runs the source's extraction off the UI goroutine.
func (m *Model) extractCmd() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	src := m.src
	return func() tea.Msg {
		defer cancel()
		if src.Load == nil {
			return appmsg.ExtractErrMsg{Err: fmt.Errorf("preview: no extraction source")}
		}
		res, err := src.Load(ctx)
		if err != nil {
			return appmsg.ExtractErrMsg{Err: err}
		}
		return appmsg.ExtractedMsg{Result: res, Database: src.Database, Adapter: src.Adapter}
	}
}

func (m *Model) setContent() {
	switch {
	case m.err != nil:
		m.viewport.SetContent(m.theme.ErrorText.Render("-- extraction failed: " + m.err.Error()))
	case m.result == nil:
		m.viewport.SetContent("")
	case len(m.result.Statements) == 0:
		m.viewport.SetContent(m.theme.MutedText.Render(
			fmt.Sprintf("-- no materialized views in schema %q", m.result.Schema)))
	default:
		m.viewport.SetContent(m.highlighter.Highlight(m.result.DDL(), m.theme))
	}
	m.viewport.GotoTop()
	m.statusbar, _ = m.statusbar.Update(appmsg.ScrollMsg{Percent: m.viewport.ScrollPercent()})
}

func (m *Model) updateLayout() {
	m.help.ShowAll = m.showHelp
	m.statusbar.SetSize(m.width)

	helpH := lipgloss.Height(m.help.View(m.keyMap))
	// title + border (top and bottom) + status bar
	h := m.height - 1 - 2 - 1 - helpH
	if h < 1 {
		h = 1
	}
	w := m.width - 2
	if w < 1 {
		w = 1
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// View renders the preview.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	title := m.theme.PreviewTitle.Render(fmt.Sprintf("schema %q", m.src.Schema))
	if m.loading {
		title += " " + m.spinner.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.theme.PreviewBorder.Render(m.viewport.View()),
		m.statusbar.View(),
		m.help.View(m.keyMap),
	)
}

// Result returns the most recent successful extraction, if any.
func (m Model) Result() *extract.Result {
	return m.result
}
