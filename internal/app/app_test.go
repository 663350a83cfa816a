package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/matviewddl/internal/catalog/catalogtest"
	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/extract"
	appmsg "github.com/sadopc/matviewddl/internal/msg"
)

func newTestSource() Source {
	cat := catalogtest.New()
	cat.AddView("public", "sales_summary", "SELECT region, sum(amount) AS total FROM sales GROUP BY region")
	cat.AddIndex("public", "sales_summary", "idx_region", true, "region")
	return Source{
		Schema:   "public",
		Database: cat.DatabaseName(),
		Adapter:  cat.AdapterName(),
		Load: func(ctx context.Context) (*extract.Result, error) {
			return extract.Run(ctx, cat, "public")
		},
	}
}

// update runs msg through m and returns the concrete model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return got, cmd
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()
	m := New(cfg, newTestSource())

	if m.keyMode != appmsg.KeyModeStandard {
		t.Errorf("keyMode = %v, want standard", m.keyMode)
	}
	if m.theme == nil || m.theme.Name != "default" {
		t.Errorf("theme = %v, want default", m.theme)
	}
	if m.loading {
		t.Error("loading should be false before Init")
	}
}

func TestNew_VimMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.KeyMode = "vim"
	cfg.Theme = "monokai"
	m := New(cfg, newTestSource())

	if m.keyMode != appmsg.KeyModeVim {
		t.Errorf("keyMode = %v, want vim", m.keyMode)
	}
	if !containsKey(m.keyMap.Down, "j") {
		t.Error("vim key map should bind j to Down")
	}
	if m.theme.Name != "monokai" {
		t.Errorf("theme = %q, want monokai", m.theme.Name)
	}
}

func TestInit(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init() should start an extraction")
	}
}

func TestExtractCmd(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())

	msg := m.extractCmd()()
	got, ok := msg.(appmsg.ExtractedMsg)
	if !ok {
		t.Fatalf("extractCmd() produced %T, want ExtractedMsg", msg)
	}
	if got.Result == nil || got.Result.Views != 1 || got.Result.Indexes != 1 {
		t.Fatalf("unexpected result %+v", got.Result)
	}
	if got.Database != "fakedb" || got.Adapter != "fake" {
		t.Errorf("connection info = %q %q", got.Adapter, got.Database)
	}
}

func TestExtractCmd_Error(t *testing.T) {
	src := newTestSource()
	src.Load = func(context.Context) (*extract.Result, error) {
		return nil, errors.New("boom")
	}
	m := New(config.DefaultConfig(), src)

	msg := m.extractCmd()()
	got, ok := msg.(appmsg.ExtractErrMsg)
	if !ok {
		t.Fatalf("extractCmd() produced %T, want ExtractErrMsg", msg)
	}
	if got.Err == nil || got.Err.Error() != "boom" {
		t.Errorf("Err = %v, want boom", got.Err)
	}
}

func TestExtractCmd_NoLoader(t *testing.T) {
	m := New(config.DefaultConfig(), Source{Schema: "public"})

	if _, ok := m.extractCmd()().(appmsg.ExtractErrMsg); !ok {
		t.Fatal("expected ExtractErrMsg without a loader")
	}
}

func TestUpdate_ExtractionLifecycle(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := update(t, m, appmsg.ExtractStartedMsg{Schema: "public"})
	if !m.loading {
		t.Fatal("loading should be true after ExtractStartedMsg")
	}
	if cmd == nil {
		t.Fatal("expected extraction command")
	}

	res, err := m.src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m, _ = update(t, m, appmsg.ExtractedMsg{Result: res, Database: "fakedb", Adapter: "fake"})
	if m.loading {
		t.Error("loading should be false after ExtractedMsg")
	}
	if m.Result() != res {
		t.Error("Result() should return the extracted result")
	}

	view := m.View()
	for _, want := range []string{"CREATE MATERIALIZED VIEW", `"sales_summary"`, "idx_region", "fake://fakedb/public"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestUpdate_ExtractErr(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, appmsg.ExtractStartedMsg{Schema: "public"})
	m, _ = update(t, m, appmsg.ExtractErrMsg{Err: errors.New("catalog unavailable")})

	if m.loading {
		t.Error("loading should be false after ExtractErrMsg")
	}
	if !strings.Contains(m.View(), "catalog unavailable") {
		t.Error("view should show the extraction error")
	}
}

func TestUpdate_EmptySchema(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, appmsg.ExtractedMsg{Result: &extract.Result{Schema: "empty"}})

	if !strings.Contains(m.View(), `no materialized views in schema "empty"`) {
		t.Error("view should explain that the schema is empty")
	}
}

func TestUpdate_RefreshIgnoredWhileLoading(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m.loading = true

	_, cmd := update(t, m, keyMsgFromString("f5"))
	if cmd != nil {
		t.Error("refresh while loading should not start another extraction")
	}
}

func TestUpdate_Refresh(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())

	_, cmd := update(t, m, keyMsgFromString("f5"))
	if cmd == nil {
		t.Fatal("refresh should return a command")
	}
	if _, ok := cmd().(appmsg.ExtractStartedMsg); !ok {
		t.Error("refresh command should emit ExtractStartedMsg")
	}
}

func TestUpdate_HelpToggle(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	before := m.viewport.Height

	m, _ = update(t, m, keyMsgFromString("f1"))
	if !m.showHelp {
		t.Fatal("f1 should show full help")
	}
	if m.viewport.Height >= before {
		t.Errorf("viewport height = %d, want less than %d with full help", m.viewport.Height, before)
	}

	m, _ = update(t, m, keyMsgFromString("?"))
	if m.showHelp {
		t.Error("? should hide full help")
	}
}

func TestUpdate_Quit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+q", "ctrl+c", "esc"} {
		t.Run(k, func(t *testing.T) {
			m := New(config.DefaultConfig(), newTestSource())
			m, cmd := update(t, m, keyMsgFromString(k))
			if !m.quitting {
				t.Error("quitting should be true")
			}
			if cmd == nil {
				t.Fatal("expected tea.Quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected QuitMsg")
			}
		})
	}
}

func TestView_BeforeWindowSize(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	if view := m.View(); view != "Loading..." {
		t.Errorf("View() before WindowSize = %q, want %q", view, "Loading...")
	}
}

func TestView_Quitting(t *testing.T) {
	m := New(config.DefaultConfig(), newTestSource())
	m.quitting = true
	if view := m.View(); view != "" {
		t.Errorf("View() when quitting = %q, want empty", view)
	}
}

// keyMsgFromString creates a tea.KeyMsg from a string representation.
func keyMsgFromString(s string) tea.KeyMsg {
	if len(s) == 1 && s[0] >= 32 && s[0] <= 126 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+q":
		return tea.KeyMsg{Type: tea.KeyCtrlQ}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "f5":
		return tea.KeyMsg{Type: tea.KeyF5}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
