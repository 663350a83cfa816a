package historybrowser

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/matviewddl/internal/history"
)

type fakeStore struct {
	snaps   []history.Snapshot
	pattern string
}

func (f *fakeStore) Recent(limit int) ([]history.Snapshot, error) {
	return f.snaps, nil
}

func (f *fakeStore) Search(pattern string, limit int) ([]history.Snapshot, error) {
	f.pattern = pattern
	needle := strings.Trim(pattern, "%")
	var out []history.Snapshot
	for _, s := range f.snaps {
		if strings.Contains(s.Connection, needle) || strings.Contains(s.Schema, needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(id int64) (*history.Snapshot, error) {
	for _, s := range f.snaps {
		if s.ID == id {
			s.DDL = "-- ddl of " + s.Schema
			return &s, nil
		}
	}
	return nil, history.ErrNotFound
}

func newFake() *fakeStore {
	now := time.Now()
	return &fakeStore{snaps: []history.Snapshot{
		{ID: 3, Connection: "warehouse", Schema: "analytics", Views: 2, Indexes: 3, Checksum: "abcdef0123", ExtractedAt: now},
		{ID: 2, Connection: "warehouse", Schema: "billing", Views: 1, ExtractedAt: now.Add(-time.Hour)},
		{ID: 1, Connection: "staging", Schema: "analytics", ExtractedAt: now.Add(-48 * time.Hour)},
	}}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNilStore(t *testing.T) {
	m := New(nil, nil)
	if len(m.entries) != 0 {
		t.Fatalf("expected 0 entries with nil store, got %d", len(m.entries))
	}

	// Should not panic on Update
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(updated.View(), "No snapshots") {
		t.Error("expected empty-state text")
	}
}

func TestEnterSelectsSnapshot(t *testing.T) {
	m := New(newFake(), nil)
	if len(m.entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(m.entries))
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command from enter")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", cmd())
	}

	sel := updated.(Model).Selected()
	if sel == nil {
		t.Fatal("expected a selected snapshot")
	}
	if sel.ID != 2 || sel.DDL != "-- ddl of billing" {
		t.Errorf("selected = %+v", sel)
	}
}

func TestFilterUsesSearch(t *testing.T) {
	store := newFake()
	var model tea.Model = New(store, nil)
	for _, r := range "stag" {
		model, _ = model.Update(key(string(r)))
	}
	m := model.(Model)
	if store.pattern != "%stag%" {
		t.Errorf("search pattern = %q, want %%stag%%", store.pattern)
	}
	if len(m.entries) != 1 || m.entries[0].Connection != "staging" {
		t.Errorf("filtered entries = %+v", m.entries)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d after filtering, want 0", m.cursor)
	}
}

type failingStore struct{ fakeStore }

func (f *failingStore) Get(id int64) (*history.Snapshot, error) {
	return nil, errors.New("disk gone")
}

func TestGetErrorIsShown(t *testing.T) {
	store := &failingStore{fakeStore: *newFake()}
	m := New(store, nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command when loading fails")
	}
	if updated.(Model).Selected() != nil {
		t.Error("expected no selection")
	}
	if !strings.Contains(updated.View(), "disk gone") {
		t.Error("expected error in view")
	}
}

func TestEscQuits(t *testing.T) {
	m := New(newFake(), nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if updated.(Model).Selected() != nil {
		t.Error("esc should not select")
	}
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 30; i++ {
		store.snaps = append(store.snaps, history.Snapshot{ID: int64(i + 1), Connection: "c", Schema: "s"})
	}
	var model tea.Model = New(store, nil)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m := model.(Model)

	visible := m.visibleCount()
	if m.cursor < m.offset || m.cursor >= m.offset+visible {
		t.Errorf("cursor %d outside window [%d,%d)", m.cursor, m.offset, m.offset+visible)
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{5 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{2 * time.Hour, "2h ago"},
		{36 * time.Hour, "yesterday"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		got := RelativeTime(time.Now().Add(-tt.offset))
		if got != tt.want {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestFormatEntryTruncation(t *testing.T) {
	s := history.Snapshot{
		Connection:  "a_connection_with_an_unreasonably_long_name",
		Schema:      "and_an_equally_long_schema_name",
		Checksum:    "0123456789abcdef",
		ExtractedAt: time.Now().Add(-5 * time.Minute),
	}
	got := formatEntry(s, 60)
	if !strings.Contains(got, "...") {
		t.Errorf("expected truncation in %q", got)
	}
	if !strings.Contains(got, "01234567") || strings.Contains(got, "012345678") {
		t.Errorf("expected 8-char checksum in %q", got)
	}
	if !strings.Contains(got, "5m ago") {
		t.Errorf("expected relative time in %q", got)
	}
}
