package app

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

// containsKey checks whether the binding's keys contain the given key string.
func containsKey(b key.Binding, target string) bool {
	for _, k := range b.Keys() {
		if k == target {
			return true
		}
	}
	return false
}

func TestStandardKeyMap(t *testing.T) {
	km := StandardKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		key     string
	}{
		{"Quit has ctrl+q", km.Quit, "ctrl+q"},
		{"Quit has q", km.Quit, "q"},
		{"Up has up", km.Up, "up"},
		{"Down has down", km.Down, "down"},
		{"PageDown has space", km.PageDown, " "},
		{"Top has home", km.Top, "home"},
		{"Bottom has end", km.Bottom, "end"},
		{"Refresh has f5", km.Refresh, "f5"},
		{"Refresh has ctrl+r", km.Refresh, "ctrl+r"},
		{"Help has f1", km.Help, "f1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !containsKey(tt.binding, tt.key) {
				t.Errorf("binding keys %v missing %q", tt.binding.Keys(), tt.key)
			}
		})
	}

	if containsKey(km.Down, "j") {
		t.Error("standard Down should not bind j")
	}
}

func TestVimKeyMap(t *testing.T) {
	km := VimKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		key     string
	}{
		{"Up has k", km.Up, "k"},
		{"Down has j", km.Down, "j"},
		{"Top has g", km.Top, "g"},
		{"Bottom has G", km.Bottom, "G"},
		{"PageDown has ctrl+d", km.PageDown, "ctrl+d"},
		{"PageUp has ctrl+u", km.PageUp, "ctrl+u"},
		{"Up keeps arrow", km.Up, "up"},
		{"Quit still has ctrl+q", km.Quit, "ctrl+q"},
		{"Refresh still has f5", km.Refresh, "f5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !containsKey(tt.binding, tt.key) {
				t.Errorf("binding keys %v missing %q", tt.binding.Keys(), tt.key)
			}
		})
	}
}

func TestShortHelp(t *testing.T) {
	for _, km := range []KeyMap{StandardKeyMap(), VimKeyMap()} {
		short := km.ShortHelp()
		if len(short) == 0 {
			t.Fatal("ShortHelp() returned no bindings")
		}
		for i, b := range short {
			if len(b.Keys()) == 0 {
				t.Errorf("ShortHelp()[%d] has no keys", i)
			}
		}
	}
}

func TestFullHelp(t *testing.T) {
	groups := StandardKeyMap().FullHelp()
	if len(groups) != 3 {
		t.Fatalf("FullHelp() returned %d groups, want 3", len(groups))
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Errorf("FullHelp() group %d is empty", i)
		}
	}
}
