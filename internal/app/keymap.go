package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the preview pager keybindings.
type KeyMap struct {
	// Scrolling
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// App
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// StandardKeyMap returns keybindings for standard mode.
func StandardKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", " "),
			key.WithHelp("pgdn/space", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "bottom"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("f5", "ctrl+r"),
			key.WithHelp("f5/ctrl+r", "re-extract"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("f1/?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c", "q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// VimKeyMap returns keybindings for vim mode. It extends the standard map
// with hjkl-style motions.
func VimKeyMap() KeyMap {
	km := StandardKeyMap()

	km.Up = key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	)
	km.Down = key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	)
	km.PageUp = key.NewBinding(
		key.WithKeys("ctrl+b", "ctrl+u", "pgup"),
		key.WithHelp("ctrl+b/ctrl+u", "page up"),
	)
	km.PageDown = key.NewBinding(
		key.WithKeys("ctrl+f", "ctrl+d", "pgdown", " "),
		key.WithHelp("ctrl+f/ctrl+d", "page down"),
	)
	km.Top = key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	)
	km.Bottom = key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	)

	return km
}

// ShortHelp returns a subset of keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Refresh, k.Quit, k.Help}
}

// FullHelp returns all keybindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Top, k.Bottom},
		{k.Refresh, k.Help, k.Quit},
	}
}
