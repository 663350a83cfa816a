// Package theme holds the lipgloss styles used when matviewddl renders DDL
// to a terminal: syntax highlighting, the preview pager and CLI messages.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds lipgloss.Style values for every rendered element.
type Theme struct {
	Name string

	// SQL syntax highlighting
	SQLKeyword    lipgloss.Style
	SQLString     lipgloss.Style
	SQLNumber     lipgloss.Style
	SQLComment    lipgloss.Style
	SQLOperator   lipgloss.Style
	SQLFunction   lipgloss.Style
	SQLType       lipgloss.Style
	SQLIdentifier lipgloss.Style

	// Preview pager
	PreviewBorder lipgloss.Style
	PreviewTitle  lipgloss.Style

	// Status bar
	StatusBar        lipgloss.Style
	StatusBarKey     lipgloss.Style
	StatusBarValue   lipgloss.Style
	StatusBarError   lipgloss.Style
	StatusBarSuccess lipgloss.Style

	// General
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	MutedText   lipgloss.Style

	// Snapshot browser
	ListSelected lipgloss.Style
}

// newDefaultTheme builds the Default dark theme.
func newDefaultTheme() *Theme {
	return &Theme{
		Name: "default",

		SQLKeyword: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#569CD6")),
		SQLString: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CE9178")),
		SQLNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B5CEA8")),
		SQLComment: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6A9955")),
		SQLOperator: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")),
		SQLFunction: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DCDCAA")),
		SQLType: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4EC9B0")),
		SQLIdentifier: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CDCFE")),

		PreviewBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#569CD6")),
		PreviewTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#569CD6")).
			PaddingLeft(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")).
			Background(lipgloss.Color("#007ACC")),
		StatusBarKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#007ACC")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")).
			Background(lipgloss.Color("#1E1E1E")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarError: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#F44747")),
		StatusBarSuccess: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#6A9955")),

		ErrorText: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F44747")),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6A9955")),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCA700")),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080")),

		ListSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#264F78")),
	}
}

// newLightTheme builds a light theme for bright terminals.
func newLightTheme() *Theme {
	return &Theme{
		Name: "light",

		SQLKeyword: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000FF")),
		SQLString: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A31515")),
		SQLNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#098658")),
		SQLComment: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#008000")),
		SQLOperator: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")),
		SQLFunction: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#795E26")),
		SQLType: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#267F99")),
		SQLIdentifier: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#001080")),

		PreviewBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#0451A5")),
		PreviewTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0451A5")).
			PaddingLeft(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0060C0")),
		StatusBarKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0060C0")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(lipgloss.Color("#F3F3F3")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarError: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#E51400")),
		StatusBarSuccess: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#008000")),

		ErrorText: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E51400")),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#008000")),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BF8803")),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0")),

		ListSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#ADD6FF")),
	}
}

// newMonokaiTheme builds the Monokai theme.
func newMonokaiTheme() *Theme {
	return &Theme{
		Name: "monokai",

		SQLKeyword: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F92672")),
		SQLString: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E6DB74")),
		SQLNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AE81FF")),
		SQLComment: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#75715E")),
		SQLOperator: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F92672")),
		SQLFunction: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E22E")),
		SQLType: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#66D9EF")),
		SQLIdentifier: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2")),

		PreviewBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F92672")),
		PreviewTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F92672")).
			PaddingLeft(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2")).
			Background(lipgloss.Color("#3E3D32")),
		StatusBarKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#272822")).
			Background(lipgloss.Color("#F92672")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2")).
			Background(lipgloss.Color("#3E3D32")).
			PaddingLeft(1).
			PaddingRight(1),
		StatusBarError: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8F8F2")).
			Background(lipgloss.Color("#F92672")),
		StatusBarSuccess: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#272822")).
			Background(lipgloss.Color("#A6E22E")),

		ErrorText: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F92672")),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E22E")),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E6DB74")),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#75715E")),

		ListSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8F8F2")).
			Background(lipgloss.Color("#49483E")),
	}
}

// Themes maps theme names to their Theme definitions.
var Themes = map[string]*Theme{
	"default": newDefaultTheme(),
	"light":   newLightTheme(),
	"monokai": newMonokaiTheme(),
}

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}
