// Package msg defines the Bubble Tea messages shared by the preview
// components.
package msg

import (
	"time"

	"github.com/sadopc/matviewddl/internal/extract"
)

// KeyMode represents the active keybinding mode.
type KeyMode int

const (
	KeyModeStandard KeyMode = iota
	KeyModeVim
)

func (m KeyMode) String() string {
	if m == KeyModeVim {
		return "vim"
	}
	return "standard"
}

// ParseKeyMode parses a string into a KeyMode.
func ParseKeyMode(s string) KeyMode {
	if s == "vim" {
		return KeyModeVim
	}
	return KeyModeStandard
}

// ExtractStartedMsg is sent when an extraction begins.
type ExtractStartedMsg struct {
	Schema string
}

// ExtractedMsg carries a completed extraction.
type ExtractedMsg struct {
	Result   *extract.Result
	Database string
	Adapter  string
}

// ExtractErrMsg is sent when an extraction fails.
type ExtractErrMsg struct {
	Err error
}

// StatusMsg shows a transient message in the status bar.
type StatusMsg struct {
	Text     string
	IsError  bool
	Duration time.Duration
}

// ScrollMsg reports the pager's scroll position as a fraction in [0, 1].
type ScrollMsg struct {
	Percent float64
}
