package ports

import (
	"github.com/xvierd/pulse-cli/internal/domain"
)

// TimerControls is the control surface of a running focus session.
// This is a driving port (used by the TUI and the MCP server).
type TimerControls interface {
	Start()
	Pause()
	Toggle()
	Reset()
	Skip()
	Tick()
	ChangeDurations(focusMinutes, breakMinutes int) error
	Snapshot() domain.Session
}
