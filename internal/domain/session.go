package domain

import (
	"fmt"
	"time"
)

// Mode represents the interval type of a focus session.
type Mode string

const (
	// ModeFocus is a work interval.
	ModeFocus Mode = "focus"
	// ModeBreak is a rest interval.
	ModeBreak Mode = "break"
)

// Other returns the mode that follows m.
func (m Mode) Other() Mode {
	if m == ModeFocus {
		return ModeBreak
	}
	return ModeFocus
}

// Label returns a human-readable name for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeBreak:
		return "Break"
	default:
		return string(m)
	}
}

const (
	// DefaultFocusMinutes is the focus interval length used on first run.
	DefaultFocusMinutes = 25
	// DefaultBreakMinutes is the break interval length used on first run.
	DefaultBreakMinutes = 5

	// fadeLeadSeconds is how long before the end of a focus interval the
	// fade-out starts.
	fadeLeadSeconds = 2
)

// Durations holds the configured interval lengths in seconds.
type Durations struct {
	FocusSeconds int
	BreakSeconds int
}

// DefaultDurations returns the classic 25/5 configuration.
func DefaultDurations() Durations {
	return Durations{
		FocusSeconds: DefaultFocusMinutes * 60,
		BreakSeconds: DefaultBreakMinutes * 60,
	}
}

// MaxIntervalMinutes is the longest accepted interval: one day.
const MaxIntervalMinutes = 24 * 60

// DurationsFromMinutes validates and converts minute values. Each must be
// between 1 and MaxIntervalMinutes.
func DurationsFromMinutes(focusMinutes, breakMinutes int) (Durations, error) {
	if focusMinutes <= 0 || breakMinutes <= 0 ||
		focusMinutes > MaxIntervalMinutes || breakMinutes > MaxIntervalMinutes {
		return Durations{}, fmt.Errorf("%w: focus=%d break=%d", ErrInvalidDuration, focusMinutes, breakMinutes)
	}
	return Durations{
		FocusSeconds: focusMinutes * 60,
		BreakSeconds: breakMinutes * 60,
	}, nil
}

// For returns the duration in seconds of the given mode.
func (d Durations) For(m Mode) int {
	if m == ModeBreak {
		return d.BreakSeconds
	}
	return d.FocusSeconds
}

// Session is a snapshot of the timer state.
type Session struct {
	Mode                 Mode
	RemainingSeconds     int
	Running              bool
	FocusDurationSeconds int
	BreakDurationSeconds int
}

// CurrentDurationSeconds returns the full length of the current mode.
func (s Session) CurrentDurationSeconds() int {
	if s.Mode == ModeBreak {
		return s.BreakDurationSeconds
	}
	return s.FocusDurationSeconds
}

// Remaining returns the time left in the current interval.
func (s Session) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds) * time.Second
}

// Progress returns the completed fraction of the current interval, in [0,1].
func (s Session) Progress() float64 {
	total := s.CurrentDurationSeconds()
	if total <= 0 {
		return 0
	}
	p := float64(total-s.RemainingSeconds) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// StatusLabel returns "Running" or "Paused".
func (s Session) StatusLabel() string {
	if s.Running {
		return "Running"
	}
	return "Paused"
}
