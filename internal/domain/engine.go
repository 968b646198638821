package domain

// Engine is the interval state machine. It is deterministic and performs no
// I/O: every control returns the side effects it wants executed.
//
// Engine is not safe for concurrent use; hosts serialize access.
type Engine struct {
	mode          Mode
	remaining     int
	running       bool
	durations     Durations
	fadeTriggered bool
}

// NewEngine creates a paused engine in focus mode with a full interval.
func NewEngine(d Durations) *Engine {
	if d.FocusSeconds <= 0 || d.BreakSeconds <= 0 {
		d = DefaultDurations()
	}
	return &Engine{
		mode:      ModeFocus,
		remaining: d.FocusSeconds,
		durations: d,
	}
}

// Session returns a snapshot of the current state.
func (e *Engine) Session() Session {
	return Session{
		Mode:                 e.mode,
		RemainingSeconds:     e.remaining,
		Running:              e.running,
		FocusDurationSeconds: e.durations.FocusSeconds,
		BreakDurationSeconds: e.durations.BreakSeconds,
	}
}

// Progress returns the completed fraction of the current interval.
func (e *Engine) Progress() float64 {
	return e.Session().Progress()
}

// Start resumes the countdown. Starting a running engine does nothing.
func (e *Engine) Start() []Intent {
	if e.running {
		return nil
	}
	e.running = true
	if e.mode == ModeFocus {
		return []Intent{fadeIn(e.mode)}
	}
	return nil
}

// Pause freezes the countdown.
func (e *Engine) Pause() []Intent {
	if !e.running {
		return nil
	}
	e.running = false
	if e.mode == ModeFocus {
		return []Intent{pause(e.mode)}
	}
	return nil
}

// Reset pauses and refills the current interval.
func (e *Engine) Reset() []Intent {
	e.running = false
	e.remaining = e.durations.For(e.mode)
	e.fadeTriggered = false
	return nil
}

// Skip switches to the other mode immediately and pauses.
func (e *Engine) Skip() []Intent {
	e.running = false
	e.mode = e.mode.Other()
	e.remaining = e.durations.For(e.mode)
	e.fadeTriggered = false
	return nil
}

// Tick advances the countdown by one second while running.
func (e *Engine) Tick() []Intent {
	if !e.running {
		return nil
	}

	var intents []Intent
	if e.remaining > 0 {
		e.remaining--
	}

	if e.mode == ModeFocus && e.remaining == fadeLeadSeconds && !e.fadeTriggered {
		e.fadeTriggered = true
		intents = append(intents, fadeOut(e.mode))
	}

	if e.remaining == 0 {
		intents = append(intents, notify(e.mode, NotifyIntervalComplete))
		e.mode = e.mode.Other()
		e.remaining = e.durations.For(e.mode)
		e.fadeTriggered = false
		if e.mode == ModeFocus {
			intents = append(intents, fadeIn(e.mode))
		}
	}

	return intents
}

// ChangeDurations replaces the interval lengths. Values outside
// 1..MaxIntervalMinutes are rejected and the previous settings are kept. A paused engine refills the
// current interval with the new length; a running countdown continues,
// clamped so it never exceeds the new length.
func (e *Engine) ChangeDurations(focusMinutes, breakMinutes int) error {
	d, err := DurationsFromMinutes(focusMinutes, breakMinutes)
	if err != nil {
		return err
	}
	e.setDurations(d)
	return nil
}

// setDurations applies durations already checked by DurationsFromMinutes.
func (e *Engine) setDurations(d Durations) {
	e.durations = d
	full := e.durations.For(e.mode)
	if !e.running {
		e.remaining = full
		e.fadeTriggered = false
		return
	}
	if e.remaining > full {
		e.remaining = full
	}
}
