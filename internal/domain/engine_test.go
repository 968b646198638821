package domain

import (
	"errors"
	"math"
	"testing"
)

func kinds(intents []Intent) []IntentKind {
	out := make([]IntentKind, 0, len(intents))
	for _, in := range intents {
		out = append(out, in.Kind)
	}
	return out
}

func equalKinds(a, b []IntentKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(DefaultDurations())
	s := e.Session()

	if s.Mode != ModeFocus {
		t.Errorf("Mode = %v, want %v", s.Mode, ModeFocus)
	}
	if s.RemainingSeconds != 1500 {
		t.Errorf("RemainingSeconds = %d, want 1500", s.RemainingSeconds)
	}
	if s.Running {
		t.Error("new engine should be paused")
	}
	if s.BreakDurationSeconds != 300 {
		t.Errorf("BreakDurationSeconds = %d, want 300", s.BreakDurationSeconds)
	}
}

func TestNewEngine_InvalidDurationsFallBack(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 0, BreakSeconds: -1})
	if got := e.Session().FocusDurationSeconds; got != 1500 {
		t.Errorf("FocusDurationSeconds = %d, want default 1500", got)
	}
}

func TestEngine_Start(t *testing.T) {
	t.Run("focus emits fade in", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		got := kinds(e.Start())
		if !equalKinds(got, []IntentKind{IntentFadeIn}) {
			t.Errorf("Start() intents = %v, want [fade_in]", got)
		}
		if !e.Session().Running {
			t.Error("Start() should set running")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		e.Start()
		before := e.Session()
		if intents := e.Start(); len(intents) != 0 {
			t.Errorf("second Start() intents = %v, want none", kinds(intents))
		}
		if e.Session() != before {
			t.Errorf("second Start() changed state: %+v -> %+v", before, e.Session())
		}
	})

	t.Run("break emits nothing", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		e.Skip()
		if intents := e.Start(); len(intents) != 0 {
			t.Errorf("Start() in break intents = %v, want none", kinds(intents))
		}
	})
}

func TestEngine_Pause(t *testing.T) {
	e := NewEngine(DefaultDurations())
	e.Start()
	e.Tick()
	e.Tick()

	got := kinds(e.Pause())
	if !equalKinds(got, []IntentKind{IntentPause}) {
		t.Errorf("Pause() intents = %v, want [pause]", got)
	}
	s := e.Session()
	if s.Running {
		t.Error("Pause() should stop the countdown")
	}
	if s.RemainingSeconds != 1498 {
		t.Errorf("RemainingSeconds = %d, want 1498", s.RemainingSeconds)
	}

	e.Tick()
	if e.Session().RemainingSeconds != 1498 {
		t.Error("Tick() while paused should not change remaining time")
	}

	if intents := e.Pause(); len(intents) != 0 {
		t.Errorf("Pause() when paused intents = %v, want none", kinds(intents))
	}
}

func TestEngine_Reset(t *testing.T) {
	tests := []struct {
		name      string
		durations Durations
		skip      bool
	}{
		{"focus default", DefaultDurations(), false},
		{"break default", DefaultDurations(), true},
		{"short focus", Durations{FocusSeconds: 60, BreakSeconds: 30}, false},
		{"short break", Durations{FocusSeconds: 60, BreakSeconds: 30}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.durations)
			if tt.skip {
				e.Skip()
			}
			e.Start()
			for i := 0; i < 10; i++ {
				e.Tick()
			}
			e.Reset()

			s := e.Session()
			if s.Running {
				t.Error("Reset() should pause")
			}
			if s.RemainingSeconds != s.CurrentDurationSeconds() {
				t.Errorf("RemainingSeconds = %d, want %d", s.RemainingSeconds, s.CurrentDurationSeconds())
			}
		})
	}
}

func TestEngine_Skip(t *testing.T) {
	e := NewEngine(DefaultDurations())
	e.Start()
	e.Tick()

	e.Skip()
	s := e.Session()
	if s.Mode != ModeBreak || s.RemainingSeconds != 300 || s.Running {
		t.Errorf("after Skip() = %+v, want break/300/paused", s)
	}

	e.Skip()
	s = e.Session()
	if s.Mode != ModeFocus || s.RemainingSeconds != 1500 {
		t.Errorf("after second Skip() = %+v, want focus/1500", s)
	}
}

func TestEngine_TickMonotonic(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 60, BreakSeconds: 60})
	e.Start()

	prev := e.Session().RemainingSeconds
	for i := 0; i < 59; i++ {
		e.Tick()
		cur := e.Session().RemainingSeconds
		if cur > prev {
			t.Fatalf("tick %d: remaining went up from %d to %d", i, prev, cur)
		}
		if cur < 0 {
			t.Fatalf("tick %d: remaining is negative", i)
		}
		prev = cur
	}
}

func TestEngine_FadeOutBeforeFocusEnds(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 10, BreakSeconds: 5})
	e.Start()

	var fadeOuts int
	for i := 0; i < 8; i++ {
		for _, in := range e.Tick() {
			if in.Kind == IntentFadeOut {
				fadeOuts++
				if rem := e.Session().RemainingSeconds; rem != 2 {
					t.Errorf("fade out at remaining=%d, want 2", rem)
				}
			}
		}
	}
	if fadeOuts != 1 {
		t.Errorf("fade outs = %d, want 1", fadeOuts)
	}

	// Pausing and resuming at the trigger point must not fire again.
	e.Pause()
	e.Start()
	if got := kinds(e.Tick()); equalKinds(got, []IntentKind{IntentFadeOut}) {
		t.Error("fade out fired twice in one interval")
	}
}

func TestEngine_NoFadeOutInBreak(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 10, BreakSeconds: 5})
	e.Skip()
	e.Start()
	for i := 0; i < 4; i++ {
		for _, in := range e.Tick() {
			if in.Kind == IntentFadeOut {
				t.Fatal("break interval should not fade out")
			}
		}
	}
}

func TestEngine_FullFocusInterval(t *testing.T) {
	e := NewEngine(DefaultDurations())
	e.Start()

	var notifies int
	var last []Intent
	for i := 0; i < 1500; i++ {
		last = e.Tick()
		for _, in := range last {
			if in.Kind == IntentNotify {
				notifies++
				if in.Notification != NotifyIntervalComplete {
					t.Errorf("notification = %v, want %v", in.Notification, NotifyIntervalComplete)
				}
			}
		}
	}

	s := e.Session()
	if s.Mode != ModeBreak {
		t.Errorf("Mode = %v, want break", s.Mode)
	}
	if s.RemainingSeconds != 300 {
		t.Errorf("RemainingSeconds = %d, want 300", s.RemainingSeconds)
	}
	if !s.Running {
		t.Error("engine should keep running into the break")
	}
	if notifies != 1 {
		t.Errorf("notifies = %d, want 1", notifies)
	}
	if got := kinds(last); !equalKinds(got, []IntentKind{IntentNotify}) {
		t.Errorf("last tick intents = %v, want [notify]", got)
	}
}

func TestEngine_BreakEndFadesIn(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 60, BreakSeconds: 3})
	e.Skip()
	e.Start()

	e.Tick()
	e.Tick()
	got := kinds(e.Tick())

	want := []IntentKind{IntentNotify, IntentFadeIn}
	if !equalKinds(got, want) {
		t.Errorf("intents = %v, want %v", got, want)
	}
	s := e.Session()
	if s.Mode != ModeFocus || s.RemainingSeconds != 60 || !s.Running {
		t.Errorf("state = %+v, want focus/60/running", s)
	}
}

func TestEngine_ChangeDurations(t *testing.T) {
	t.Run("paused applies immediately", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		if err := e.ChangeDurations(50, 10); err != nil {
			t.Fatalf("ChangeDurations() error = %v", err)
		}
		s := e.Session()
		if s.RemainingSeconds != 3000 || s.BreakDurationSeconds != 600 {
			t.Errorf("state = %+v, want remaining 3000 break 600", s)
		}
	})

	t.Run("running is deferred", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		e.Start()
		e.Tick()
		if err := e.ChangeDurations(50, 10); err != nil {
			t.Fatalf("ChangeDurations() error = %v", err)
		}
		if got := e.Session().RemainingSeconds; got != 1499 {
			t.Errorf("RemainingSeconds = %d, want 1499", got)
		}
		e.Reset()
		if got := e.Session().RemainingSeconds; got != 3000 {
			t.Errorf("after Reset() RemainingSeconds = %d, want 3000", got)
		}
	})

	t.Run("running clamps to shorter duration", func(t *testing.T) {
		e := NewEngine(DefaultDurations())
		e.Start()
		if err := e.ChangeDurations(15, 3); err != nil {
			t.Fatalf("ChangeDurations() error = %v", err)
		}
		s := e.Session()
		if s.RemainingSeconds > s.CurrentDurationSeconds() {
			t.Errorf("remaining %d exceeds duration %d", s.RemainingSeconds, s.CurrentDurationSeconds())
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		tests := []struct{ focus, brk int }{
			{0, 5}, {25, 0}, {-1, 5}, {25, -3},
			{MaxIntervalMinutes + 1, 5}, {25, MaxIntervalMinutes + 1},
			{math.MaxInt/60 + 1, 5}, {math.MaxInt / 30, 5},
		}
		for _, tt := range tests {
			e := NewEngine(DefaultDurations())
			err := e.ChangeDurations(tt.focus, tt.brk)
			if !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("ChangeDurations(%d, %d) error = %v, want ErrInvalidDuration", tt.focus, tt.brk, err)
			}
			if e.Session() != NewEngine(DefaultDurations()).Session() {
				t.Errorf("ChangeDurations(%d, %d) modified state", tt.focus, tt.brk)
			}
		}
	})
}

func TestEngine_Progress(t *testing.T) {
	e := NewEngine(Durations{FocusSeconds: 100, BreakSeconds: 50})
	if p := e.Progress(); p != 0 {
		t.Errorf("Progress() = %v, want 0", p)
	}
	e.Start()
	for i := 0; i < 25; i++ {
		e.Tick()
	}
	if p := e.Progress(); p != 0.25 {
		t.Errorf("Progress() = %v, want 0.25", p)
	}
}

func TestDurationsFromMinutes(t *testing.T) {
	tests := []struct {
		name       string
		focus, brk int
		wantErr    bool
	}{
		{"defaults", 25, 5, false},
		{"one minute", 1, 1, false},
		{"one day", MaxIntervalMinutes, MaxIntervalMinutes, false},
		{"zero", 0, 5, true},
		{"longer than a day", MaxIntervalMinutes + 1, 5, true},
		{"overflows seconds", math.MaxInt/60 + 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DurationsFromMinutes(tt.focus, tt.brk)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Errorf("DurationsFromMinutes(%d, %d) error = %v, want ErrInvalidDuration", tt.focus, tt.brk, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DurationsFromMinutes(%d, %d) error = %v", tt.focus, tt.brk, err)
			}
			if d.FocusSeconds != tt.focus*60 || d.BreakSeconds != tt.brk*60 {
				t.Errorf("durations = %+v, want %d/%d seconds", d, tt.focus*60, tt.brk*60)
			}
		})
	}
}
