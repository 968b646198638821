package domain

// IntentKind identifies a side effect requested by the engine.
type IntentKind int

const (
	// IntentFadeOut asks for playback to fade out and pause.
	IntentFadeOut IntentKind = iota + 1
	// IntentFadeIn asks for playback to resume with a fade-in.
	IntentFadeIn
	// IntentPause asks for playback to pause immediately.
	IntentPause
	// IntentNotify asks the notification sink to fire.
	IntentNotify
)

func (k IntentKind) String() string {
	switch k {
	case IntentFadeOut:
		return "fade_out"
	case IntentFadeIn:
		return "fade_in"
	case IntentPause:
		return "pause"
	case IntentNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// NotificationKind is the kind of event sent to the notification sink.
type NotificationKind string

const (
	// NotifyIntervalComplete fires when a focus or break interval ends.
	NotifyIntervalComplete NotificationKind = "interval_complete"
	// NotifyTaskCompleted fires when a task is checked off.
	NotifyTaskCompleted NotificationKind = "task_completed"
)

// Intent is a side effect emitted by the engine for the host to execute.
type Intent struct {
	Kind         IntentKind
	Notification NotificationKind
	// Mode is the mode the engine was in when the intent was produced.
	Mode Mode
}

func fadeOut(m Mode) Intent { return Intent{Kind: IntentFadeOut, Mode: m} }
func fadeIn(m Mode) Intent  { return Intent{Kind: IntentFadeIn, Mode: m} }
func pause(m Mode) Intent   { return Intent{Kind: IntentPause, Mode: m} }

func notify(m Mode, kind NotificationKind) Intent {
	return Intent{Kind: IntentNotify, Notification: kind, Mode: m}
}
