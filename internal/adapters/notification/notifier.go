// Package notification provides desktop notification utilities.
package notification

import (
	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"

	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

type message struct {
	title string
	body  string
}

var messages = map[domain.NotificationKind]message{
	domain.NotifyIntervalComplete: {title: "⏰ Interval complete", body: "Time to switch gears."},
	domain.NotifyTaskCompleted:    {title: "✅ Task done", body: "Nice work, one less thing."},
}

// Notifier handles desktop notifications. It implements
// ports.NotificationSink.
type Notifier struct {
	cfg config.NotificationConfig
	log logrus.FieldLogger

	notify func(title, message string) error
	beep   func() error
}

var _ ports.NotificationSink = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
func New(cfg config.NotificationConfig, log logrus.FieldLogger) *Notifier {
	beeep.AppName = "pulse"
	return &Notifier{
		cfg: cfg,
		log: log,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// Notify displays a desktop notification for kind if enabled, and plays a
// beep when sound is on. Failures are logged and otherwise ignored.
func (n *Notifier) Notify(kind domain.NotificationKind) {
	if !n.cfg.Enabled {
		return
	}

	msg, ok := messages[kind]
	if !ok {
		msg = message{title: "pulse", body: string(kind)}
	}

	if err := n.notify(msg.title, msg.body); err != nil {
		n.log.WithError(err).WithField("kind", kind).Debug("desktop notification failed")
	}
	if n.cfg.Sound {
		if err := n.beep(); err != nil {
			n.log.WithError(err).Debug("beep failed")
		}
	}
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg.Enabled
}
