package ports

import "github.com/xvierd/pulse-cli/internal/domain"

// NotificationSink receives fire-and-forget notifications by kind.
// This is a driven port (implemented by the notification adapter).
type NotificationSink interface {
	Notify(kind domain.NotificationKind)
}
