package telemetry

import (
	"fmt"

	gosentry "github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// Hook forwards logrus entries to Sentry. Errors become events; warnings and
// info become breadcrumbs attached to the next event.
type Hook struct{}

// NewHook creates a logrus hook. Add it with logger.AddHook.
func NewHook() *Hook {
	return &Hook{}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(entry *logrus.Entry) error {
	if !enabled {
		return nil
	}

	data := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		gosentry.WithScope(func(scope *gosentry.Scope) {
			scope.SetContext("log", data)
			if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
				gosentry.CaptureException(fmt.Errorf("%s: %w", entry.Message, err))
				return
			}
			gosentry.CaptureMessage(entry.Message)
		})
	case logrus.WarnLevel:
		addBreadcrumb(gosentry.LevelWarning, entry.Message, data)
	default:
		addBreadcrumb(gosentry.LevelInfo, entry.Message, data)
	}
	return nil
}

func addBreadcrumb(level gosentry.Level, msg string, data map[string]interface{}) {
	gosentry.AddBreadcrumb(&gosentry.Breadcrumb{
		Level:    level,
		Category: "log",
		Message:  msg,
		Data:     data,
	})
}
