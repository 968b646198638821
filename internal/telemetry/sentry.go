// Package telemetry reports crashes and error logs to Sentry. Every function
// is a no-op unless Init succeeded with telemetry enabled and a DSN set.
package telemetry

import (
	"runtime"
	"time"

	gosentry "github.com/getsentry/sentry-go"

	"github.com/xvierd/pulse-cli/internal/config"
)

const flushTimeout = 2 * time.Second

// enabled tracks whether sentry was successfully initialized.
var enabled bool

// beforeSend lets tests observe events.
var beforeSend func(*gosentry.Event, *gosentry.EventHint) *gosentry.Event

// Init initializes the Sentry SDK.
func Init(version string, cfg config.TelemetryConfig) error {
	if !cfg.Enabled || cfg.DSN == "" {
		enabled = false
		return nil
	}

	err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          "pulse@" + version,
		AttachStacktrace: true,
		SampleRate:       1.0,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return err
	}

	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("version", version)
	})

	enabled = true
	return nil
}

// IsEnabled returns whether sentry is active.
func IsEnabled() bool {
	return enabled
}

// Flush waits up to 2 seconds for buffered events to be sent.
func Flush() {
	if !enabled {
		return
	}
	gosentry.Flush(flushTimeout)
}

// RecoverPanic captures a panic to Sentry, flushes, then re-panics.
// Usage: defer telemetry.RecoverPanic()
func RecoverPanic() {
	if !enabled {
		return
	}
	if err := recover(); err != nil {
		gosentry.CurrentHub().Recover(err)
		gosentry.Flush(flushTimeout)
		panic(err)
	}
}

// SetCommand tags events with the running subcommand.
func SetCommand(name string) {
	if !enabled {
		return
	}
	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("command", name)
	})
}
