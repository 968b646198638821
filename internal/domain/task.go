// Package domain contains the core entities of pulse: the interval engine,
// tasks, the Spotify auth session and playback state. Nothing in this
// package performs I/O.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Common domain errors.
var (
	ErrInvalidTaskID    = errors.New("invalid task ID")
	ErrEmptyTaskText    = errors.New("task text cannot be empty")
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidDuration  = errors.New("durations must be whole minutes between 1 and 1440")
	ErrTokenNotFound    = errors.New("token not found")
	ErrNotConnected     = errors.New("spotify is not connected")
	ErrNoRefreshToken   = errors.New("no refresh token stored")
	ErrRestricted       = errors.New("device does not allow remote control")
	ErrUnauthorized     = errors.New("spotify authorization failed")
	ErrNoActiveDevice   = errors.New("no active playback device")
	ErrLoginStateDenied = errors.New("oauth state mismatch")
)

// Task is a to-do item shown next to the timer.
type Task struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// NewTask creates an open task. Surrounding whitespace is trimmed.
func NewTask(text string) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyTaskText
	}

	return &Task{
		ID:        generateID(),
		Text:      text,
		CreatedAt: time.Now(),
	}, nil
}

// Toggle flips the completed flag and reports whether the task is now done.
func (t *Task) Toggle() bool {
	t.Completed = !t.Completed
	return t.Completed
}

// CheckMark returns the checkbox glyph for the task.
func (t *Task) CheckMark() string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}
