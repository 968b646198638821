package cmd

import (
	"github.com/xvierd/pulse-cli/internal/domain"
)

func statusJSON(state *domain.CurrentState) map[string]any {
	session := state.Session
	result := map[string]any{
		"session": map[string]any{
			"mode":              string(session.Mode),
			"status":            session.StatusLabel(),
			"remaining_seconds": session.RemainingSeconds,
			"progress":          session.Progress(),
			"focus_minutes":     session.FocusDurationSeconds / 60,
			"break_minutes":     session.BreakDurationSeconds / 60,
		},
		"spotify":          string(state.Auth),
		"supports_control": state.SupportsControl,
		"now_playing":      nil,
		"tasks":            tasksJSON(state.Tasks),
		"open_tasks":       state.OpenTasks(),
	}
	if state.NowPlaying != nil {
		result["now_playing"] = playbackJSON(state.NowPlaying)
	}
	return result
}

func taskJSON(t *domain.Task) map[string]any {
	return map[string]any{
		"id":         t.ID,
		"text":       t.Text,
		"completed":  t.Completed,
		"created_at": t.CreatedAt.Format("2006-01-02T15:04:05"),
	}
}

func tasksJSON(tasks []*domain.Task) []map[string]any {
	list := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, taskJSON(t))
	}
	return list
}

func deviceJSON(d domain.Device) map[string]any {
	return map[string]any{
		"id":     d.ID,
		"name":   d.Name,
		"type":   d.Type,
		"active": d.Active,
		"volume": d.Volume,
	}
}

func playbackJSON(s *domain.PlaybackState) map[string]any {
	result := map[string]any{
		"is_playing":  s.IsPlaying,
		"progress_ms": s.ProgressMs,
		"device":      nil,
		"track":       nil,
	}
	if s.Device != nil {
		result["device"] = deviceJSON(*s.Device)
	}
	if s.Track != nil {
		result["track"] = map[string]any{
			"name":        s.Track.Name,
			"artist":      s.Track.Artist(),
			"album":       s.Track.Album,
			"duration_ms": s.Track.DurationMs,
		}
	}
	return result
}

// shortID is the id prefix shown in listings; commands accept any unique prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
