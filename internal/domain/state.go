package domain

// CurrentState is the view of the application handed to status commands,
// the TUI and the MCP server.
type CurrentState struct {
	Session         Session
	Tasks           []*Task
	Auth            AuthState
	NowPlaying      *PlaybackState
	SupportsControl bool
}

// OpenTasks counts tasks that are not completed.
func (cs *CurrentState) OpenTasks() int {
	n := 0
	for _, t := range cs.Tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
