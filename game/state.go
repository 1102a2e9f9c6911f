package game

import "log/slog"

// AppState is the application lifecycle phase.
type AppState int

const (
	StatePreload       AppState = iota // Map loads not yet issued
	StatePreprocessing                 // Waiting for both maps to be thresholded
	StateRunning                       // Swarm, param sync and effects active
)

func (s AppState) String() string {
	switch s {
	case StatePreload:
		return "preload"
	case StatePreprocessing:
		return "preprocessing"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// StateMachine sequences Preload -> Preprocessing -> Running.
// Transitions are linear and Running is terminal.
type StateMachine struct {
	current AppState
	history []AppState
}

// NewStateMachine starts in Preload.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StatePreload,
		history: []AppState{StatePreload},
	}
}

// Current returns the active state.
func (m *StateMachine) Current() AppState {
	return m.current
}

// Advance moves to the next state. Returns false if already Running.
func (m *StateMachine) Advance() bool {
	if m.current == StateRunning {
		return false
	}
	from := m.current
	m.current++
	m.history = append(m.history, m.current)
	slog.Info("state transition", "from", from.String(), "to", m.current.String())
	return true
}

// History returns every state entered so far, in order.
func (m *StateMachine) History() []AppState {
	out := make([]AppState, len(m.history))
	copy(out, m.history)
	return out
}
