package statemachine

import "context"

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action executes side effects during a transition. Actions run after all
// guards pass and before the new state is reported; an error aborts the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition defines a state change triggered by an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // all must pass
	Actions []Action // run in order
}

// StringState is a string-based State.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is a string-based Event.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }
