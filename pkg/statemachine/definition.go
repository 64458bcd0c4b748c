package statemachine

import (
	"context"
	"fmt"
)

// Definition is an immutable transition table. It keeps no current state:
// callers pass the state they loaded from wherever it lives (a session, a
// database row) and persist the returned one, usually from an Action.
// A Definition is safe for concurrent use.
type Definition struct {
	// [from][event] -> candidates, first with passing guards wins
	transitions map[string]map[string][]Transition
}

// Define builds a transition table from options.
func Define(opts ...Option) (*Definition, error) {
	d := &Definition{transitions: make(map[string]map[string][]Transition)}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustDefine is like Define but panics on an invalid table. Intended for
// package-level variables.
func MustDefine(opts ...Option) *Definition {
	d, err := Define(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to define state machine: %v", err))
	}
	return d
}

func (d *Definition) add(t Transition) error {
	if t.From == nil || t.To == nil || t.Event == nil {
		return ErrInvalidTransition
	}

	from, ev := t.From.Name(), t.Event.Name()
	if _, ok := d.transitions[from]; !ok {
		d.transitions[from] = make(map[string][]Transition)
	}
	d.transitions[from][ev] = append(d.transitions[from][ev], t)
	return nil
}

// Fire resolves event from the given state, runs the winning transition's
// actions and returns the target state. On error the caller's state is
// unchanged.
func (d *Definition) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	t, err := d.resolve(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.To, nil
}

// CanFire reports whether event would be accepted from the given state.
// Actions are not run.
func (d *Definition) CanFire(ctx context.Context, from State, event Event, data any) bool {
	_, err := d.resolve(ctx, from, event, data)
	return err == nil
}

func (d *Definition) resolve(ctx context.Context, from State, event Event, data any) (*Transition, error) {
	if from == nil {
		return nil, ErrInvalidState
	}
	if event == nil {
		return nil, ErrInvalidEvent
	}

	candidates := d.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(from.Name(), event.Name())
	}

	for i := range candidates {
		if guardsPass(ctx, &candidates[i], from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, NewErrTransitionRejected(from.Name(), event.Name())
}

func guardsPass(ctx context.Context, t *Transition, from State, event Event, data any) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
