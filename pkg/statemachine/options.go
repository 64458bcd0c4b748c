package statemachine

import "fmt"

// Option configures a Definition.
type Option func(*Definition) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*Transition)

// WithTransition adds a transition from -> to on event.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(d *Definition) error {
		t := Transition{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		if err := d.add(t); err != nil {
			return fmt.Errorf("%s on %s: %w", name(from), name(event), err)
		}
		return nil
	}
}

// WithGuards adds guards to a transition. Nil guards are skipped.
func WithGuards(guards ...Guard) TransitionOption {
	return func(t *Transition) {
		for _, g := range guards {
			if g != nil {
				t.Guards = append(t.Guards, g)
			}
		}
	}
}

// WithActions adds actions to a transition. Nil actions are skipped.
func WithActions(actions ...Action) TransitionOption {
	return func(t *Transition) {
		for _, a := range actions {
			if a != nil {
				t.Actions = append(t.Actions, a)
			}
		}
	}
}

func name(n interface{ Name() string }) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name()
}
