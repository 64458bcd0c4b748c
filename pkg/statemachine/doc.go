// Package statemachine implements guarded finite-state machines whose current
// state may live outside the machine.
//
// A Definition is the immutable transition table, keyed by
// [from state][event]. Firing an event against a Definition takes the current
// state as an argument and returns the next one, so the state can be loaded
// from and persisted to external storage (a session, a database row) on every
// transition. Actions run after guards pass and before the caller sees the new
// state, which makes them the natural place to persist it: a failing action
// aborts the transition.
//
// Machine wraps a Definition with an in-memory current state for callers that
// do not need external storage.
//
// # Usage
//
//	const (
//	    Pending  = statemachine.StringState("pending")
//	    Verified = statemachine.StringState("verified")
//	    Verify   = statemachine.StringEvent("verify")
//	)
//
//	def := statemachine.MustDefine(
//	    statemachine.WithTransition(Pending, Verified, Verify,
//	        statemachine.WithGuards(hasProof),
//	        statemachine.WithActions(persist),
//	    ),
//	)
//
//	next, err := def.Fire(ctx, loadState(), Verify, proof)
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
//
// Action errors are wrapped, so errors.Is reaches the original cause.
package statemachine
