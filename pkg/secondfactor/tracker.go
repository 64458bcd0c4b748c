package secondfactor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/twofactor/pkg/statemachine"
)

// Status is the second-factor state of a session.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// Name implements statemachine.State.
func (s Status) Name() string { return string(s) }

// StatusKey is the session data key holding the status.
const StatusKey = "second_factor.status"

// SessionStorage is the session-scoped state the tracker reads and writes.
// Implementations may start the underlying session lazily on the first Set.
type SessionStorage interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

const (
	eventVerified = statemachine.StringEvent("verified")
	eventReset    = statemachine.StringEvent("reset")
)

// firing is the data passed through a transition.
type firing struct {
	storage SessionStorage
	proof   Verification
}

func requireVerification(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	f, ok := data.(firing)
	return ok && f.proof.OK()
}

// persistStatus writes the target status to the session. Self-transitions
// skip the write.
func persistStatus(ctx context.Context, from, to statemachine.State, _ statemachine.Event, data any) error {
	if from.Name() == to.Name() {
		return nil
	}
	f, ok := data.(firing)
	if !ok || f.storage == nil {
		return ErrSessionNotAvailable
	}
	if err := f.storage.Set(ctx, StatusKey, to.Name()); err != nil {
		return errors.Join(ErrSessionNotAvailable, err)
	}
	return nil
}

// statusMachine holds the only edge into StatusAuthenticated, guarded by a
// successful verification.
var statusMachine = statemachine.MustDefine(
	statemachine.WithTransition(StatusUnauthenticated, StatusAuthenticated, eventVerified,
		statemachine.WithGuards(requireVerification),
		statemachine.WithActions(persistStatus),
	),
	statemachine.WithTransition(StatusAuthenticated, StatusAuthenticated, eventVerified,
		statemachine.WithGuards(requireVerification),
	),
	statemachine.WithTransition(StatusUnauthenticated, StatusUnauthenticated, eventReset),
	statemachine.WithTransition(StatusAuthenticated, StatusUnauthenticated, eventReset,
		statemachine.WithActions(persistStatus),
	),
)

// Tracker is the two-state machine recording whether the current session has
// passed the second factor. Create one per session; it holds no state itself.
type Tracker struct {
	storage SessionStorage
}

// NewTracker binds a tracker to a session.
func NewTracker(storage SessionStorage) *Tracker {
	return &Tracker{storage: storage}
}

// Status returns the session's status. Sessions that were never written to,
// and unrecognised stored values, read as StatusUnauthenticated.
func (t *Tracker) Status(ctx context.Context) Status {
	if t == nil || t.storage == nil {
		return StatusUnauthenticated
	}

	val, ok := t.storage.Get(ctx, StatusKey)
	if !ok {
		return StatusUnauthenticated
	}

	var s Status
	switch v := val.(type) {
	case Status:
		s = v
	case string:
		s = Status(v)
	}

	if s == StatusAuthenticated {
		return StatusAuthenticated
	}
	return StatusUnauthenticated
}

// IsAuthenticated reports whether the second factor has been satisfied.
func (t *Tracker) IsAuthenticated(ctx context.Context) bool {
	return t.Status(ctx) == StatusAuthenticated
}

// Authenticate moves the session to StatusAuthenticated. It requires a
// successful verification and fails with ErrSessionNotAvailable when the
// status cannot be persisted.
func (t *Tracker) Authenticate(ctx context.Context, proof Verification) error {
	return t.fire(ctx, eventVerified, proof)
}

// Reset moves the session back to StatusUnauthenticated, e.g. on logout or
// when a new primary login starts.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.fire(ctx, eventReset, Verification{})
}

func (t *Tracker) fire(ctx context.Context, ev statemachine.Event, proof Verification) error {
	if t == nil || t.storage == nil {
		return ErrSessionNotAvailable
	}

	from := t.Status(ctx)
	_, err := statusMachine.Fire(ctx, from, ev, firing{storage: t.storage, proof: proof})
	switch {
	case err == nil:
		return nil
	case statemachine.IsTransitionRejectedError(err):
		return ErrVerificationRequired
	case statemachine.IsNoTransitionAvailableError(err):
		return fmt.Errorf("%w: %q from %q", ErrInvalidTransition, ev.Name(), from)
	default:
		return err
	}
}
