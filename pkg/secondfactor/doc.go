// Package secondfactor verifies one-time codes against the factors enrolled
// for an account and records per session whether the second factor has been
// passed.
//
// The package has three parts that share a Store of Factor records:
//
//   - Matcher checks a submitted code against every TOTP factor of an account
//     and yields a Verification. One matching factor is enough.
//   - Tracker is a two-state machine (unauthenticated, authenticated) kept in
//     session storage under StatusKey. It only moves to authenticated when
//     given a successful Verification, and only Matcher and Enroller can
//     produce one.
//   - Enroller generates a candidate secret with its otpauth:// URI and, once
//     the user proves possession with a valid code, stores the factor and
//     authenticates the session in the same step.
//
// # Usage
//
//	store := secondfactor.NewMemoryStore()
//	matcher := secondfactor.NewMatcher(store)
//	tracker := secondfactor.NewTracker(sessions.Scope(w, r))
//
//	v, err := matcher.Match(ctx, accountID, code, time.Now())
//	if err != nil {
//	    return err
//	}
//	if !v.OK() {
//	    // wrong code
//	}
//	if err := tracker.Authenticate(ctx, v); err != nil {
//	    return err // ErrSessionNotAvailable when the session cannot be written
//	}
//
// # Storage
//
// MemoryStore keeps factors in process. PostgresStore persists them in the
// second_factors table created by the goose migrations in Migrations and can
// seal secrets at rest through a SecretSealer such as *secretbox.Box.
//
// # Replay protection
//
// A TOTP code stays valid for the whole skew window. WithReplayGuard makes
// the matcher remember the last accepted step per account, in memory
// (MemoryReplayGuard) or in Redis (RedisReplayGuard), and reject codes that
// are not newer.
package secondfactor
