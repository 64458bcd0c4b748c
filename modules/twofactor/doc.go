// Package twofactor serves the HTTP side of the second factor: a challenge
// endpoint that checks a one-time password against the account's enrolled
// factors, an enrollment endpoint that provisions a new TOTP secret with a QR
// code, and a middleware that keeps protected routes behind both.
//
// The account is taken from the session bound by the primary login
// (session.Manager.Authenticate); this package never authenticates it.
//
// Usage:
//
//	svc := twofactor.NewService(cfg, sessions, store, matcher, enroller,
//		twofactor.WithLogger(log),
//	)
//
//	r := chi.NewRouter()
//	r.Use(sessions.Middleware)
//	r.Mount("/second-factor", svc.Handle())
//	r.With(svc.RequireSecondFactor).Get("/dashboard", dashboard)
//
// Routes mounted by Handle:
//
//	GET  /       challenge details: account, issuer, status, flashed message
//	POST /       check the "otp" form field, then 303 to the intercepted request
//	GET  /setup  new candidate secret, otpauth URI and QR code data URI
//	POST /setup  confirm the candidate with the "otp" form field and enroll it
//
// Enrollment is only allowed for accounts without factors or for sessions that
// already passed the second factor. Both successful POSTs rotate the session
// token.
package twofactor
