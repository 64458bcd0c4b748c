package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/qrcode"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/session"
)

// Session data keys used by the flow.
const (
	PendingSecretKey      = "second_factor.pending_secret"
	InterceptedRequestKey = "second_factor.intercepted_request"
	FlashKey              = "second_factor.flash"
)

// EnrolledMessage is flashed to the session after a factor has been added.
const EnrolledMessage = "Successfully created OTP."

// OTPField is the form field carrying the submitted code.
const OTPField = "otp"

// Mountable is implemented by services exposing their own routes.
type Mountable interface {
	Handle() http.Handler
}

var _ Mountable = (*Service)(nil)

// AttemptLimiter throttles code submissions per account.
// *ratelimiter.Limiter implements it.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (ratelimiter.Result, error)
	Reset(ctx context.Context, key string) error
}

// Service serves the second-factor challenge and enrollment endpoints.
type Service struct {
	config   Config
	sessions *session.Manager
	store    secondfactor.Store
	matcher  *secondfactor.Matcher
	enroller *secondfactor.Enroller
	sealer   secondfactor.SecretSealer
	limiter  AttemptLimiter
	issuer   func(*http.Request) string
	now      func() time.Time
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithIssuerFunc resolves the issuer shown in authenticator apps per request,
// e.g. from the site the request was made to. An empty result falls back to
// Config.Issuer.
func WithIssuerFunc(fn func(*http.Request) string) ServiceOption {
	return func(s *Service) { s.issuer = fn }
}

// WithPendingSecretSealer encrypts the candidate secret while it waits in the
// session for confirmation.
func WithPendingSecretSealer(sealer secondfactor.SecretSealer) ServiceOption {
	return func(s *Service) { s.sealer = sealer }
}

// WithAttemptLimiter limits how many codes an account may submit to the
// challenge and setup endpoints. The budget is restored after a success.
func WithAttemptLimiter(l AttemptLimiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithClock overrides the time source used for code verification.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires the second-factor flow to the session manager and factor store.
func NewService(
	cfg Config,
	sessions *session.Manager,
	store secondfactor.Store,
	matcher *secondfactor.Matcher,
	enroller *secondfactor.Enroller,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		config:   cfg,
		sessions: sessions,
		store:    store,
		matcher:  matcher,
		enroller: enroller,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("twofactor"))
	return s
}

// Handle returns the router for the challenge ("/") and enrollment ("/setup")
// endpoints. Every route requires a session bound to an account.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.sessions.RequireAccount)

	r.Get("/", s.askForSecondFactor)
	r.Post("/", s.checkOTP)
	r.Get("/setup", s.setupSecondFactor)
	r.Post("/setup", s.createSecondFactor)

	return r
}

type challengeResponse struct {
	Account string `json:"account"`
	Issuer  string `json:"issuer"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Service) askForSecondFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := session.AccountIDFromContext(ctx)
	scope := s.sessions.Scope(w, r)

	writeData(w, challengeResponse{
		Account: accountID,
		Issuer:  s.issuerFor(r),
		Status:  string(secondfactor.NewTracker(scope).Status(ctx)),
		Message: s.popFlash(ctx, scope),
	})
}

func (s *Service) checkOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := session.AccountIDFromContext(ctx)

	if !s.allowAttempt(w, r, accountID) {
		return
	}

	proof, err := s.matcher.Match(ctx, accountID, submittedOTP(r), s.now())
	if err != nil {
		s.fail(ctx, w, "failed to check one-time password", err, logger.AccountID(accountID))
		return
	}
	if !proof.OK() {
		writeError(w, ErrInvalidOTP)
		return
	}

	scope := s.sessions.Scope(w, r)
	tracker := secondfactor.NewTracker(scope)
	if err := tracker.Authenticate(ctx, proof); err != nil {
		s.fail(ctx, w, "failed to store second factor status", err, logger.AccountID(accountID))
		return
	}
	if err := scope.Rotate(ctx); err != nil {
		s.fail(ctx, w, "failed to rotate session after second factor", err, logger.AccountID(accountID))
		return
	}

	s.logger.InfoContext(ctx, "second factor passed",
		logger.AccountID(accountID),
		logger.FactorID(proof.FactorID()),
		logger.Status(tracker.Status(ctx)),
	)
	s.resetAttempts(ctx, accountID)
	s.resume(w, r, scope)
}

type setupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

func (s *Service) setupSecondFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := session.AccountIDFromContext(ctx)
	scope := s.sessions.Scope(w, r)

	if err := s.canEnroll(ctx, scope, accountID); err != nil {
		s.fail(ctx, w, "second factor setup refused", err, logger.AccountID(accountID))
		return
	}

	candidate, err := s.enroller.Begin(accountID, s.issuerFor(r))
	if err != nil {
		s.fail(ctx, w, "failed to generate second factor", err, logger.AccountID(accountID))
		return
	}

	qr, err := qrcode.DataURI(candidate.URI, s.config.QRCodeSize)
	if err != nil {
		s.fail(ctx, w, "failed to render provisioning qr code", err, logger.AccountID(accountID))
		return
	}

	pending, err := s.sealPending(accountID, candidate.Secret)
	if err != nil {
		s.fail(ctx, w, "failed to seal pending secret", err, logger.AccountID(accountID))
		return
	}
	if err := scope.Set(ctx, PendingSecretKey, pending); err != nil {
		s.fail(ctx, w, "failed to store pending secret", errors.Join(secondfactor.ErrSessionNotAvailable, err), logger.AccountID(accountID))
		return
	}

	writeData(w, setupResponse{
		Secret: candidate.Secret,
		URI:    candidate.URI,
		QRCode: qr,
	})
}

func (s *Service) createSecondFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := session.AccountIDFromContext(ctx)
	scope := s.sessions.Scope(w, r)

	if err := s.canEnroll(ctx, scope, accountID); err != nil {
		s.fail(ctx, w, "second factor setup refused", err, logger.AccountID(accountID))
		return
	}

	pending, ok := scope.GetString(ctx, PendingSecretKey)
	if !ok || pending == "" {
		writeError(w, ErrSetupNotStarted)
		return
	}
	if !s.allowAttempt(w, r, accountID) {
		return
	}
	secret, err := s.openPending(accountID, pending)
	if err != nil {
		_ = scope.Delete(ctx, PendingSecretKey)
		s.fail(ctx, w, "failed to open pending secret", err, logger.AccountID(accountID))
		return
	}

	enrolled, err := s.enroller.Confirm(ctx, secondfactor.NewTracker(scope), accountID, secret, submittedOTP(r), s.now())
	if err != nil {
		s.fail(ctx, w, "failed to enroll second factor", err, logger.AccountID(accountID))
		return
	}

	// The candidate is single use: a wrong code means starting over with a new secret.
	if err := scope.Delete(ctx, PendingSecretKey); err != nil {
		s.logger.WarnContext(ctx, "failed to discard pending secret", logger.AccountID(accountID), logger.Error(err))
	}

	if !enrolled {
		writeError(w, ErrSetupOTPIncorrect)
		return
	}
	if err := scope.Rotate(ctx); err != nil {
		s.fail(ctx, w, "failed to rotate session after enrollment", err, logger.AccountID(accountID))
		return
	}
	if err := scope.Set(ctx, FlashKey, EnrolledMessage); err != nil {
		s.logger.WarnContext(ctx, "failed to flash enrollment message", logger.AccountID(accountID), logger.Error(err))
	}
	s.resetAttempts(ctx, accountID)
	s.resume(w, r, scope)
}

// canEnroll allows adding a factor to accounts without one, or to sessions
// that already passed the second factor.
func (s *Service) canEnroll(ctx context.Context, scope *session.Scope, accountID string) error {
	if secondfactor.NewTracker(scope).IsAuthenticated(ctx) {
		return nil
	}

	factors, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if len(factors) > 0 {
		return ErrSetupNotAllowed
	}
	return nil
}

// allowAttempt consumes one attempt of the account's budget and writes a 429
// when it is exhausted.
func (s *Service) allowAttempt(w http.ResponseWriter, r *http.Request, accountID string) bool {
	if s.limiter == nil {
		return true
	}

	ctx := r.Context()
	res, err := s.limiter.Allow(ctx, accountID)
	if err != nil {
		s.fail(ctx, w, "failed to check attempt budget", err, logger.AccountID(accountID))
		return false
	}
	if !res.Allowed {
		if retry := res.RetryAfter(time.Now()); retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
		}
		s.logger.WarnContext(ctx, "too many one-time password attempts", logger.AccountID(accountID))
		writeError(w, ErrTooManyAttempts)
		return false
	}
	return true
}

func (s *Service) resetAttempts(ctx context.Context, accountID string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, accountID); err != nil {
		s.logger.WarnContext(ctx, "failed to reset attempt budget", logger.AccountID(accountID), logger.Error(err))
	}
}

// resume redirects to the request intercepted by RequireSecondFactor, or to
// the default location.
func (s *Service) resume(w http.ResponseWriter, r *http.Request, scope *session.Scope) {
	ctx := r.Context()
	target := s.config.DefaultRedirect

	if intercepted, ok := scope.GetString(ctx, InterceptedRequestKey); ok {
		if isLocalPath(intercepted) {
			target = intercepted
		}
		if err := scope.Delete(ctx, InterceptedRequestKey); err != nil {
			s.logger.WarnContext(ctx, "failed to clear intercepted request", logger.Error(err))
		}
	}

	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// popFlash returns and clears the flashed message, if any.
func (s *Service) popFlash(ctx context.Context, scope *session.Scope) string {
	msg, ok := scope.GetString(ctx, FlashKey)
	if !ok {
		return ""
	}
	if err := scope.Delete(ctx, FlashKey); err != nil {
		s.logger.WarnContext(ctx, "failed to clear flash message", logger.Error(err))
	}
	return msg
}

func (s *Service) issuerFor(r *http.Request) string {
	if s.issuer != nil {
		if issuer := s.issuer(r); issuer != "" {
			return issuer
		}
	}
	return s.config.Issuer
}

func (s *Service) sealPending(accountID, secret string) (string, error) {
	if s.sealer == nil {
		return secret, nil
	}
	return s.sealer.Seal(secret, pendingScope(accountID))
}

func (s *Service) openPending(accountID, pending string) (string, error) {
	if s.sealer == nil {
		return pending, nil
	}
	return s.sealer.Open(pending, pendingScope(accountID))
}

// fail logs server-side failures and writes the mapped error response.
func (s *Service) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	if toHTTPError(err).status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, msg, append(attrs, logger.Error(err))...)
	} else {
		s.logger.InfoContext(ctx, msg, append(attrs, logger.Error(err))...)
	}
	writeError(w, err)
}

func pendingScope(accountID string) string {
	return "pending:" + accountID
}

func submittedOTP(r *http.Request) string {
	return strings.TrimSpace(r.PostFormValue(OTPField))
}

// isLocalPath accepts absolute paths on this host only.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
