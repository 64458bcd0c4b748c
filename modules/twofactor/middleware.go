package twofactor

import (
	"net/http"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/session"
)

// RequireSecondFactor protects next behind the second factor. Sessions that
// have not passed it are redirected to the challenge, or to setup when the
// account has no factor yet. The URL of an intercepted GET request is kept in
// the session so the flow can return to it afterwards.
func (s *Service) RequireSecondFactor(next http.Handler) http.Handler {
	return s.sessions.RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, _ := session.AccountIDFromContext(ctx)
		scope := s.sessions.Scope(w, r)

		if secondfactor.NewTracker(scope).IsAuthenticated(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		factors, err := s.store.FindByAccount(ctx, accountID)
		if err != nil {
			s.fail(ctx, w, "failed to look up second factors", err, logger.AccountID(accountID))
			return
		}

		if r.Method == http.MethodGet {
			if err := scope.Set(ctx, InterceptedRequestKey, r.URL.RequestURI()); err != nil {
				s.logger.WarnContext(ctx, "failed to remember intercepted request", logger.AccountID(accountID), logger.Error(err))
			}
		}

		target := s.config.ChallengePath
		if len(factors) == 0 {
			target = s.config.SetupPath
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}))
}
