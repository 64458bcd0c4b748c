// Command twofactord serves the second-factor challenge and enrollment flow
// behind a reverse proxy that has already authenticated the account and passes
// it in a trusted header.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/twofactor/modules/twofactor"
	"github.com/dmitrymomot/twofactor/pkg/config"
	"github.com/dmitrymomot/twofactor/pkg/cookie"
	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/redis"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/secretbox"
	"github.com/dmitrymomot/twofactor/pkg/session"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// appConfig holds the daemon-level settings.
type appConfig struct {
	Store         string `env:"SECOND_FACTOR_STORE" envDefault:"memory"` // memory or postgres
	AccountHeader string `env:"ACCOUNT_HEADER" envDefault:"X-Account-ID"`
	MountPath     string `env:"SECOND_FACTOR_MOUNT_PATH" envDefault:"/second-factor"`
}

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)

	logOpts, err := logger.FromConfig(logCfg)
	if err != nil {
		slog.Error("invalid logger configuration", logger.Error(err))
		os.Exit(1)
	}
	log := logger.New(append(logOpts, logger.WithContextExtractors(requestid.LoggerExtractor()))...)
	logger.SetAsDefault(log)

	if err := run(context.Background(), log); err != nil {
		log.Error("twofactord stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg     appConfig
		totpCfg    totp.Config
		sfCfg      secondfactor.Config
		boxCfg     secretbox.Config
		cookieCfg  cookie.Config
		sessionCfg session.Config
		redisCfg   redis.Config
		limitCfg   ratelimiter.Config
		httpCfg    httpserver.Config
		flowCfg    twofactor.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&totpCfg) },
		func() error { return config.Load(&sfCfg) },
		func() error { return config.Load(&boxCfg) },
		func() error { return config.Load(&cookieCfg) },
		func() error { return config.Load(&sessionCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&limitCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&flowCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	if err := totpCfg.Validate(); err != nil {
		return err
	}
	totpOpts := totpCfg.Options()

	box, err := secretbox.NewFromConfig(boxCfg)
	if err != nil {
		return err
	}

	var readiness []func(context.Context) error

	var store secondfactor.Store
	switch appCfg.Store {
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, secondfactor.Migrations, "migrations", log); err != nil {
			return err
		}
		store = secondfactor.NewPostgresStore(pool, box)
		readiness = append(readiness, pg.Healthcheck(pool))
	case "memory", "":
		log.Warn("second factors are kept in memory and lost on restart")
		store = secondfactor.NewMemoryStore()
	default:
		return fmt.Errorf("unknown SECOND_FACTOR_STORE %q: must be memory or postgres", appCfg.Store)
	}

	var (
		redisClient   *goredis.Client
		sessionStore  session.Store
		replayGuard   secondfactor.ReplayGuard
		attemptsStore ratelimiter.Store
	)
	replayTTL := secondfactor.ReplayWindow(totpCfg.Period, totpCfg.Skew)

	if redisCfg.Enabled() {
		redisClient, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		sessionStore = session.NewRedisStore(redisClient, session.DefaultRedisKeyPrefix)
		replayGuard = secondfactor.NewRedisReplayGuard(redisClient, sfCfg.ReplayKeyPrefix, replayTTL)
		attemptsStore = ratelimiter.NewRedisStore(redisClient)
		readiness = append(readiness, redis.Healthcheck(redisClient))
	} else {
		memSessions := session.NewMemoryStore(sessionCfg.CleanupInterval)
		defer memSessions.Close()
		memAttempts := ratelimiter.NewMemoryStore()
		defer memAttempts.Close()

		sessionStore = memSessions
		replayGuard = secondfactor.NewMemoryReplayGuard(replayTTL)
		attemptsStore = memAttempts
	}

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return err
	}
	sessions := session.NewFromConfig(sessionCfg,
		session.WithStore(sessionStore),
		session.WithCookieManager(cookies),
		session.WithLogger(log),
	)

	matcherOpts := []secondfactor.MatcherOption{
		secondfactor.WithMatcherLogger(log),
		secondfactor.WithMatcherTOTPOptions(totpOpts...),
	}
	enrollerOpts := []secondfactor.EnrollerOption{
		secondfactor.WithEnrollerLogger(log),
		secondfactor.WithEnrollerTOTPOptions(totpOpts...),
	}
	if sfCfg.ReplayProtection {
		matcherOpts = append(matcherOpts, secondfactor.WithReplayGuard(replayGuard))
		enrollerOpts = append(enrollerOpts, secondfactor.WithEnrollerReplayGuard(replayGuard))
	}
	matcher := secondfactor.NewMatcher(store, matcherOpts...)
	enroller := secondfactor.NewEnroller(store, enrollerOpts...)

	svcOpts := []twofactor.ServiceOption{
		twofactor.WithLogger(log),
		twofactor.WithPendingSecretSealer(box),
	}
	if limitCfg.Enabled {
		limiter, err := ratelimiter.New(attemptsStore, limitCfg)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, twofactor.WithAttemptLimiter(limiter))
	}
	svc := twofactor.NewService(flowCfg, sessions, store, matcher, enroller, svcOpts...)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, readiness...))

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Use(trustedAccount(sessions, appCfg.AccountHeader, log))

		r.Mount(appCfg.MountPath, svc.Handle())
		r.With(svc.RequireSecondFactor).Get("/", func(w http.ResponseWriter, r *http.Request) {
			accountID, _ := session.AccountIDFromContext(r.Context())
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("second factor passed for " + accountID + "\n"))
		})
	})

	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

// trustedAccount binds the account named in header by the upstream proxy to
// the session. A different account than the one in the session starts over,
// which also drops a passed second factor.
func trustedAccount(sessions *session.Manager, header string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := r.Header.Get(header)
			if accountID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if current, ok := session.AccountIDFromContext(r.Context()); ok && current == accountID {
				next.ServeHTTP(w, r)
				return
			}

			s, err := sessions.Authenticate(r.Context(), w, r, accountID)
			if err != nil {
				log.ErrorContext(r.Context(), "failed to bind account to session", logger.AccountID(accountID), logger.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}
