// Package logger builds *slog.Logger instances for the second-factor service.
//
// New takes functional options for format, level, static attributes and
// context extractors. FromConfig maps the LOG_LEVEL, LOG_FORMAT, APP_ENV and
// APP_NAME environment settings onto those options. The attribute helpers in
// attr.go keep key names such as account_id and factor_id consistent, and
// return an empty slog.Attr for empty input so callers can pass them
// unconditionally:
//
//	log := logger.New(logger.WithDevelopment("twofactord"))
//	log.InfoContext(ctx, "second factor enrolled",
//	    logger.AccountID(accountID),
//	    logger.Error(err),
//	)
package logger
