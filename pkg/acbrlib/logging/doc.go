// Package logging provides the logging facade used by the acbrlib loader and
// bindings.
//
// Library code never picks a logging backend. It accepts a Logger, a small
// context-aware interface modelled on log/slog, and the application decides
// where the records go:
//
//	// slog.Default()
//	logger := logging.New(nil)
//
//	// custom slog handler
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	logger = logging.New(slog.New(handler))
//
//	// drop everything (tests, embedded use)
//	logger = logging.Nop()
//
// # Redaction
//
// Values such as the eSocial crypt key must never reach a log sink. Log the
// attribute through Redacted so the record still shows that a value was
// supplied:
//
//	logger.Info(ctx, "initializing library", "config", path, logging.Redacted("crypt_key"))
//	// crypt_key="[redacted]"
package logging
