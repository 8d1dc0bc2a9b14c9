// Package logging configures structured logging for quotegate.
//
// Loggers are plain *slog.Logger values. Setup installs one as the slog
// default so components can log through slog.Default().With("component", ...)
// without carrying a logger around.
//
// The handler returned by New adds the request ID and correlation token
// stored in the record's context:
//
//	ctx = logging.WithRequestID(ctx, id)
//	ctx = logging.WithToken(ctx, tok)
//	slog.InfoContext(ctx, "submission ready")
//
// With PII redaction enabled, email addresses, PEM private keys (including
// the private_key field of a service account JSON) and bearer tokens are
// masked in every string attribute and in the message itself. Attributes
// whose key names a secret (password, api_key, credentials, ...) are hidden
// entirely.
package logging
