// Package logging provides structured logging for the agentsync CLI built
// on log/slog. The default text handler is optimized for terminal output
// with optional colorization; JSON output is available for log files and
// non-interactive use. Values of attributes that look like credentials
// (tokens, API keys) are redacted before they reach any sink.
package logging
