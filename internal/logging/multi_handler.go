package logging

import (
	"context"
	"log/slog"
)

// MultiHandler fans records out to several handlers, so the console
// handler and a JSON log-file sink can share one logger.
type MultiHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler wraps the given handlers.
func NewMultiHandler(sinks ...slog.Handler) *MultiHandler {
	return &MultiHandler{sinks: sinks}
}

// Enabled reports whether any sink wants records at this level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every sink enabled for its level.
// All sinks run even when one fails; the first error is returned.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, s := range m.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs derives a MultiHandler whose sinks all carry attrs.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = s.WithAttrs(attrs)
	}
	return NewMultiHandler(sinks...)
}

// WithGroup derives a MultiHandler whose sinks all open the group.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	sinks := make([]slog.Handler, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = s.WithGroup(name)
	}
	return NewMultiHandler(sinks...)
}
