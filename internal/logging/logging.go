// Package logging holds the process-wide structured logger.
//
// Nothing is logged until Set is called; the default logger discards
// every record and reports itself disabled so callers skip formatting.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(Nop())
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// Set installs l as the active logger. Passing nil restores the silent default.
func Set(l *slog.Logger) {
	if l == nil {
		l = Nop()
	}
	loggerPtr.Store(l)
}

// L returns the active logger.
func L() *slog.Logger {
	return loggerPtr.Load()
}

// For returns the active logger tagged with a component name.
func For(component string) *slog.Logger {
	return loggerPtr.Load().With("component", component)
}
