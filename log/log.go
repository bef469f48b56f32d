// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the structured logger used across the codebase,
// backed by log/slog.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const errorKey = "LOG_ERROR"

// Log levels. Trace and Crit extend the slog levels.
const (
	LevelCrit  = slog.Level(12)
	LevelError = slog.LevelError
	LevelWarn  = slog.LevelWarn
	LevelInfo  = slog.LevelInfo
	LevelDebug = slog.LevelDebug
	LevelTrace = slog.Level(-8)
)

// LevelString returns the name of a level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCrit:
		return "crit"
	default:
		return l.String()
	}
}

// Logger writes key/value pairs to a Handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus ctx.
	With(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})

	// Crit logs a critical message then exits the process.
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	inner *slog.Logger // nil when bound to the root handler
	attrs []interface{}
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) With(ctx ...interface{}) Logger {
	if l.inner != nil {
		return &logger{inner: l.inner.With(ctx...)}
	}
	attrs := make([]interface{}, 0, len(l.attrs)+len(ctx))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, ctx...)
	return &logger{attrs: attrs}
}

func (l *logger) write(level slog.Level, msg string, ctx ...interface{}) {
	inner := l.inner
	if inner == nil {
		// root-bound loggers observe SetDefault calls made after their creation
		inner = slog.New(rootHandler.Load().(handlerHolder).h)
		if len(l.attrs) > 0 {
			inner = inner.With(l.attrs...)
		}
	}
	inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LevelError, msg, ctx...) }

func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// handlerHolder keeps the stored concrete type stable for atomic.Value.
type handlerHolder struct {
	h slog.Handler
}

var rootHandler atomic.Value

func init() {
	rootHandler.Store(handlerHolder{DiscardHandler()})
}

// SetDefault sets the handler the root logger and all loggers derived from
// it write to.
func SetDefault(h slog.Handler) {
	rootHandler.Store(handlerHolder{h})
}

// Root returns the root logger.
func Root() Logger {
	return &logger{}
}

// WithContext returns a logger derived from the root logger with the
// given context attributes attached.
func WithContext(ctx ...interface{}) Logger {
	return Root().With(ctx...)
}
