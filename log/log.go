// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log binds package scoped loggers to the go-ethereum slog root.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels re-exported for flag parsing.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Legacy verbosity numbers, as taken by NewHandler.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Logger writes key/value pairs.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	Enabled(ctx context.Context, level slog.Level) bool
}

// WithContext returns a logger carrying ctx on every record.
// The root is resolved when a record is written, so package level loggers
// pick up handlers installed later by SetDefault.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

// SetDefault installs h as the handler of the root logger.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// NewHandler builds the handler used by the command line.
// format is one of "terminal", "json" or "logfmt".
func NewHandler(w io.Writer, format string, verbosity int, useColor bool) slog.Handler {
	var h slog.Handler
	switch format {
	case "json":
		h = ethlog.JSONHandler(w)
	case "logfmt":
		h = ethlog.LogfmtHandler(w)
	default:
		h = ethlog.NewTerminalHandler(w, useColor)
	}
	glog := ethlog.NewGlogHandler(h)
	glog.Verbosity(ethlog.FromLegacyLevel(verbosity))
	return glog
}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

type contextLogger struct {
	ctx []any
}

func (l *contextLogger) merge(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	return append(append(merged, l.ctx...), ctx...)
}

func (l *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{ctx: l.merge(ctx)}
}

func (l *contextLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.merge(ctx)...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.merge(ctx)...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.merge(ctx)...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.merge(ctx)...) }
func (l *contextLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.merge(ctx)...) }
func (l *contextLogger) Crit(msg string, ctx ...any)  { ethlog.Root().Crit(msg, l.merge(ctx)...) }

func (l *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return ethlog.Root().Enabled(ctx, level)
}
