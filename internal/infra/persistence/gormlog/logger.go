// Package gormlog adapts gorm's logger to slog for every database the process opens.
package gormlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// Logger implements gorm/logger.Interface on top of slog.
// Each record carries the store name so local and identity queries can be told apart.
type Logger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
	redactParams  bool
}

// Option tunes a Logger.
type Option func(*Logger)

// WithRedactedParams keeps bound values out of logged SQL. The identity store binds password and token hashes.
func WithRedactedParams() Option {
	return func(l *Logger) { l.redactParams = true }
}

// WithSlowThreshold overrides the slow-query threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(l *Logger) { l.slowThreshold = d }
}

// New returns a gorm logger writing to base. debug enables per-query trace records.
func New(base *slog.Logger, store string, debug bool, opts ...Option) *Logger {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	l := &Logger{
		logger:        base.With(slog.String("store", store)),
		level:         level,
		slowThreshold: defaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.level < min {
		return
	}

	l.logger.LogAttrs(ctx, level, "gorm", slog.String("message", fmt.Sprintf(msg, args...)))
}

// ParamsFilter implements gorm's logger.ParamsFilter so redacted stores log placeholders only.
func (l *Logger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.redactParams {
		return sql, nil
	}

	return sql, params
}

func (l *Logger) Trace(ctx context.Context, begin time.Time, sqlAndRowsFn func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		attrs := append(l.queryAttrs(sqlAndRowsFn, elapsed), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "gorm query failed", attrs...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		attrs := append(l.queryAttrs(sqlAndRowsFn, elapsed), slog.Duration("slow_threshold", l.slowThreshold))
		l.logger.LogAttrs(ctx, slog.LevelWarn, "gorm slow query", attrs...)
	case l.level >= logger.Info:
		l.logger.LogAttrs(ctx, slog.LevelDebug, "gorm query", l.queryAttrs(sqlAndRowsFn, elapsed)...)
	}
}

func (l *Logger) queryAttrs(sqlAndRowsFn func() (string, int64), elapsed time.Duration) []slog.Attr {
	sql, rows := sqlAndRowsFn()

	return slices.Clip([]slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	})
}
