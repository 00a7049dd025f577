// Package logger provides a thin context-scoped wrapper around logrus.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.StandardLogger()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

// SetLevel sets the global log level (e.g. "debug", "info", "warn").
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// WithFields attaches structured fields to ctx, returned by future GetLogger calls.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	entry := entryFromContext(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// CloneContext detaches ctx from cancellation while preserving its logger fields,
// for use by background goroutines that must outlive the originating request.
func CloneContext(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, entryFromContext(ctx))
}

// GetLogger returns the logrus entry scoped to ctx, creating a bare one if absent.
func GetLogger(ctx context.Context) *logrus.Entry {
	return entryFromContext(ctx)
}

func entryFromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(base)
}

// Infof logs at info level using the context's scoped logger.
func Infof(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Infof(format, args...)
}

// Warnf logs at warn level using the context's scoped logger.
func Warnf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Warnf(format, args...)
}

// Errorf logs at error level using the context's scoped logger.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	GetLogger(ctx).Errorf(format, args...)
}
