package logger

import (
	"context"

	"go.uber.org/zap"
)

var global = zap.Must(zap.NewProduction()).Sugar()

// Init replaces the process logger. debug switches to the development
// encoder with debug level enabled.
func Init(debug bool) {
	var l *zap.Logger
	if debug {
		l = zap.Must(zap.NewDevelopment())
	} else {
		l = zap.Must(zap.NewProduction())
	}
	global = l.Sugar()
}

func Sync() {
	_ = global.Sync()
}

func Debugf(_ context.Context, format string, args ...any) {
	global.Debugf(format, args...)
}

func Infof(_ context.Context, format string, args ...any) {
	global.Infof(format, args...)
}

func Warnf(_ context.Context, format string, args ...any) {
	global.Warnf(format, args...)
}

func Errorf(_ context.Context, format string, args ...any) {
	global.Errorf(format, args...)
}

func Error(_ context.Context, args ...any) {
	global.Error(args...)
}

func Fatal(_ context.Context, args ...any) {
	global.Fatal(args...)
}
