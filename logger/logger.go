// Package logger builds the zap loggers handed to every component.
package logger

import (
	"go.uber.org/zap"
)

// New returns a sugared logger: development output when debug is set, JSON production
// output otherwise.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Must is New that panics, for process start-up.
func Must(debug bool) *zap.SugaredLogger {
	l, err := New(debug)
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	return l
}

// Nop discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
