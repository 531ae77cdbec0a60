// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger Logger = NewNop()
)

type Logger interface {
	Debugf(format string, args ...any)
	Debug(args ...any)
	Infof(format string, args ...any)
	Info(args ...any)
	Warnf(format string, args ...any)
	Warn(args ...any)
	Errorf(format string, args ...any)
	Error(args ...any)
	Fatalf(format string, args ...any)
	Fatal(args ...any)
}

// InitDefaultLogger builds a zap logger from config and installs it as the
// package default.
func InitDefaultLogger(config *Config) (Logger, error) {
	l, err := NewZapLoggerWithConfig(config)
	if err != nil {
		return nil, err
	}
	SetDefault(l)
	return l, nil
}

func SetDefault(l Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// With attaches key/value pairs when l supports it, otherwise returns l.
func With(l Logger, keysAndValues ...any) Logger {
	if zl, ok := l.(interface{ With(...any) Logger }); ok {
		return zl.With(keysAndValues...)
	}
	return l
}

func Debugf(msg string, fields ...any) {
	Default().Debugf(msg, fields...)
}

func Debug(fields ...any) {
	Default().Debug(fields...)
}

func Infof(msg string, fields ...any) {
	Default().Infof(msg, fields...)
}

func Info(fields ...any) {
	Default().Info(fields...)
}

func Warnf(msg string, fields ...any) {
	Default().Warnf(msg, fields...)
}

func Warn(fields ...any) {
	Default().Warn(fields...)
}

func Errorf(msg string, fields ...any) {
	Default().Errorf(msg, fields...)
}

func Error(fields ...any) {
	Default().Error(fields...)
}

func Fatalf(msg string, fields ...any) {
	Default().Fatalf(msg, fields...)
}

func Fatal(fields ...any) {
	Default().Fatal(fields...)
}
