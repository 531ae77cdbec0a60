// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"errors"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewZapLoggerWithConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	var (
		cores   []zapcore.Core
		closers []io.Closer
	)
	level := zap.NewAtomicLevelAt(cfg.Level.toZapLevel())

	if cfg.EnableStdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, err
		}
		mainWriter := NewRollingWriter(cfg)
		closers = append(closers, mainWriter)
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(mainWriter), level))

		if cfg.EnableErrorFile {
			errorCfg := cfg.Clone()
			if errorCfg.BaseName == "" {
				errorCfg.BaseName = "lineecho"
			}
			errorCfg.BaseName += "-error"
			errorWriter := NewRollingWriter(errorCfg)
			closers = append(closers, errorWriter)
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(errorWriter), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.ErrorLevel
			})))
		}
	}

	if len(cores) == 0 {
		return NewNop(), nil
	}

	l := NewZapLogger(zapcore.NewTee(cores...))
	l.closers = closers
	return l, nil
}

// NewZapLogger wraps an existing core, e.g. an observer core in tests.
func NewZapLogger(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

type ZapLogger struct {
	logger  *zap.SugaredLogger
	closers []io.Closer
}

func (z *ZapLogger) Debugf(format string, args ...any) {
	z.logger.Debugf(format, args...)
}

func (z *ZapLogger) Debug(args ...any) {
	z.logger.Debug(args...)
}

func (z *ZapLogger) Infof(format string, args ...any) {
	z.logger.Infof(format, args...)
}

func (z *ZapLogger) Info(args ...any) {
	z.logger.Info(args...)
}

func (z *ZapLogger) Warnf(format string, args ...any) {
	z.logger.Warnf(format, args...)
}

func (z *ZapLogger) Warn(args ...any) {
	z.logger.Warn(args...)
}

func (z *ZapLogger) Errorf(format string, args ...any) {
	z.logger.Errorf(format, args...)
}

func (z *ZapLogger) Error(args ...any) {
	z.logger.Error(args...)
}

func (z *ZapLogger) Fatalf(format string, args ...any) {
	z.logger.Fatalf(format, args...)
}

func (z *ZapLogger) Fatal(args ...any) {
	z.logger.Fatal(args...)
}

// With returns a child logger carrying the given key/value pairs.
func (z *ZapLogger) With(keysAndValues ...any) Logger {
	return &ZapLogger{logger: z.logger.With(keysAndValues...)}
}

// Close flushes buffered entries and closes rotated files.
func (z *ZapLogger) Close() error {
	// stdout sync fails with EINVAL on terminals, ignore it
	_ = z.logger.Sync()
	var err error
	for _, c := range z.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
