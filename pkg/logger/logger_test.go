// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel} {
		parsed, err := ParseLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	parsed, err := ParseLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, parsed)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestZapLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	l, err := NewZapLoggerWithConfig(&Config{
		LogDir:          dir,
		BaseName:        "echo",
		Format:          "json",
		Level:           InfoLevel,
		EnableErrorFile: true,
	})
	require.NoError(t, err)

	l.Debugf("hidden %d", 1)
	l.Infof("hello %s", "file")
	l.Errorf("bad %s", "thing")
	require.NoError(t, l.(*ZapLogger).Close())

	main, err := os.ReadFile(filepath.Join(dir, "echo.log"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "hello file")
	assert.Contains(t, string(main), "bad thing")
	assert.NotContains(t, string(main), "hidden")

	errorsOnly, err := os.ReadFile(filepath.Join(dir, "echo-error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errorsOnly), "bad thing")
	assert.NotContains(t, string(errorsOnly), "hello file")
}

func TestZapLogger_NoOutputIsNop(t *testing.T) {
	l, err := NewZapLoggerWithConfig(&Config{})
	require.NoError(t, err)
	l.Info("discarded")

	_, err = NewZapLoggerWithConfig(nil)
	assert.Error(t, err)
}

func TestDefaultLoggerAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(NewZapLogger(core))
	Warnf("pkg level %d", 1)
	With(Default(), "conn_id", "abc").Infof("with fields")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "pkg level 1", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, "abc", logs.All()[1].ContextMap()["conn_id"])

	SetDefault(nil)
	assert.NotNil(t, Default())
}
