// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"io"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxSizeMB = 100

// NewRollingWriter returns a size-rotated file writer for cfg.LogDir/cfg.BaseName.log.
func NewRollingWriter(cfg *Config) io.WriteCloser {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	baseName := cfg.BaseName
	if baseName == "" {
		baseName = "lineecho"
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, baseName+".log"),
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}
