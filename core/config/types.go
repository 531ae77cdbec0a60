// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/cocowh/lineecho/core/echo"
	"github.com/cocowh/lineecho/pkg/logger"
)

type ServerConfig struct {
	Address      string
	Port         int
	Mode         echo.Mode
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxLineSize  int
}

// ListenAddr joins Address and Port, bracketing IPv6 hosts.
func (c ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

type LoggerConfig struct {
	Level           logger.Level
	Format          string
	Stdout          bool
	LogDir          string
	BaseName        string
	MaxSizeMB       int
	MaxAgeDays      int
	MaxBackups      int
	Compress        bool
	EnableErrorFile bool
}

func (c LoggerConfig) ToLoggerConfig() *logger.Config {
	return &logger.Config{
		LogDir:          c.LogDir,
		BaseName:        c.BaseName,
		Format:          c.Format,
		Level:           c.Level,
		Compress:        c.Compress,
		MaxSizeMB:       c.MaxSizeMB,
		MaxBackups:      c.MaxBackups,
		MaxAgeDays:      c.MaxAgeDays,
		EnableStdout:    c.Stdout,
		EnableErrorFile: c.EnableErrorFile,
	}
}
