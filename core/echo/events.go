// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package echo

import (
	"github.com/cocowh/lineecho/core/iface"
	"github.com/cocowh/lineecho/pkg/logger"
)

type LoggingEventHandler struct {
	log logger.Logger
}

func NewLoggingEventHandler(log logger.Logger) *LoggingEventHandler {
	if log == nil {
		log = logger.Default()
	}
	return &LoggingEventHandler{log: log}
}

func (l *LoggingEventHandler) OnConnect(conn iface.Connection) {
	l.log.Infof("new client connected, id: %s, remote: %s", conn.ID(), conn.RemoteAddr())
}

func (l *LoggingEventHandler) OnMessage(conn iface.Connection, msg []byte) {
	l.log.Debugf("received message, id: %s, bytes: %d", conn.ID(), len(msg))
}

func (l *LoggingEventHandler) OnClose(conn iface.Connection) {
	l.log.Debugf("connection closed, id: %s", conn.ID())
}

// OnError is a no-op: the error manager already logged the failure.
func (l *LoggingEventHandler) OnError(iface.Connection, error) {}

// NopEventHandler ignores every event.
type NopEventHandler struct{}

func (NopEventHandler) OnConnect(iface.Connection)         {}
func (NopEventHandler) OnMessage(iface.Connection, []byte) {}
func (NopEventHandler) OnClose(iface.Connection)           {}
func (NopEventHandler) OnError(iface.Connection, error)    {}
