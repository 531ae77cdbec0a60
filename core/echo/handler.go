// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package echo

import (
	"github.com/cocowh/lineecho/core/iface"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
)

type Options struct {
	Mode         Mode
	EventHandler iface.EventHandler
	ErrorManager *errors.ErrorManager
	Logger       logger.Logger
}

// Handler runs the AWAITING_MESSAGE -> ECHOING -> CLOSED state machine of
// one connection.
type Handler struct {
	mode   Mode
	events iface.EventHandler
	errs   *errors.ErrorManager
	log    logger.Logger
}

var _ iface.Handler = (*Handler)(nil)

func NewHandler(opts *Options) *Handler {
	if opts == nil {
		opts = &Options{}
	}
	h := &Handler{
		mode:   opts.Mode,
		events: opts.EventHandler,
		errs:   opts.ErrorManager,
		log:    opts.Logger,
	}
	if h.log == nil {
		h.log = logger.Default()
	}
	if h.events == nil {
		h.events = NewLoggingEventHandler(h.log)
	}
	if h.errs == nil {
		h.errs = errors.NewErrorManager(h.log)
	}
	return h
}

func (h *Handler) Mode() Mode {
	return h.mode
}

// Serve echoes lines back until the mode's policy or the connection ends the
// session. The connection is closed on every return path.
func (h *Handler) Serve(conn iface.Connection) {
	defer func() {
		_ = conn.Close()
		h.events.OnClose(conn)
	}()

	h.events.OnConnect(conn)
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			h.fail(conn, err)
			return
		}
		h.events.OnMessage(conn, msg)

		if err := conn.WriteMessage(msg); err != nil {
			h.fail(conn, err)
			return
		}
		if h.mode == SingleShot {
			return
		}
	}
}

func (h *Handler) fail(conn iface.Connection, err error) {
	if errors.IsPeerClosed(err) {
		h.log.Debugf("peer %s closed connection %s: %v", conn.RemoteAddr(), conn.ID(), err)
		return
	}
	h.events.OnError(conn, h.errs.Handle(err))
}
