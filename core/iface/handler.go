// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iface

// Handler serves one connection until it reaches StateClosed. Serve must not
// return before the connection is closed.
type Handler interface {
	Serve(conn Connection)
}

// EventHandler observes the connection lifecycle. Callbacks run on the
// connection's own goroutine.
type EventHandler interface {
	OnConnect(conn Connection)
	OnMessage(conn Connection, msg []byte)
	OnClose(conn Connection)
	OnError(conn Connection, err error)
}

type HandlerFunc func(conn Connection)

func (f HandlerFunc) Serve(conn Connection) {
	f(conn)
}
