// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iface

import (
	"context"
	"net"
)

// State is the position of a connection in its echo lifecycle.
type State int32

const (
	StateAwaitingMessage State = iota
	StateEchoing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingMessage:
		return "AWAITING_MESSAGE"
	case StateEchoing:
		return "ECHOING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection is one accepted byte stream, owned by a single handler task.
type Connection interface {
	ID() string
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
	State() State
	// ReadMessage blocks until a full line arrives and returns it without
	// the delimiter.
	ReadMessage() ([]byte, error)
	// WriteMessage writes msg followed by the delimiter.
	WriteMessage(msg []byte) error
	Close() error
	Context() context.Context
}
