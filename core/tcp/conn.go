// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cocowh/lineecho/core/iface"
	"github.com/cocowh/lineecho/pkg/buffer"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/google/uuid"
)

// Delimiter terminates every message on the wire.
const Delimiter = '\n'

// ConnOptions tunes a single connection.
type ConnOptions struct {
	// ReadTimeout bounds the wait for each message. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each echo write. Zero disables it.
	WriteTimeout time.Duration
	// MaxLineSize is the largest accepted message, delimiter excluded.
	// Zero means unbounded.
	MaxLineSize int
	ReaderSize  int
}

// NewConnOptions returns options with a 1 MiB line limit and no timeouts.
func NewConnOptions() *ConnOptions {
	return &ConnOptions{
		MaxLineSize: 1 << 20,
		ReaderSize:  buffer.DefaultReaderSize,
	}
}

type conn struct {
	id        string
	rawConn   net.Conn
	reader    *bufio.Reader
	ctx       context.Context
	cancel    context.CancelFunc
	state     atomic.Int32
	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
	// shutdown is set when a server shutdown forced the close.
	shutdown  atomic.Bool
	opts      ConnOptions
}

var _ iface.Connection = (*conn)(nil)

func newConn(c net.Conn, opts *ConnOptions) *conn {
	if opts == nil {
		opts = NewConnOptions()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cn := &conn{
		id:      uuid.NewString(),
		rawConn: c,
		reader:  buffer.AcquireReader(c, opts.ReaderSize),
		ctx:     ctx,
		cancel:  cancel,
		opts:    *opts,
	}
	cn.state.Store(int32(iface.StateAwaitingMessage))
	return cn
}

func (c *conn) ID() string {
	return c.id
}

func (c *conn) RemoteAddr() net.Addr {
	return c.rawConn.RemoteAddr()
}

func (c *conn) LocalAddr() net.Addr {
	return c.rawConn.LocalAddr()
}

func (c *conn) Context() context.Context {
	return c.ctx
}

func (c *conn) State() iface.State {
	return iface.State(c.state.Load())
}

// setState never leaves StateClosed.
func (c *conn) setState(s iface.State) {
	for {
		cur := c.state.Load()
		if iface.State(cur) == iface.StateClosed {
			return
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

func (c *conn) ReadMessage() ([]byte, error) {
	if c.closed.Load() {
		return nil, errors.ConnectionError(errors.ErrCodeConnectionClosed, "connection closed").WithContext("conn_id", c.id)
	}
	c.setState(iface.StateAwaitingMessage)

	if c.opts.ReadTimeout > 0 {
		if err := c.rawConn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return nil, errors.ReadError(c.id, err)
		}
	}

	msg, err := readLine(c.reader, c.opts.MaxLineSize)
	switch {
	case err == nil:
		return msg, nil
	case stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return nil, errors.PeerClosedEarly(c.id, len(msg))
	case c.shutdown.Load():
		return nil, errors.ShutdownError(c.id, err)
	case c.closed.Load() && stderrors.Is(err, net.ErrClosed):
		return nil, errors.Wrap(err, errors.ErrCodeConnectionClosed, errors.CategoryConnection, errors.LevelWarn, "connection closed locally").
			WithContext("conn_id", c.id)
	default:
		return nil, errors.ReadError(c.id, err)
	}
}

func (c *conn) WriteMessage(msg []byte) error {
	if c.closed.Load() {
		return errors.ConnectionError(errors.ErrCodeConnectionClosed, "connection closed").WithContext("conn_id", c.id)
	}
	c.setState(iface.StateEchoing)

	if c.opts.WriteTimeout > 0 {
		if err := c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return errors.WriteError(c.id, err)
		}
	}

	bufs := net.Buffers{msg, []byte{Delimiter}}
	if _, err := bufs.WriteTo(c.rawConn); err != nil {
		return errors.WriteError(c.id, err)
	}
	return nil
}

// Close is safe to call from any goroutine and unblocks a pending read or
// write on the connection.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.state.Store(int32(iface.StateClosed))
		c.cancel()
		c.closeErr = c.rawConn.Close()
	})
	return c.closeErr
}

// forceClose closes the connection on behalf of a server shutdown. A pending
// read then fails with a shutdown error.
func (c *conn) forceClose() error {
	c.shutdown.Store(true)
	return c.Close()
}

// release hands the read buffer back to the pool. Only the owning handler
// task may call it, after Serve has returned.
func (c *conn) release() {
	buffer.ReleaseReader(c.reader)
	c.reader = nil
}
