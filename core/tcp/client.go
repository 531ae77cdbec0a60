// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cocowh/lineecho/pkg/buffer"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
)

type ClientOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxLineSize    int
	Logger         logger.Logger
}

func NewClientOptions() *ClientOptions {
	return &ClientOptions{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxLineSize:    NewConnOptions().MaxLineSize,
	}
}

// Client sends lines to an echo server and reads the replies. It is safe for
// concurrent use; exchanges are serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	addr   string
	opts   *ClientOptions
	log    logger.Logger
	closed bool
}

func Dial(ctx context.Context, network, addr string, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = NewClientOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetworkDial, errors.CategoryNetwork, errors.LevelError, "failed to connect").
			WithContext("address", addr)
	}
	log.Debugf("connected to %s", addr)

	return &Client{
		conn:   conn,
		reader: buffer.AcquireReader(conn, buffer.DefaultReaderSize),
		addr:   addr,
		opts:   opts,
		log:    log,
	}, nil
}

// Echo sends msg followed by the delimiter and returns the reply line without
// its delimiter. msg must not contain the delimiter.
func (c *Client) Echo(ctx context.Context, msg []byte) ([]byte, error) {
	if bytes.IndexByte(msg, Delimiter) >= 0 {
		return nil, errors.ProtocolError(errors.ErrCodeProtocolBadMessage, "message contains the line delimiter")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.ConnectionError(errors.ErrCodeConnectionClosed, "client closed")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := c.conn.SetWriteDeadline(c.deadline(ctx, c.opts.WriteTimeout)); err != nil {
		return nil, errors.WriteError(c.addr, err)
	}
	bufs := net.Buffers{msg, []byte{Delimiter}}
	if _, err := bufs.WriteTo(c.conn); err != nil {
		return nil, c.ctxErr(ctx, errors.WriteError(c.addr, err))
	}

	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.opts.ReadTimeout)); err != nil {
		return nil, errors.ReadError(c.addr, err)
	}
	reply, err := readLine(c.reader, c.opts.MaxLineSize)
	switch {
	case err == nil:
		return reply, nil
	case stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return nil, errors.Wrap(err, errors.ErrCodeProtocolShortMessage, errors.CategoryProtocol, errors.LevelError, "server closed before a full reply").
			WithContext("partial", len(reply))
	default:
		return nil, c.ctxErr(ctx, errors.Wrap(err, errors.ErrCodeConnectionRead, errors.CategoryConnection, errors.LevelError, "read reply failed"))
	}
}

// deadline picks the earlier of ctx's deadline and now+timeout. The zero time
// means no deadline.
func (c *Client) deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}

func (c *Client) ctxErr(ctx context.Context, err *errors.EchoError) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return err.WithCause(ctxErr)
	}
	return err
}

func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.conn.Close()
	buffer.ReleaseReader(c.reader)
	c.reader = nil
	return err
}
