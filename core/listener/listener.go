// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package listener

import (
	stderrors "errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Listener binds an address and yields accepted connections until closed.
type Listener struct {
	addr      string
	listener  net.Listener
	log       logger.Logger
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Listen binds network/addr. Failures are reported as a BindError.
func Listen(network, addr string, log logger.Logger) (*Listener, error) {
	if log == nil {
		log = logger.Default()
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, errors.BindError(addr, err).WithContext("network", network)
	}
	log.Infof("listening on %s", ln.Addr().String())
	return &Listener{
		addr:     addr,
		listener: ln,
		log:      log,
	}, nil
}

// Addr returns the bound address, with the real port when 0 was requested.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Accept blocks until the next connection arrives. Temporary failures are
// retried with backoff. Once Close has been called it returns
// errors.ErrListenerClosed.
func (l *Listener) Accept() (net.Conn, error) {
	var backoff time.Duration
	for {
		conn, err := l.listener.Accept()
		if err == nil {
			return conn, nil
		}
		if l.closed.Load() || stderrors.Is(err, net.ErrClosed) {
			return nil, errors.ErrListenerClosed
		}
		if !isTemporary(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNetworkAccept, errors.CategoryNetwork, errors.LevelError, "accept failed").
				WithContext("address", l.addr)
		}

		if backoff == 0 {
			backoff = minAcceptBackoff
		} else {
			backoff *= 2
		}
		if backoff > maxAcceptBackoff {
			backoff = maxAcceptBackoff
		}
		l.log.Warnf("temporary accept error: %v; retrying in %v", err, backoff)
		time.Sleep(backoff)
	}
}

// Close stops accepting. Connections already returned by Accept stay open.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.closeErr = l.listener.Close()
		l.log.Infof("stopped listening on %s", l.listener.Addr().String())
	})
	return l.closeErr
}

// isTemporary reports accept errors worth retrying: timeouts and errnos such
// as ECONNABORTED or EMFILE.
func isTemporary(err error) bool {
	var ne net.Error
	if !stderrors.As(err, &ne) {
		return false
	}
	if ne.Timeout() {
		return true
	}
	type temporary interface{ Temporary() bool }
	if te, ok := err.(temporary); ok {
		return te.Temporary()
	}
	return false
}
