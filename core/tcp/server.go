// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"context"
	stderrors "errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cocowh/lineecho/core/echo"
	"github.com/cocowh/lineecho/core/iface"
	"github.com/cocowh/lineecho/core/listener"
	"github.com/cocowh/lineecho/core/utils"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ServerOptions configures a Server. Zero timeouts disable them.
type ServerOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxLineSize  int
	Mode         echo.Mode
	// Handler replaces the echo handler built from Mode when set.
	Handler      iface.Handler
	EventHandler iface.EventHandler
	Logger       logger.Logger
	ErrorManager *errors.ErrorManager
}

// NewServerOptions returns single-shot options with the default line limit.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		MaxLineSize: NewConnOptions().MaxLineSize,
		Mode:        echo.SingleShot,
	}
}

func (o *ServerOptions) connOptions() *ConnOptions {
	opts := NewConnOptions()
	opts.ReadTimeout = o.ReadTimeout
	opts.WriteTimeout = o.WriteTimeout
	opts.MaxLineSize = o.MaxLineSize
	return opts
}

// Stats is a snapshot of the server counters.
type Stats struct {
	Accepted int64
	Active   int64
	Messages int64
	Failures int64
}

// Server accepts connections and runs one handler goroutine per connection.
type Server struct {
	mu         sync.RWMutex
	listener   *listener.Listener
	network    string
	addr       string
	handler    iface.Handler
	opts       *ServerOptions
	log        logger.Logger
	errs       *errors.ErrorManager
	conns      map[string]*conn
	tasks      errgroup.Group
	acceptDone chan struct{}

	accepted atomic.Int64
	messages atomic.Int64
	failures atomic.Int64
}

func NewServer(network, addr string, opts *ServerOptions) *Server {
	if opts == nil {
		opts = NewServerOptions()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	errs := opts.ErrorManager
	if errs == nil {
		errs = errors.NewErrorManager(log)
	}

	s := &Server{
		network:    network,
		addr:       addr,
		opts:       opts,
		log:        log,
		errs:       errs,
		conns:      make(map[string]*conn),
		acceptDone: make(chan struct{}),
	}

	events := opts.EventHandler
	if events == nil {
		events = echo.NewLoggingEventHandler(log)
	}
	s.handler = opts.Handler
	if s.handler == nil {
		s.handler = echo.NewHandler(&echo.Options{
			Mode:         opts.Mode,
			EventHandler: &statsEventHandler{next: events, server: s},
			ErrorManager: errs,
			Logger:       log,
		})
	}
	return s
}

// Start binds the listener and begins accepting in the background. A bind
// failure is returned as a BindError.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return errors.SystemError(errors.ErrCodeSystemInternalError, "server already started")
	}
	ln, err := listener.Listen(s.network, s.addr, s.log)
	if err != nil {
		s.mu.Unlock()
		return s.errs.Handle(err)
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.Infof("TCP echo server started on %s, mode: %s", ln.Addr(), s.opts.Mode)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound address or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ln *listener.Listener) {
	defer close(s.acceptDone)

	for {
		raw, err := ln.Accept()
		if err != nil {
			if stderrors.Is(err, errors.ErrListenerClosed) {
				return
			}
			s.errs.Handle(err)
			s.log.Errorf("accept loop stopped on %s", ln.Addr())
			_ = ln.Close()
			return
		}

		c := newConn(raw, s.opts.connOptions())
		s.accepted.Add(1)
		s.mu.Lock()
		s.conns[c.ID()] = c
		s.mu.Unlock()

		s.tasks.Go(func() error {
			s.serve(c)
			return nil
		})
	}
}

func (s *Server) serve(c *conn) {
	defer func() {
		_ = c.Close()
		s.mu.Lock()
		delete(s.conns, c.ID())
		s.mu.Unlock()
		c.release()
	}()
	defer utils.RecoverPanic(s.log, func(err error) {
		s.failures.Add(1)
		s.errs.Handle(errors.Convert(err).WithContext("conn_id", c.ID()))
		_ = c.Close()
	})

	s.handler.Serve(c)
}

// Stop closes the listener and waits for the accept loop to exit.
// Connections already accepted keep being served.
func (s *Server) Stop() error {
	s.mu.RLock()
	ln := s.listener
	s.mu.RUnlock()
	if ln == nil {
		return nil
	}

	err := ln.Close()
	<-s.acceptDone
	return err
}

// Shutdown stops accepting and waits for every handler to finish. When ctx
// ends first, the remaining connections are closed and ctx.Err() is
// returned together with any close errors.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Stop()

	done := make(chan struct{})
	go func() {
		_ = s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Infof("TCP echo server stopped")
		return err
	case <-ctx.Done():
	}

	s.mu.RLock()
	remaining := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		remaining = append(remaining, c)
	}
	s.mu.RUnlock()

	s.log.Warnf("shutdown deadline reached, closing %d connections", len(remaining))
	for _, c := range remaining {
		err = multierr.Append(err, c.forceClose())
	}
	<-done
	return multierr.Append(err, ctx.Err())
}

// GetConnection returns a live connection by id.
func (s *Server) GetConnection(id string) (iface.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	if !ok {
		return nil, false
	}
	return c, true
}

// Stats reports accepted, live, echoed and failed counts.
func (s *Server) Stats() Stats {
	s.mu.RLock()
	active := int64(len(s.conns))
	s.mu.RUnlock()
	return Stats{
		Accepted: s.accepted.Load(),
		Active:   active,
		Messages: s.messages.Load(),
		Failures: s.failures.Load(),
	}
}

func (s *Server) ErrorManager() *errors.ErrorManager {
	return s.errs
}

// statsEventHandler counts events before passing them on.
type statsEventHandler struct {
	next   iface.EventHandler
	server *Server
}

func (h *statsEventHandler) OnConnect(conn iface.Connection) {
	h.next.OnConnect(conn)
}

func (h *statsEventHandler) OnMessage(conn iface.Connection, msg []byte) {
	h.server.messages.Add(1)
	h.next.OnMessage(conn, msg)
}

func (h *statsEventHandler) OnClose(conn iface.Connection) {
	h.next.OnClose(conn)
}

func (h *statsEventHandler) OnError(conn iface.Connection, err error) {
	h.server.failures.Add(1)
	h.next.OnError(conn, err)
}
