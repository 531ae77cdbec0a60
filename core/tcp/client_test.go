// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"context"
	stderrors "errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cocowh/lineecho/core/echo"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentListener accepts connections and never answers.
func silentListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	return ln
}

func quietClientOptions() *ClientOptions {
	opts := NewClientOptions()
	opts.Logger = logger.NewNop()
	return opts
}

func TestClient_Echo(t *testing.T) {
	s := startServer(t, testServerOptions(echo.SingleShot))

	client, err := Dial(context.Background(), "tcp", s.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	defer client.Close()

	reply, err := client.Echo(context.Background(), []byte("Hello, Server!"))
	require.NoError(t, err)
	assert.Equal(t, "Hello, Server!", string(reply))
}

func TestClient_RejectsDelimiterInMessage(t *testing.T) {
	s := startServer(t, testServerOptions(echo.SingleShot))

	client, err := Dial(context.Background(), "tcp", s.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Echo(context.Background(), []byte("two\nlines"))
	var echoErr *errors.EchoError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, errors.ErrCodeProtocolBadMessage, echoErr.Code)
}

func TestClient_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), "tcp", addr, quietClientOptions())
	var echoErr *errors.EchoError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, errors.ErrCodeNetworkDial, echoErr.Code)
	assert.Equal(t, addr, echoErr.Context["address"])
}

func TestClient_ContextDeadline(t *testing.T) {
	ln := silentListener(t)

	client, err := Dial(context.Background(), "tcp", ln.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = client.Echo(ctx, []byte("anyone there"))
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_ContextCancel(t *testing.T) {
	ln := silentListener(t)

	client, err := Dial(context.Background(), "tcp", ln.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err = client.Echo(ctx, []byte("anyone there"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestClient_ReadTimeout(t *testing.T) {
	ln := silentListener(t)

	opts := quietClientOptions()
	opts.ReadTimeout = 50 * time.Millisecond
	client, err := Dial(context.Background(), "tcp", ln.Addr().String(), opts)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Echo(context.Background(), []byte("ping"))
	assert.True(t, errors.IsTimeout(err))
}

func TestClient_ServerClosesWithoutReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 64)
		_, _ = c.Read(buf)
		_, _ = c.Write([]byte("half"))
		_ = c.Close()
	}()

	client, err := Dial(context.Background(), "tcp", ln.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Echo(context.Background(), []byte("ping"))
	var echoErr *errors.EchoError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, errors.ErrCodeProtocolShortMessage, echoErr.Code)
	assert.Equal(t, 4, echoErr.Context["partial"])
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	s := startServer(t, testServerOptions(echo.SingleShot))

	client, err := Dial(context.Background(), "tcp", s.Addr().String(), quietClientOptions())
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Echo(context.Background(), []byte("late"))
	var echoErr *errors.EchoError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, errors.ErrCodeConnectionClosed, echoErr.Code)
}
