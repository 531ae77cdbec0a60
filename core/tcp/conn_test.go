// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"bufio"
	stderrors "errors"
	"net"
	"testing"
	"time"

	"github.com/cocowh/lineecho/core/iface"
	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConn(t *testing.T, opts *ConnOptions) (*conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	c := newConn(server, opts)
	t.Cleanup(func() {
		_ = c.Close()
		_ = client.Close()
	})
	return c, client
}

func sendAsync(client net.Conn, data string) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := client.Write([]byte(data))
		done <- err
	}()
	return done
}

func TestConn_ReadMessageStripsOnlyTheDelimiter(t *testing.T) {
	c, client := pipeConn(t, nil)
	done := sendAsync(client, "Hello, Server!\nwith cr\r\n\n")

	for _, want := range []string{"Hello, Server!", "with cr\r", ""} {
		msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, want, string(msg))
		assert.Equal(t, iface.StateAwaitingMessage, c.State())
	}
	require.NoError(t, <-done)
}

func TestConn_WriteMessageAppendsDelimiter(t *testing.T) {
	c, client := pipeConn(t, nil)

	go func() {
		_ = c.WriteMessage([]byte("pong"))
	}()
	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "pong\n", line)
	assert.Equal(t, iface.StateEchoing, c.State())
}

func TestConn_PartialLineAtEOFIsPeerClosed(t *testing.T) {
	c, client := pipeConn(t, nil)
	go func() {
		_, _ = client.Write([]byte("abc"))
		_ = client.Close()
	}()

	_, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, errors.IsPeerClosed(err))

	var echoErr *errors.EchoError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, 3, echoErr.Context["discarded_bytes"])
}

func TestConn_ImmediateEOFIsPeerClosed(t *testing.T) {
	c, client := pipeConn(t, nil)
	require.NoError(t, client.Close())

	_, err := c.ReadMessage()
	assert.True(t, errors.IsPeerClosed(err))
	assert.False(t, errors.IsFailure(err))
}

func TestConn_LineTooLong(t *testing.T) {
	opts := NewConnOptions()
	opts.MaxLineSize = 8
	c, client := pipeConn(t, opts)
	done := sendAsync(client, "0123456789abcdef\n")

	_, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLineTooLong))
	require.NoError(t, <-done)
}

func TestConn_LineTooLongAcrossBufferFill(t *testing.T) {
	opts := NewConnOptions()
	opts.MaxLineSize = 32
	opts.ReaderSize = 16
	c, client := pipeConn(t, opts)
	go func() {
		_, _ = client.Write([]byte("0123456789abcdef0123456789abcdef0123456789abcdef\n"))
	}()

	_, err := c.ReadMessage()
	assert.True(t, stderrors.Is(err, errors.ErrLineTooLong))
}

func TestConn_ExactlyMaxLineSizeIsAccepted(t *testing.T) {
	opts := NewConnOptions()
	opts.MaxLineSize = 4
	c, client := pipeConn(t, opts)
	done := sendAsync(client, "four\n")

	msg, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "four", string(msg))
	require.NoError(t, <-done)
}

func TestConn_ReadTimeout(t *testing.T) {
	opts := NewConnOptions()
	opts.ReadTimeout = 50 * time.Millisecond
	c, _ := pipeConn(t, opts)

	start := time.Now()
	_, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.True(t, stderrors.Is(err, errors.ErrConnectionRead))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConn_CloseUnblocksPendingRead(t *testing.T) {
	c, _ := pipeConn(t, nil)

	result := make(chan error, 1)
	go func() {
		_, err := c.ReadMessage()
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	select {
	case err := <-result:
		require.Error(t, err)
		assert.True(t, errors.IsFailure(err))
	case <-time.After(2 * time.Second):
		t.Fatal("read did not unblock after Close")
	}
	assert.Equal(t, iface.StateClosed, c.State())
	assert.Error(t, c.Context().Err())
}

func TestConn_UseAfterClose(t *testing.T) {
	c, _ := pipeConn(t, nil)
	require.NoError(t, c.Close())

	_, err := c.ReadMessage()
	assert.Error(t, err)
	assert.Error(t, c.WriteMessage([]byte("x")))
	assert.Equal(t, iface.StateClosed, c.State())
}

func TestNewConn_UniqueIDs(t *testing.T) {
	c1, _ := pipeConn(t, nil)
	c2, _ := pipeConn(t, nil)
	assert.NotEqual(t, c1.ID(), c2.ID())
	assert.Len(t, c1.ID(), 36)
}

func TestConn_ClosedStateIsTerminal(t *testing.T) {
	c, _ := pipeConn(t, nil)
	require.NoError(t, c.Close())

	c.setState(iface.StateEchoing)
	c.setState(iface.StateAwaitingMessage)
	assert.Equal(t, iface.StateClosed, c.State())
}

func TestConn_ClosedStateIsTerminalUnderContention(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, _ := pipeConn(t, nil)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 50; j++ {
				c.setState(iface.StateEchoing)
				c.setState(iface.StateAwaitingMessage)
			}
		}()
		_ = c.Close()
		<-done
		require.Equal(t, iface.StateClosed, c.State())
	}
}

func TestConn_ForceCloseReportsShutdown(t *testing.T) {
	c, _ := pipeConn(t, nil)

	result := make(chan error, 1)
	go func() {
		_, err := c.ReadMessage()
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.forceClose())

	select {
	case err := <-result:
		var echoErr *errors.EchoError
		require.ErrorAs(t, err, &echoErr)
		assert.Equal(t, errors.ErrCodeSystemShutdown, echoErr.Code)
		assert.Equal(t, c.ID(), echoErr.Context["conn_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("read did not unblock after forceClose")
	}
}
