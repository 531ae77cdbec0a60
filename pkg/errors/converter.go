// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package errors

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// Convert maps an arbitrary error onto an *EchoError. Errors that already
// carry a code are returned as is.
func Convert(err error) *EchoError {
	if err == nil {
		return nil
	}

	var echoErr *EchoError
	if errors.As(err, &echoErr) {
		return echoErr
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return Wrap(err, ErrCodePeerClosedEarly, CategoryConnection, LevelInfo, "peer closed the connection")
	case errors.Is(err, net.ErrClosed):
		return Wrap(err, ErrCodeConnectionClosed, CategoryConnection, LevelDebug, "use of closed connection")
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeConnectionTimeout, CategoryConnection, LevelWarn, "deadline exceeded")
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return Wrap(err, ErrCodeConnectionClosed, CategoryConnection, LevelWarn, "connection reset by peer")
	case errors.Is(err, syscall.EADDRINUSE):
		return Wrap(err, ErrCodeNetworkBind, CategoryNetwork, LevelFatal, "address already in use")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(err, ErrCodeConnectionTimeout, CategoryConnection, LevelWarn, "network timeout")
	}

	return Wrap(err, ErrCodeSystemUnknown, CategorySystem, LevelError, err.Error())
}

func SystemError(code ErrorCode, message string) *EchoError {
	return New(code, CategorySystem, LevelError, message)
}

func ConnectionError(code ErrorCode, message string) *EchoError {
	return New(code, CategoryConnection, LevelError, message)
}

func ProtocolError(code ErrorCode, message string) *EchoError {
	return New(code, CategoryProtocol, LevelError, message)
}

func ConfigErrorf(code ErrorCode, format string, args ...interface{}) *EchoError {
	return Newf(code, CategoryConfig, LevelError, format, args...)
}

func ValidationErrorf(code ErrorCode, format string, args ...interface{}) *EchoError {
	return Newf(code, CategoryValidation, LevelError, format, args...)
}

// BindError reports that the listener could not start. It is fatal for the
// service.
func BindError(address string, cause error) *EchoError {
	return Wrap(cause, ErrCodeNetworkBind, CategoryNetwork, LevelFatal, "failed to bind listener").
		WithContext("address", address)
}

// ReadError wraps a failure observed while awaiting a message. EOF is
// classified as PeerClosedEarly instead, which is not a failure.
func ReadError(connID string, cause error) *EchoError {
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		return PeerClosedEarly(connID, 0)
	}
	var echoErr *EchoError
	if errors.As(cause, &echoErr) && echoErr.Code == ErrCodeProtocolLineTooLong {
		return echoErr.WithContext("conn_id", connID)
	}
	return Wrap(cause, ErrCodeConnectionRead, CategoryConnection, LevelError, "connection read failed").
		WithContext("conn_id", connID)
}

func WriteError(connID string, cause error) *EchoError {
	return Wrap(cause, ErrCodeConnectionWrite, CategoryConnection, LevelError, "connection write failed").
		WithContext("conn_id", connID)
}

// PeerClosedEarly marks a connection the peer closed before a complete line
// arrived. partial is the number of buffered bytes that were discarded.
func PeerClosedEarly(connID string, partial int) *EchoError {
	return New(ErrCodePeerClosedEarly, CategoryConnection, LevelInfo, "peer closed before a full message").
		WithContext("conn_id", connID).
		WithContext("discarded_bytes", partial)
}

func LineTooLong(limit int) *EchoError {
	return Newf(ErrCodeProtocolLineTooLong, CategoryProtocol, LevelError, "line exceeds %d bytes", limit).
		WithContext("limit", limit)
}

// ShutdownError marks a connection closed by a server shutdown that ran out
// of time.
func ShutdownError(connID string, cause error) *EchoError {
	return Wrap(cause, ErrCodeSystemShutdown, CategorySystem, LevelWarn, "").
		WithContext("conn_id", connID)
}

func PanicError(recovered interface{}) *EchoError {
	return Newf(ErrCodeSystemPanic, CategorySystem, LevelError, "recovered panic: %v", recovered)
}

func code(err error) (ErrorCode, bool) {
	var echoErr *EchoError
	if errors.As(err, &echoErr) {
		return echoErr.Code, true
	}
	return 0, false
}

// IsTimeout reports whether err is, or was caused by, a deadline expiry.
func IsTimeout(err error) bool {
	if c, ok := code(err); ok && c == ErrCodeConnectionTimeout {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// IsPeerClosed reports a normal close by the remote side.
func IsPeerClosed(err error) bool {
	c, ok := code(err)
	return ok && c == ErrCodePeerClosedEarly
}

func IsBindError(err error) bool {
	c, ok := code(err)
	return ok && c == ErrCodeNetworkBind
}

func IsConfigError(err error) bool {
	var echoErr *EchoError
	if errors.As(err, &echoErr) {
		return echoErr.Category == CategoryConfig
	}
	return false
}

// IsFailure reports whether err should count as a connection failure.
// A peer closing early is a normal terminal transition.
func IsFailure(err error) bool {
	return err != nil && !IsPeerClosed(err)
}

func IsFatal(err error) bool {
	var echoErr *EchoError
	if errors.As(err, &echoErr) {
		return echoErr.Level == LevelFatal
	}
	return false
}
