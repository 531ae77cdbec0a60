// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode error code
type ErrorCode int

// ErrorLevel error level
type ErrorLevel int

// ErrorCategory error category
type ErrorCategory string

const (
	LevelTrace ErrorLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

const (
	CategorySystem     ErrorCategory = "system"
	CategoryNetwork    ErrorCategory = "network"
	CategoryConnection ErrorCategory = "connection"
	CategoryProtocol   ErrorCategory = "protocol"
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
)

// system error code (1000-1999)
const (
	ErrCodeSystemUnknown       ErrorCode = 1000
	ErrCodeSystemInternalError ErrorCode = 1001
	ErrCodeSystemShutdown      ErrorCode = 1002
	ErrCodeSystemPanic         ErrorCode = 1003
)

// network error code (2000-2999), listener side
const (
	ErrCodeNetworkBind           ErrorCode = 2001
	ErrCodeNetworkAccept         ErrorCode = 2002
	ErrCodeNetworkListenerClosed ErrorCode = 2003
	ErrCodeNetworkDial           ErrorCode = 2004
)

// connection error code (3000-3999), local to one connection
const (
	ErrCodeConnectionRead    ErrorCode = 3001
	ErrCodeConnectionWrite   ErrorCode = 3002
	ErrCodeConnectionTimeout ErrorCode = 3003
	ErrCodeConnectionClosed  ErrorCode = 3004
	ErrCodePeerClosedEarly   ErrorCode = 3005
)

// protocol error code (4000-4999)
const (
	ErrCodeProtocolLineTooLong  ErrorCode = 4001
	ErrCodeProtocolBadMessage   ErrorCode = 4002
	ErrCodeProtocolShortMessage ErrorCode = 4003
)

// config error code (5000-5999)
const (
	ErrCodeConfigNotFound   ErrorCode = 5001
	ErrCodeConfigInvalid    ErrorCode = 5002
	ErrCodeConfigParseError ErrorCode = 5003
)

// validation error code (7000-7999)
const (
	ErrCodeValidationFormat ErrorCode = 7002
	ErrCodeValidationRange  ErrorCode = 7003
)

type EchoError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Category  ErrorCategory          `json:"category"`
	Level     ErrorLevel             `json:"level"`
	Timestamp time.Time              `json:"timestamp"`
	Stack     string                 `json:"stack,omitempty"`
	Cause     error                  `json:"cause,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Error implements error interface
func (e *EchoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%d] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%d] %s", e.Category, e.Code, e.Message)
}

func (e *EchoError) Unwrap() error {
	return e.Cause
}

// Is matches any *EchoError carrying the same code.
func (e *EchoError) Is(target error) bool {
	var t *EchoError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithContext with context
func (e *EchoError) WithContext(key string, value interface{}) *EchoError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause with cause
func (e *EchoError) WithCause(cause error) *EchoError {
	e.Cause = cause
	return e
}

// New create error. An empty category or message is filled in from the code.
func New(code ErrorCode, category ErrorCategory, level ErrorLevel, message string) *EchoError {
	if category == "" {
		category = GetErrorCategory(code)
	}
	if message == "" {
		message = GetErrorMessage(code)
	}
	return &EchoError{
		Code:      code,
		Message:   message,
		Category:  category,
		Level:     level,
		Timestamp: time.Now(),
		Stack:     getStack(),
	}
}

// Newf create error with format message
func Newf(code ErrorCode, category ErrorCategory, level ErrorLevel, format string, args ...interface{}) *EchoError {
	return New(code, category, level, fmt.Sprintf(format, args...))
}

// Wrap existing error with code, category, level and message
func Wrap(err error, code ErrorCode, category ErrorCategory, level ErrorLevel, message string) *EchoError {
	e := New(code, category, level, message)
	e.Cause = err
	return e
}

// Sentinels for errors.Is checks, compared by code only.
var (
	ErrBind            = sentinel(ErrCodeNetworkBind)
	ErrListenerClosed  = sentinel(ErrCodeNetworkListenerClosed)
	ErrConnectionRead  = sentinel(ErrCodeConnectionRead)
	ErrConnectionWrite = sentinel(ErrCodeConnectionWrite)
	ErrLineTooLong     = sentinel(ErrCodeProtocolLineTooLong)
)

func sentinel(code ErrorCode) *EchoError {
	return &EchoError{Code: code, Category: GetErrorCategory(code), Message: GetErrorMessage(code)}
}

// getStack get error stack
func getStack() string {
	var buf [4096]byte
	n := runtime.Stack(buf[:], false)
	stack := string(buf[:n])

	lines := strings.Split(stack, "\n")
	filtered := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		if strings.Contains(lines[i], "runtime.Stack") ||
			strings.Contains(lines[i], "lineecho/pkg/errors.") {
			i++
			continue
		}
		filtered = append(filtered, lines[i])
	}

	return strings.Join(filtered, "\n")
}

// GetErrorMessage get error message by error code
func GetErrorMessage(code ErrorCode) string {
	switch code {
	case ErrCodeSystemUnknown:
		return "Unknown system error"
	case ErrCodeSystemInternalError:
		return "Internal system error"
	case ErrCodeSystemShutdown:
		return "Connection closed by server shutdown"
	case ErrCodeSystemPanic:
		return "Recovered panic"

	case ErrCodeNetworkBind:
		return "Cannot bind listening address"
	case ErrCodeNetworkAccept:
		return "Accept failed"
	case ErrCodeNetworkListenerClosed:
		return "Listener closed"
	case ErrCodeNetworkDial:
		return "Dial failed"

	case ErrCodeConnectionRead:
		return "Connection read failed"
	case ErrCodeConnectionWrite:
		return "Connection write failed"
	case ErrCodeConnectionTimeout:
		return "Connection timeout"
	case ErrCodeConnectionClosed:
		return "Connection closed"
	case ErrCodePeerClosedEarly:
		return "Peer closed before a full message"

	case ErrCodeProtocolLineTooLong:
		return "Line exceeds maximum size"
	case ErrCodeProtocolBadMessage:
		return "Message contains the line delimiter"
	case ErrCodeProtocolShortMessage:
		return "Response is not a complete line"

	case ErrCodeConfigNotFound:
		return "Config not found"
	case ErrCodeConfigInvalid:
		return "Invalid config"
	case ErrCodeConfigParseError:
		return "Config parse error"

	case ErrCodeValidationFormat:
		return "Invalid format"
	case ErrCodeValidationRange:
		return "Value out of range"

	default:
		return "Unknown error"
	}
}

// GetErrorCategory returns the error category for the given error code.
func GetErrorCategory(code ErrorCode) ErrorCategory {
	switch {
	case code >= 1000 && code < 2000:
		return CategorySystem
	case code >= 2000 && code < 3000:
		return CategoryNetwork
	case code >= 3000 && code < 4000:
		return CategoryConnection
	case code >= 4000 && code < 5000:
		return CategoryProtocol
	case code >= 5000 && code < 6000:
		return CategoryConfig
	case code >= 7000 && code < 8000:
		return CategoryValidation
	default:
		return CategorySystem
	}
}
