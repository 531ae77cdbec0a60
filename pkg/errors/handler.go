// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package errors

import (
	"sync"
	"time"

	"github.com/cocowh/lineecho/pkg/logger"
)

// ErrorManager logs connection and listener errors for the operator and keeps
// counters. It never feeds anything back to clients.
type ErrorManager struct {
	log     logger.Logger
	metrics *ErrorMetrics
}

type ErrorMetrics struct {
	TotalErrors      int64                   `json:"total_errors"`
	ErrorsByCode     map[ErrorCode]int64     `json:"errors_by_code"`
	ErrorsByLevel    map[ErrorLevel]int64    `json:"errors_by_level"`
	ErrorsByCategory map[ErrorCategory]int64 `json:"errors_by_category"`
	LastError        *EchoError              `json:"last_error"`
	LastErrorTime    time.Time               `json:"last_error_time"`
	mutex            sync.RWMutex
}

// NewErrorManager creates a manager logging through log. A nil log falls back
// to the package-level logger.
func NewErrorManager(log logger.Logger) *ErrorManager {
	if log == nil {
		log = logger.Default()
	}
	return &ErrorManager{
		log: log,
		metrics: &ErrorMetrics{
			ErrorsByCode:     make(map[ErrorCode]int64),
			ErrorsByLevel:    make(map[ErrorLevel]int64),
			ErrorsByCategory: make(map[ErrorCategory]int64),
		},
	}
}

// Handle converts, counts and logs err. The converted error is returned so
// callers can keep propagating it.
func (em *ErrorManager) Handle(err error) *EchoError {
	if err == nil {
		return nil
	}
	echoErr := Convert(err)
	em.updateMetrics(echoErr)
	em.logError(echoErr)
	return echoErr
}

func (em *ErrorManager) updateMetrics(err *EchoError) {
	em.metrics.mutex.Lock()
	defer em.metrics.mutex.Unlock()

	em.metrics.TotalErrors++
	em.metrics.ErrorsByCode[err.Code]++
	em.metrics.ErrorsByLevel[err.Level]++
	em.metrics.ErrorsByCategory[err.Category]++
	em.metrics.LastError = err
	em.metrics.LastErrorTime = time.Now()
}

// logError never exits the process, fatal errors are logged at error level
// and left to the caller.
func (em *ErrorManager) logError(err *EchoError) {
	switch err.Level {
	case LevelTrace, LevelDebug:
		em.log.Debugf("%s %v", err.Error(), err.Context)
	case LevelInfo:
		em.log.Infof("%s %v", err.Error(), err.Context)
	case LevelWarn:
		em.log.Warnf("%s %v", err.Error(), err.Context)
	default:
		em.log.Errorf("%s %v", err.Error(), err.Context)
		if err.Level >= LevelError && err.Stack != "" {
			em.log.Debugf("stack trace: %s", err.Stack)
		}
	}
}

// GetMetrics returns a copy of the counters.
func (em *ErrorManager) GetMetrics() *ErrorMetrics {
	em.metrics.mutex.RLock()
	defer em.metrics.mutex.RUnlock()

	metrics := &ErrorMetrics{
		TotalErrors:      em.metrics.TotalErrors,
		ErrorsByCode:     make(map[ErrorCode]int64, len(em.metrics.ErrorsByCode)),
		ErrorsByLevel:    make(map[ErrorLevel]int64, len(em.metrics.ErrorsByLevel)),
		ErrorsByCategory: make(map[ErrorCategory]int64, len(em.metrics.ErrorsByCategory)),
		LastError:        em.metrics.LastError,
		LastErrorTime:    em.metrics.LastErrorTime,
	}
	for k, v := range em.metrics.ErrorsByCode {
		metrics.ErrorsByCode[k] = v
	}
	for k, v := range em.metrics.ErrorsByLevel {
		metrics.ErrorsByLevel[k] = v
	}
	for k, v := range em.metrics.ErrorsByCategory {
		metrics.ErrorsByCategory[k] = v
	}
	return metrics
}
