// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"runtime/debug"

	"github.com/cocowh/lineecho/pkg/errors"
	"github.com/cocowh/lineecho/pkg/logger"
)

// RecoverPanic logs a recovered panic with its stack and passes it to f as an
// error. It only recovers when deferred directly:
//
//	defer utils.RecoverPanic(log, cleanup)
func RecoverPanic(log logger.Logger, f func(err error)) {
	if r := recover(); r != nil {
		if log == nil {
			log = logger.Default()
		}
		log.Errorf("recover panic. error:%v, stack: %s", r, debug.Stack())
		if f != nil {
			f(errors.PanicError(r))
		}
	}
}
