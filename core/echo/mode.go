// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package echo

import (
	"strings"

	"github.com/cocowh/lineecho/pkg/errors"
)

// Mode is the session policy of a connection.
type Mode int

const (
	// SingleShot serves exactly one message, then closes.
	SingleShot Mode = iota
	// Persistent serves messages until the peer closes.
	Persistent
)

func (m Mode) String() string {
	switch m {
	case SingleShot:
		return "single-shot"
	case Persistent:
		return "persistent"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single-shot", "single_shot", "singleshot", "":
		return SingleShot, nil
	case "persistent":
		return Persistent, nil
	default:
		return SingleShot, errors.ConfigErrorf(errors.ErrCodeConfigInvalid, "unknown session mode %q", s)
	}
}
