// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcp

import (
	"bufio"
	stderrors "errors"
	"io"

	"github.com/cocowh/lineecho/pkg/errors"
)

// readLine returns the next line without its delimiter. EOF before any byte
// yields io.EOF; EOF inside a line yields the partial bytes together with
// io.ErrUnexpectedEOF. Lines longer than max (when max > 0) fail with a
// LineTooLong error.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice(Delimiter)
		line = append(line, frag...)

		switch {
		case err == nil:
			msg := line[:len(line)-1]
			if max > 0 && len(msg) > max {
				return nil, errors.LineTooLong(max)
			}
			return msg, nil
		case stderrors.Is(err, bufio.ErrBufferFull):
			if max > 0 && len(line) > max {
				return nil, errors.LineTooLong(max)
			}
		case stderrors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, io.ErrUnexpectedEOF
		default:
			return line, err
		}
	}
}
