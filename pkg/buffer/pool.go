// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package buffer

import (
	"bufio"
	"io"
	"sync"
)

const DefaultReaderSize = 4096

var readerPool = sync.Pool{New: func() interface{} {
	return bufio.NewReaderSize(nil, DefaultReaderSize)
}}

// AcquireReader returns a pooled reader reading from r. Sizes other than
// DefaultReaderSize are allocated fresh and never pooled.
func AcquireReader(r io.Reader, size int) *bufio.Reader {
	if size > 0 && size != DefaultReaderSize {
		return bufio.NewReaderSize(r, size)
	}
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

// ReleaseReader detaches br from its source and returns it to the pool.
func ReleaseReader(br *bufio.Reader) {
	if br == nil || br.Size() != DefaultReaderSize {
		return
	}
	br.Reset(nil)
	readerPool.Put(br)
}
