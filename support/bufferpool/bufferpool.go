// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package bufferpool recycles fixed-size scratch buffers. The demo frame
// reader draws decompression output buffers from a pool so a bulk parse
// does not allocate per frame.
package bufferpool

import (
	"sync"
	"sync/atomic"
)

// Pool hands out fixed-size buffers, reusing released ones.
type Pool struct {
	// Size is the byte size of every buffer in this pool.
	Size int

	base sync.Pool
}

// Get returns a buffer with a reference count of 1, allocating one if the
// pool is empty. The caller returns it with Release.
func (bp *Pool) Get() *Buffer {
	b, ok := bp.base.Get().(*Buffer)
	if !ok {
		b = &Buffer{
			bytes: make([]byte, bp.Size),
		}
	}

	b.pool = bp
	b.size = -1
	b.refcount = 1
	return b
}

// Buffer is a pooled byte buffer.
//
// Buffer is reference counted: Retain/Release bracket each additional
// holder, and the last Release returns it to the pool. A buffer that is
// never released is garbage collected normally; it just cannot be reused.
type Buffer struct {
	refcount int64

	bytes []byte
	size  int

	pool *Pool
}

// Bytes returns the buffer's byte slice, capped by Truncate if set.
func (b *Buffer) Bytes() []byte {
	if b.size >= 0 {
		return b.bytes[:b.size]
	}
	return b.bytes
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return b.size }

// Truncate caps the number of bytes returned by Bytes.
func (b *Buffer) Truncate(size int) {
	b.size = size
}

// Release drops one reference, returning the buffer to its pool when the
// last holder lets go. Safe for concurrent use; each reference must be
// released exactly once.
func (b *Buffer) Release() {
	if atomic.AddInt64(&b.refcount, -1) != 0 {
		return
	}

	var pool *Pool
	pool, b.pool = b.pool, nil
	pool.base.Put(b)
}

// Retain adds a reference, to be paired with a later Release.
func (b *Buffer) Retain() { atomic.AddInt64(&b.refcount, 1) }
