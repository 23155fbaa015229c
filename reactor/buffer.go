/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reactor

import (
	"sync"
	"sync/atomic"
)

// minBufferSize is the smallest bucket a BufferPool hands out. Sizes below
// it are rounded up to it before being rounded up to the next power of two.
const minBufferSize = 512

// maxPooledBufferSize caps what gets returned to a free list on Release;
// oversized buffers (e.g. a single huge chunked body read) are left for the
// garbage collector instead of permanently growing a bucket's free list.
const maxPooledBufferSize = 1 << 20

// Buffer is a reference-counted byte buffer handed out by a BufferPool.
// It is not safe for concurrent use: ownership is meant to move between a
// single reader/writer goroutine and the reactor loop via Execute, never to
// be shared by two goroutines at once.
type Buffer struct {
	data []byte
	r    int
	w    int
	refs int32
	pool *BufferPool
	sz   int

	// recycled is set by poisonRelease when the buffer is handed back to
	// its pool and cleared again by Allocate. Only checked by
	// checkRecycled, which is a no-op outside debug builds (see
	// buffer_debug.go / buffer_release.go).
	recycled bool
}

// Bytes returns the unread slice of the buffer: data[r:w].
func (b *Buffer) Bytes() []byte {
	checkRecycled(b)
	return b.data[b.r:b.w]
}

// Cap returns the total capacity backing the buffer.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.w - b.r
}

// Free returns the remaining writable capacity past the write cursor.
func (b *Buffer) Free() int {
	return len(b.data) - b.w
}

// WriteSlice exposes the writable tail of the backing array, for callers
// that want to write (e.g. net.Conn.Read) directly into the buffer.
func (b *Buffer) WriteSlice() []byte {
	checkRecycled(b)
	return b.data[b.w:]
}

// Advance moves the write cursor forward by n bytes just written into
// WriteSlice.
func (b *Buffer) Advance(n int) {
	b.w += n
}

// Consume moves the read cursor forward by n bytes already consumed.
func (b *Buffer) Consume(n int) {
	b.r += n
	if b.r == b.w {
		b.r, b.w = 0, 0
	}
}

// Append copies p onto the tail of the buffer, growing the backing array
// if needed. Growth is not pool-backed: buffers that outgrow their bucket
// keep their new larger array until released.
func (b *Buffer) Append(p []byte) {
	checkRecycled(b)
	if b.Free() < len(p) {
		grown := make([]byte, b.w+len(p))
		copy(grown, b.data[:b.w])
		b.data = grown
	}
	b.w += copy(b.data[b.w:], p)
}

// Reset empties the buffer without releasing it.
func (b *Buffer) Reset() {
	b.r, b.w = 0, 0
}

// Retain increments the reference count. Every goroutine that keeps a
// pointer to the buffer past the callback that received it must Retain it
// first and Release it when done.
func (b *Buffer) Retain() *Buffer {
	checkRecycled(b)
	atomic.AddInt32(&b.refs, 1)
	return b
}

// Release decrements the reference count and, once it reaches zero,
// returns the buffer to its pool (or drops it, for oversized buffers and
// buffers allocated outside a pool).
func (b *Buffer) Release() {
	if atomic.AddInt32(&b.refs, -1) > 0 {
		return
	}

	b.Reset()

	if b.pool == nil || len(b.data) > maxPooledBufferSize {
		return
	}

	poisonRelease(b)
	b.pool.put(b)
}

// BufferPool is a bucketed free-list allocator: buckets are sized as
// powers of two starting at minBufferSize, each guarded by its own mutex so
// allocation from one bucket never blocks another.
type BufferPool struct {
	buckets []bufferBucket
}

type bufferBucket struct {
	size int
	mu   sync.Mutex
	free []*Buffer
}

// NewBufferPool builds a pool with buckets covering [minBufferSize, maxSize]
// by doubling. maxSize is rounded up to the next power of two if needed.
func NewBufferPool(maxSize int) *BufferPool {
	if maxSize < minBufferSize {
		maxSize = minBufferSize
	}

	p := &BufferPool{}
	for sz := minBufferSize; sz/2 < maxSize; sz *= 2 {
		p.buckets = append(p.buckets, bufferBucket{size: sz})
	}
	return p
}

func nextPow2(n int) int {
	p := minBufferSize
	for p < n {
		p *= 2
	}
	return p
}

// Allocate returns a Buffer with at least minSize bytes of capacity and a
// single reference held by the caller.
func (p *BufferPool) Allocate(minSize int) *Buffer {
	want := nextPow2(minSize)

	for i := range p.buckets {
		bk := &p.buckets[i]
		if bk.size < want {
			continue
		}

		bk.mu.Lock()
		if n := len(bk.free); n > 0 {
			b := bk.free[n-1]
			bk.free = bk.free[:n-1]
			bk.mu.Unlock()
			b.refs = 1
			b.recycled = false
			return b
		}
		bk.mu.Unlock()

		return &Buffer{data: make([]byte, bk.size), pool: p, sz: bk.size, refs: 1}
	}

	// larger than any bucket: allocate untracked, will not be recycled.
	return &Buffer{data: make([]byte, want), refs: 1}
}

func (p *BufferPool) put(b *Buffer) {
	for i := range p.buckets {
		bk := &p.buckets[i]
		if bk.size != b.sz {
			continue
		}

		b.data = b.data[:cap(b.data)]
		if len(b.data) != bk.size {
			// buffer outgrew its original bucket via Append; drop it.
			return
		}

		bk.mu.Lock()
		bk.free = append(bk.free, b)
		bk.mu.Unlock()
		return
	}
}
