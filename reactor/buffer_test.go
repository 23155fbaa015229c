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

package reactor_test

import (
	. "github.com/nabbar/reactonet/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BufferPool", func() {
	Context("Allocate", func() {
		It("rounds up to the nearest bucket and grants a single reference", func() {
			p := NewBufferPool(64 * 1024)
			b := p.Allocate(100)

			Expect(b).ToNot(BeNil())
			Expect(b.Cap()).To(BeNumerically(">=", 100))
			Expect(b.Len()).To(Equal(0))
			Expect(b.Free()).To(Equal(b.Cap()))
		})

		It("recycles a released buffer of the same bucket size", func() {
			p := NewBufferPool(4096)
			b1 := p.Allocate(512)
			b1.Release()

			b2 := p.Allocate(512)
			Expect(b2).ToNot(BeNil())
			Expect(b2.Len()).To(Equal(0))
		})

		It("allocates untracked past the largest bucket", func() {
			p := NewBufferPool(1024)
			b := p.Allocate(10 * 1024 * 1024)

			Expect(b.Cap()).To(BeNumerically(">=", 10*1024*1024))
		})
	})

	Context("Append/Consume/Advance", func() {
		It("appends bytes and exposes them via Bytes", func() {
			p := NewBufferPool(4096)
			b := p.Allocate(64)

			b.Append([]byte("hello"))
			Expect(b.Bytes()).To(Equal([]byte("hello")))
			Expect(b.Len()).To(Equal(5))
		})

		It("grows past its bucket capacity on a large Append", func() {
			p := NewBufferPool(64)
			b := p.Allocate(64)

			big := make([]byte, 4096)
			b.Append(big)
			Expect(b.Len()).To(Equal(4096))
		})

		It("consumes from the read cursor and resets when drained", func() {
			p := NewBufferPool(4096)
			b := p.Allocate(64)
			b.Append([]byte("hello"))

			b.Consume(5)
			Expect(b.Len()).To(Equal(0))
			Expect(b.Bytes()).To(Equal([]byte{}))
		})

		It("advances the write cursor over bytes written via WriteSlice", func() {
			p := NewBufferPool(4096)
			b := p.Allocate(64)

			tail := b.WriteSlice()
			n := copy(tail, []byte("abc"))
			b.Advance(n)

			Expect(b.Bytes()).To(Equal([]byte("abc")))
		})
	})

	Context("Retain/Release", func() {
		It("keeps the buffer alive until every reference is released", func() {
			p := NewBufferPool(4096)
			b := p.Allocate(64)
			b.Append([]byte("x"))

			b.Retain()
			b.Release()
			Expect(b.Bytes()).To(Equal([]byte("x")))

			b.Release()
		})
	})
})
