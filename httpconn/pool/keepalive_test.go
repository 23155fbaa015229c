/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package pool_test

import (
	"sync/atomic"
	"time"

	libpol "github.com/nabbar/reactonet/httpconn/pool"
	librtr "github.com/nabbar/reactonet/reactor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeConn counts how many times the pool closed it.
type fakeConn struct {
	closed atomic.Int64
}

func (f *fakeConn) Close() {
	f.closed.Add(1)
}

// onLoop runs fn on rtr's goroutine and waits for it to complete.
func onLoop(rtr librtr.Reactor, fn func()) {
	done := make(chan struct{})
	rtr.Execute(func() {
		fn()
		close(done)
	})
	Eventually(done, 2*time.Second).Should(BeClosed())
}

var _ = Describe("KeepAlivePool", func() {
	var (
		rtr librtr.Reactor
		rel func()
	)

	BeforeEach(func() {
		rtr = librtr.New(librtr.Config{}, nil)
		Expect(rtr.Start()).To(BeNil())
		// the pool's sweep is background work only; in production a
		// listener's hold keeps the loop alive for it, modeled here
		rel = rtr.Hold()
	})

	AfterEach(func() {
		rel()
		rtr.Stop()
	})

	Describe("Add / Remove", func() {
		It("should link and unlink entries [TC-KA-001]", func() {
			var p *libpol.KeepAlivePool
			c1 := &fakeConn{}
			c2 := &fakeConn{}

			onLoop(rtr, func() {
				p = libpol.NewKeepAlivePool(rtr, time.Minute, time.Minute)
				e1 := p.Add(c1)
				e2 := p.Add(c2)
				Expect(p.Len()).To(Equal(2))

				p.Remove(e1)
				Expect(p.Len()).To(Equal(1))

				// removing twice is a no-op
				p.Remove(e1)
				Expect(p.Len()).To(Equal(1))

				p.Remove(e2)
				Expect(p.Len()).To(Equal(0))
			})

			Expect(c1.closed.Load()).To(Equal(int64(0)))
			Expect(c2.closed.Load()).To(Equal(int64(0)))
		})

		It("should re-arm an entry with Refresh [TC-KA-002]", func() {
			var p *libpol.KeepAlivePool
			c := &fakeConn{}

			onLoop(rtr, func() {
				p = libpol.NewKeepAlivePool(rtr, time.Minute, time.Minute)
				e := p.Add(c)
				Expect(p.Len()).To(Equal(1))

				p.Refresh(e)
				Expect(p.Len()).To(Equal(1))

				p.Remove(e)
				Expect(p.Len()).To(Equal(0))

				// a removed entry can be re-linked by Refresh
				p.Refresh(e)
				Expect(p.Len()).To(Equal(1))
			})
		})
	})

	Describe("Sweep", func() {
		It("should close entries idle past the timeout [TC-KA-003]", func() {
			var p *libpol.KeepAlivePool
			c := &fakeConn{}

			onLoop(rtr, func() {
				p = libpol.NewKeepAlivePool(rtr, 50*time.Millisecond, 20*time.Millisecond)
				p.Add(c)
			})

			Eventually(func() int64 {
				return c.closed.Load()
			}, 2*time.Second, 20*time.Millisecond).Should(Equal(int64(1)))

			onLoop(rtr, func() {
				Expect(p.Len()).To(Equal(0))
			})
		})

		It("should keep fresh entries alive [TC-KA-004]", func() {
			var p *libpol.KeepAlivePool
			c := &fakeConn{}

			onLoop(rtr, func() {
				p = libpol.NewKeepAlivePool(rtr, time.Minute, 20*time.Millisecond)
				p.Add(c)
			})

			Consistently(func() int64 {
				return c.closed.Load()
			}, 300*time.Millisecond, 50*time.Millisecond).Should(Equal(int64(0)))
		})
	})

	Describe("Close", func() {
		It("should close every pooled connection once [TC-KA-005]", func() {
			var (
				p *libpol.KeepAlivePool
				e *libpol.Entry
			)
			c := &fakeConn{}

			onLoop(rtr, func() {
				p = libpol.NewKeepAlivePool(rtr, time.Minute, time.Minute)
				e = p.Add(c)
				p.Close()
				Expect(p.Len()).To(Equal(0))

				// entries handed out before Close are inert afterwards
				p.Remove(e)
				Expect(p.Len()).To(Equal(0))
			})

			Expect(c.closed.Load()).To(Equal(int64(1)))
		})
	})
})
