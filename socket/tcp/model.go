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

// Package tcp implements socket.Socket over a plain, non-TLS net.Conn.
//
// Go's net.Conn already hides the selector: a Read blocks the calling
// goroutine until data, EOF or an error is available. This package keeps
// the read/write-interest model by running one dedicated reader goroutine
// and one dedicated writer goroutine per connection, but it funnels every
// callback they produce through reactor.Reactor.Execute so that - exactly
// as a raw-selector design intends - no two Handler callbacks for the same
// Socket ever run concurrently, and they always run on the owning
// Reactor's own goroutine.
package tcp

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	librtr "github.com/nabbar/reactonet/reactor"
	librnr "github.com/nabbar/reactonet/runner"
	libsck "github.com/nabbar/reactonet/socket"
)

type tcpSocket struct {
	rtr librtr.Reactor
	cnn net.Conn
	cfg Config

	hdl atomic.Value // libsck.Handler
	rel func()

	closed     int32
	readOnce   sync.Once
	writeEndRq int32

	wMu      sync.Mutex
	wQueue   []*librtr.Buffer
	wWaiting bool
	wWake    chan struct{}
}

// New wraps conn as a socket.Socket driven by rtr. conn is typically the
// result of reactor.Reactor.Listen's AcceptFunc or Connect's DialFunc.
func New(rtr librtr.Reactor, conn net.Conn, cfg Config) libsck.Socket {
	cfg.setDefaults()

	s := &tcpSocket{
		rtr:   rtr,
		cnn:   conn,
		cfg:   cfg,
		wWake: make(chan struct{}, 1),
		// an open socket is live I/O interest keeping the reactor loop
		// alive between deliveries; released on tear-down
		rel: rtr.Hold(),
	}
	return s
}

func (s *tcpSocket) handler() libsck.Handler {
	if h, ok := s.hdl.Load().(libsck.Handler); ok {
		return h
	}
	return nil
}

func (s *tcpSocket) SetHandler(h libsck.Handler) {
	s.hdl.Store(h)
	s.rtr.Execute(func() {
		if h := s.handler(); h != nil && s.IsOpen() {
			h.OnRegistered()
		}
	})
}

func (s *tcpSocket) IsOpen() bool {
	return atomic.LoadInt32(&s.closed) == 0
}

func (s *tcpSocket) RemoteAddr() net.Addr {
	return s.cnn.RemoteAddr()
}

func (s *tcpSocket) Read() {
	s.readOnce.Do(func() {
		go s.readLoop()
	})
}

func (s *tcpSocket) readLoop() {
	defer func() { librnr.RecoveryCaller("socket/tcp/read", recover()) }()

	for {
		buf := s.rtr.Allocate(s.cfg.ReceiveBufferSize.Int())

		n, err := s.cnn.Read(buf.WriteSlice())
		if n > 0 {
			buf.Advance(n)
			s.rtr.Execute(func() {
				if h := s.handler(); h != nil && s.IsOpen() {
					h.OnRead(buf)
				}
				buf.Release()
			})
		} else {
			buf.Release()
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				s.rtr.Execute(func() {
					if h := s.handler(); h != nil && s.IsOpen() {
						h.OnReadEndOfStream()
					}
				})
			} else {
				s.closeWithError(err)
			}
			return
		}
	}
}

func (s *tcpSocket) Write(buf *librtr.Buffer) {
	if buf == nil {
		return
	}

	s.wMu.Lock()
	s.wQueue = append(s.wQueue, buf)
	start := !s.wWaiting
	s.wWaiting = true
	s.wMu.Unlock()

	if start {
		go s.writeLoop()
	}
}

func (s *tcpSocket) writeLoop() {
	defer func() { librnr.RecoveryCaller("socket/tcp/write", recover()) }()

	for {
		head := s.drainMerged()
		if head == nil {
			s.wMu.Lock()
			if len(s.wQueue) == 0 {
				s.wWaiting = false
				s.wMu.Unlock()
				if atomic.LoadInt32(&s.writeEndRq) == 1 {
					s.shutdownWrite()
				}
				s.rtr.Execute(func() {
					if h := s.handler(); h != nil && s.IsOpen() {
						h.OnWrite()
					}
				})
				return
			}
			s.wMu.Unlock()
			continue
		}

		_, err := s.cnn.Write(head.Bytes())
		head.Release()
		if err != nil {
			s.closeWithError(err)
			return
		}
	}
}

// drainMerged pops the head buffer and coalesces subsequent small buffers
// into it while the combined size stays within cfg.MergeLimit, to cut the
// number of syscalls when several small writes are queued back to back.
func (s *tcpSocket) drainMerged() *librtr.Buffer {
	s.wMu.Lock()
	defer s.wMu.Unlock()

	if len(s.wQueue) == 0 {
		return nil
	}

	head := s.wQueue[0]
	s.wQueue = s.wQueue[1:]

	limit := s.cfg.MergeLimit.Int()
	for len(s.wQueue) > 0 {
		next := s.wQueue[0]
		if head.Len()+next.Len() > limit {
			break
		}
		head.Append(next.Bytes())
		next.Release()
		s.wQueue = s.wQueue[1:]
	}

	return head
}

func (s *tcpSocket) WriteEndOfStream() {
	atomic.StoreInt32(&s.writeEndRq, 1)

	s.wMu.Lock()
	idle := !s.wWaiting
	s.wMu.Unlock()

	if idle {
		s.shutdownWrite()
	}
}

func (s *tcpSocket) shutdownWrite() {
	if cw, ok := s.cnn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}

func (s *tcpSocket) Close() {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return
	}

	_ = s.cnn.Close()

	s.wMu.Lock()
	for _, b := range s.wQueue {
		b.Release()
	}
	s.wQueue = nil
	s.wMu.Unlock()

	s.rel()
}

func (s *tcpSocket) closeWithError(err error) {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return
	}

	_ = s.cnn.Close()

	s.wMu.Lock()
	for _, b := range s.wQueue {
		b.Release()
	}
	s.wQueue = nil
	s.wMu.Unlock()

	// the hold drops only once the terminal callback has run, so the loop
	// cannot exit with the notification still queued
	s.rtr.Execute(func() {
		defer s.rel()
		if h := s.handler(); h != nil {
			h.OnClosedWithError(err)
		}
	})
}
