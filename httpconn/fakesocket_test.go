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

package httpconn_test

import (
	"net"
	"sync"

	librtr "github.com/nabbar/reactonet/reactor"
	libsck "github.com/nabbar/reactonet/socket"
)

// fakeAddr is a minimal net.Addr for fakeSocket.RemoteAddr.
type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// fakeSocket is an in-memory socket.Socket double: Write/WriteEndOfStream
// append to a buffer instead of touching a real net.Conn, and Close just
// flips a flag. Tests drive ServerConn/ClientConn by calling the Handler
// methods (OnRead, OnReadEndOfStream, OnClosedWithError) directly, exactly
// as socket/tcp would from its reader goroutine.
type fakeSocket struct {
	mu sync.Mutex

	hdl    libsck.Handler
	addr   net.Addr
	closed bool

	written     [][]byte
	readCalled  bool
	endOfStream bool
	closeCalls  int
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{addr: fakeAddr("127.0.0.1:9999")}
}

func (s *fakeSocket) SetHandler(h libsck.Handler) {
	s.mu.Lock()
	s.hdl = h
	s.mu.Unlock()
	h.OnRegistered()
}

func (s *fakeSocket) Read() {
	s.mu.Lock()
	s.readCalled = true
	s.mu.Unlock()
}

func (s *fakeSocket) Write(buf *librtr.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(buf.Bytes()))
	copy(cp, buf.Bytes())
	s.written = append(s.written, cp)
}

func (s *fakeSocket) WriteEndOfStream() {
	s.mu.Lock()
	s.endOfStream = true
	s.mu.Unlock()
}

func (s *fakeSocket) Close() {
	s.mu.Lock()
	s.closed = true
	s.closeCalls++
	s.mu.Unlock()
}

func (s *fakeSocket) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *fakeSocket) RemoteAddr() net.Addr {
	return s.addr
}

// lastWritten returns the concatenation of every buffer handed to Write so
// far, for asserting on the serialized wire form.
func (s *fakeSocket) lastWritten() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []byte
	for _, w := range s.written {
		out = append(out, w...)
	}
	return out
}

func (s *fakeSocket) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

func (s *fakeSocket) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSocket) gotEndOfStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endOfStream
}
