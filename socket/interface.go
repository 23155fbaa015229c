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

// Package socket defines the byte-oriented socket contract shared by the
// plain TCP transport (socket/tcp) and the TLS transport (socket/tls): a
// four-event handler interface and a small command surface, both expressed
// so that every callback a Handler receives for one Socket always runs on
// that socket's owning reactor.Reactor goroutine - never concurrently with
// another callback for the same socket.
package socket

import (
	"net"

	librtr "github.com/nabbar/reactonet/reactor"
)

// Handler receives the lifecycle and I/O events of one Socket. Every method
// is invoked on the owning Reactor's goroutine. After OnClosedWithError (or
// after OnReadEndOfStream followed by a later OnClosedWithError) fires, no
// further method is ever called again for that Socket.
type Handler interface {
	// OnRegistered fires once, after SetHandler, when the socket is ready
	// to accept commands (for a TLS socket, once the handshake completes).
	OnRegistered()

	// OnRead delivers one buffer of newly received bytes. The callee owns
	// buf for the duration of the call; it must Retain it to keep it past
	// return, and must Release every reference it takes.
	OnRead(buf *librtr.Buffer)

	// OnReadEndOfStream fires exactly once, when the peer has cleanly
	// closed its write side. No further OnRead call follows.
	OnReadEndOfStream()

	// OnWrite fires once the write queue has fully drained to the wire
	// (not necessarily acknowledged by the peer).
	OnWrite()

	// OnClosedWithError fires exactly once, for both the read and the
	// write side together, when the socket has been torn down because of
	// an I/O, TLS or protocol failure. It never fires after a clean
	// Close() requested by the owner.
	OnClosedWithError(err error)
}

// Socket is a non-blocking byte-stream endpoint: a plain TCP connection or
// a TLS session layered over one. Commands other than SetHandler must be
// issued from the owning Reactor's goroutine.
type Socket interface {
	// SetHandler attaches h and immediately schedules OnRegistered (after a
	// successful TLS handshake, for socket/tls). Must be called exactly
	// once, before any other command.
	SetHandler(h Handler)

	// Read declares read interest: once issued it stays in effect for the
	// remaining lifetime of the socket, delivering every chunk received to
	// OnRead until OnReadEndOfStream or OnClosedWithError. Calling it more
	// than once is a no-op.
	Read()

	// Write takes ownership of buf and appends it to the outgoing queue in
	// FIFO order. The caller must not touch buf again.
	Write(buf *librtr.Buffer)

	// WriteEndOfStream flushes the outgoing queue, then shuts down the
	// write half of the connection (for socket/tls, after emitting a
	// close-notify record).
	WriteEndOfStream()

	// Close tears the socket down immediately, releasing any buffered
	// writes. Idempotent; a second call is a no-op and never invokes
	// OnClosedWithError.
	Close()

	// IsOpen reports whether the socket has not yet been closed.
	IsOpen() bool

	// RemoteAddr returns the peer address, as reported by the underlying
	// net.Conn.
	RemoteAddr() net.Addr
}
