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

package httpconn

import (
	"sync"
	"time"

	librtr "github.com/nabbar/reactonet/reactor"
	libsck "github.com/nabbar/reactonet/socket"
)

// ClientCallback receives the outcome of one Send: exactly one of resp/err
// is non-nil.
type ClientCallback func(resp *Response, err error)

// ClientConnHandler lets the owner (httpconn/pool's address-indexed cache)
// learn when a ClientConn goes idle or dies, mirroring ServerConnHandler.
type ClientConnHandler interface {
	OnIdle(c *ClientConn)
	OnClosed(c *ClientConn, err error)
}

// ClientConn drives one outbound connection's request/response lifecycle:
// write the request, assert read interest, wait for the response to
// complete (or for EOF, on an unknown-length response), then report
// keep-alive eligibility to its owner.
//
// A ClientConn sends at most one request at a time; httpconn/pool is
// responsible for pipelining multiple logical requests across a small pool
// of ClientConns rather than interleaving them on one.
type ClientConn struct {
	rtr librtr.Reactor
	sck libsck.Socket
	prs *Parser
	cfg Config
	own ClientConnHandler

	mu       sync.Mutex
	cb       ClientCallback
	timeout  librtr.CancelHandle
	inFlight bool
	closed   bool
}

// NewClientConn wires sck to a fresh client-side Parser and starts read
// interest immediately so a response arriving before the next Send is not
// lost.
func NewClientConn(rtr librtr.Reactor, sck libsck.Socket, cfg Config, own ClientConnHandler) *ClientConn {
	cfg.setDefaults()
	c := &ClientConn{
		rtr: rtr,
		sck: sck,
		prs: NewParser(cfg, false),
		cfg: cfg,
		own: own,
	}
	sck.SetHandler(c)
	return c
}

// Close tears down the underlying socket immediately.
func (c *ClientConn) Close() {
	c.sck.Close()
}

// Send writes req and invokes cb with the decoded Response. cb is always
// called exactly once, on the owning Reactor's goroutine, either with a
// Response or with an error (ErrorTimeout if timeout elapses first,
// ErrorConnectionClosed if the peer closes first). Send must not be called
// again until cb has fired for the previous request.
func (c *ClientConn) Send(req *Request, timeout time.Duration, cb ClientCallback) {
	c.mu.Lock()
	if c.closed || c.inFlight {
		c.mu.Unlock()
		cb(nil, ErrorParamInvalid.Error(nil))
		return
	}
	c.inFlight = true
	c.cb = cb
	if timeout > 0 {
		c.timeout = c.rtr.Schedule(c.rtr.CurrentTime().Add(timeout), func() {
			c.complete(nil, ErrorTimeout.Error(nil))
		})
	}
	c.mu.Unlock()

	buf, _ := writeRequest(c.rtr, req)
	c.sck.Write(buf)
}

func (c *ClientConn) OnRegistered() {
	c.sck.Read()
}

func (c *ClientConn) OnRead(buf *librtr.Buffer) {
	msgs, err := c.prs.Feed(buf.Bytes())
	if err != nil {
		c.complete(nil, err)
		return
	}
	for _, m := range msgs {
		c.complete(m.Response, nil)
	}
}

func (c *ClientConn) OnReadEndOfStream() {
	if msg, err := c.prs.EOF(); msg != nil && err == nil {
		c.complete(msg.Response, nil)
		return
	}
	c.mu.Lock()
	idle := !c.inFlight
	c.mu.Unlock()

	if idle {
		// keep-alive connection the peer dropped between requests
		c.sck.Close()
		return
	}

	// EOF midway through a framed response (or before any byte of one): the
	// message can never complete, so the pending request fails now rather
	// than waiting for its timeout.
	c.complete(nil, ErrorConnectionClosed.Error(nil))
}

func (c *ClientConn) OnWrite() {}

func (c *ClientConn) OnClosedWithError(err error) {
	c.mu.Lock()
	c.closed = true
	cb := c.cb
	c.cb = nil
	inFlight := c.inFlight
	c.inFlight = false
	c.mu.Unlock()

	if inFlight && cb != nil {
		if err == nil {
			err = ErrorConnectionClosed.Error(nil)
		}
		cb(nil, err)
	}
	if c.own != nil {
		c.own.OnClosed(c, err)
	}
}

func (c *ClientConn) complete(resp *Response, err error) {
	c.mu.Lock()
	if !c.inFlight {
		c.mu.Unlock()
		return
	}
	if c.timeout != nil {
		c.timeout.Cancel()
		c.timeout = nil
	}
	cb := c.cb
	c.cb = nil
	c.inFlight = false
	c.mu.Unlock()

	if cb != nil {
		cb(resp, err)
	}

	if err != nil {
		c.sck.Close()
		return
	}
	if resp != nil && !resp.KeepAlive {
		c.sck.Close()
		return
	}
	if c.own != nil {
		c.own.OnIdle(c)
	}
}
