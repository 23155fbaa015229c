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
	libatm "github.com/nabbar/reactonet/atomic"
	librtr "github.com/nabbar/reactonet/reactor"
	librnr "github.com/nabbar/reactonet/runner"
	libsck "github.com/nabbar/reactonet/socket"
)

// Servlet is the request handler contract: given a parsed Request it
// returns the Response to serialize back to the client. A
// Servlet that panics is recovered and mapped to a 500 by ServerConn, so
// implementations are free to fail loudly on unexpected input.
type Servlet interface {
	Serve(req *Request) *Response
}

// ServletFunc adapts a plain function to Servlet.
type ServletFunc func(req *Request) *Response

func (f ServletFunc) Serve(req *Request) *Response { return f(req) }

// ServerConnHandler is notified when a ServerConn finishes its lifecycle,
// so the owner (httpserver or httpconn/pool) can return the underlying
// socket to a keep-alive pool or drop it.
type ServerConnHandler interface {
	// OnIdle fires after a request/response completes and the connection
	// is eligible to stay open for another request.
	OnIdle(c *ServerConn)
	// OnClosed fires once the connection is gone, keep-alive or not.
	OnClosed(c *ServerConn, err error)
	// OnProtocolError fires once per malformed request the parser rejects,
	// just before the connection is closed, so the owner (httpserver) can
	// fold it into a server-wide protocol-error counter.
	OnProtocolError(c *ServerConn)
}

// ServerConn drives one accepted connection's request/response lifecycle
// over a socket.Socket: parse a request, invoke the Servlet, serialize and
// write the response, then either wait for the next pipelined request or
// close, mirroring the server-side half of the parser.
type ServerConn struct {
	rtr  librtr.Reactor
	sck  libsck.Socket
	prs      *Parser
	cfg      Config
	svc      Servlet
	own      ServerConnHandler
	draining bool
	writing  bool
	done     bool

	protoErrs libatm.Value[int64]
}

// NewServerConn wires sck to a fresh server-side Parser and starts read
// interest. svc handles every parsed Request; own is notified of idle/close
// transitions (may be nil).
func NewServerConn(rtr librtr.Reactor, sck libsck.Socket, cfg Config, svc Servlet, own ServerConnHandler) *ServerConn {
	cfg.setDefaults()
	c := &ServerConn{
		rtr:       rtr,
		sck:       sck,
		prs:       NewParser(cfg, true),
		cfg:       cfg,
		svc:       svc,
		own:       own,
		protoErrs: libatm.NewValue[int64](),
	}
	sck.SetHandler(c)
	return c
}

// ProtocolErrors returns the number of parse/framing errors observed on this
// connection. A malformed request closes the connection, so this is at most
// 1 in practice, but the counter stays available for the owner to read
// after OnProtocolError fires and before OnClosedWithError tears c down.
func (c *ServerConn) ProtocolErrors() int64 {
	return c.protoErrs.Load()
}

// Close tears down the underlying socket immediately, e.g. when the owner
// evicts this connection from a keep-alive pool or shuts the server down.
// Must be called on the owning reactor's goroutine.
func (c *ServerConn) Close() {
	c.finish(nil)
}

// finish closes the socket and notifies the owner exactly once, whatever
// path ended the connection: owner eviction, peer half-close while idle,
// framing error, or transport failure.
func (c *ServerConn) finish(err error) {
	if c.done {
		return
	}
	c.done = true
	c.sck.Close()
	if c.own != nil {
		c.own.OnClosed(c, err)
	}
}

// Drain prevents the next parsed request from receiving a keep-alive
// response, used when the server is shutting down.
func (c *ServerConn) Drain() {
	c.draining = true
}

func (c *ServerConn) OnRegistered() {
	c.sck.Read()
}

func (c *ServerConn) OnRead(buf *librtr.Buffer) {
	msgs, err := c.prs.Feed(buf.Bytes())
	if err != nil {
		c.protoErrs.Store(c.protoErrs.Load() + 1)
		if c.own != nil {
			c.own.OnProtocolError(c)
		}
		c.finish(nil)
		return
	}
	for _, m := range msgs {
		c.handle(m.Request)
	}
}

func (c *ServerConn) OnReadEndOfStream() {
	// a response still draining keeps the socket alive; its OnWrite will
	// land here again via writing=false on the next EOS-free idle moment,
	// and the keep-alive sweep covers the remainder. With nothing in
	// flight the peer is simply gone, so the socket is released now
	// instead of waiting for the pool sweep to find it.
	if c.writing {
		return
	}
	c.finish(nil)
}

func (c *ServerConn) OnWrite() {
	c.writing = false
}

func (c *ServerConn) OnClosedWithError(err error) {
	c.finish(err)
}

func (c *ServerConn) handle(req *Request) {
	req.Remote = c.sck.RemoteAddr().String()

	resp := c.invoke(req)
	if c.draining || c.cfg.DisableKeepAlive {
		resp.KeepAlive = false
	} else if !req.KeepAlive {
		resp.KeepAlive = false
	} else if resp.Header.Get("Connection") == "" {
		resp.KeepAlive = true
	}

	buf, _ := writeResponse(c.rtr, resp)
	c.writing = true
	c.sck.Write(buf)

	if resp.KeepAlive {
		if c.own != nil {
			c.own.OnIdle(c)
		}
	} else {
		c.sck.WriteEndOfStream()
	}
}

// invoke calls the Servlet, recovering a panic into a 500 response so one
// bad request never takes the connection (or the process) down.
func (c *ServerConn) invoke(req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			librnr.RecoveryCaller("httpconn/servlet", r)
			resp = NewResponse(500, []byte("Internal Server Error"))
		}
	}()

	resp = c.svc.Serve(req)
	if resp == nil {
		resp = NewResponse(500, nil)
	}
	if resp.Header == nil {
		resp.Header = make(Header)
	}
	return resp
}
