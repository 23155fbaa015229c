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

package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	ginsdk "github.com/gin-gonic/gin"
	libgtx "github.com/nabbar/reactonet/context/gin"
	libcnn "github.com/nabbar/reactonet/httpconn"
)

// handlerServlet adapts an ordinary net/http.Handler - a gin.Engine, a
// http.ServeMux, a single func - onto httpconn.Servlet, so routing stays an
// external collaborator kept out of core framing, while the wire-level
// framing is still driven by the reactor/socket/httpconn stack.
//
// Each Serve call runs the handler synchronously against an
// httptest.ResponseRecorder; this costs one extra copy of the body versus
// streaming directly, a deliberate simplification since net/http.Handler's
// contract already assumes a buffered, replayable request/response pair.
//
// Every request runs under a context/gin.GinTonic installed as the
// http.Request's context: one request-scoped context implementation
// (typed value getters, cancellation, logger plumbing) shared by gin-based
// and plain net/http handlers alike, reachable from any handler as
// r.Context().
type handlerServlet struct {
	h http.Handler
}

// NewHandlerServlet wraps h as an httpconn.Servlet.
func NewHandlerServlet(h http.Handler) libcnn.Servlet {
	return &handlerServlet{h: h}
}

func (s *handlerServlet) Serve(req *libcnn.Request) *libcnn.Response {
	httpReq := &http.Request{
		Method:     req.Method,
		URL:        req.URL,
		Proto:      req.Proto,
		Header:     req.Header,
		Body:       http.NoBody,
		RemoteAddr: req.Remote,
		Host:       req.URL.Host,
	}
	if len(req.Body) > 0 {
		httpReq.Body = io.NopCloser(bytes.NewReader(req.Body))
	}

	rec := httptest.NewRecorder()

	// the request-scoped context: a gin.Context bound to the recorder,
	// wrapped as a GinTonic and carried by the request itself
	gct, _ := ginsdk.CreateTestContext(rec)
	gct.Request = httpReq
	gtx := libgtx.New(gct, nil)
	gct.Request = httpReq.WithContext(gtx)

	s.h.ServeHTTP(rec, gct.Request)

	resp := libcnn.NewResponse(rec.Code, rec.Body.Bytes())
	resp.Header = rec.Header().Clone()
	resp.KeepAlive = req.KeepAlive
	return resp
}
