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
	"bytes"
	"compress/gzip"
	"strconv"
	"strings"

	. "github.com/nabbar/reactonet/httpconn"
	libsiz "github.com/nabbar/reactonet/size"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// feedFragmented delivers data to p one byte at a time, collecting every
// ParsedMessage across all calls, to prove the parser tolerates arbitrary
// fragmentation of the input stream.
func feedFragmented(p *Parser, data []byte) []*ParsedMessage {
	var out []*ParsedMessage
	for i := range data {
		msgs, err := p.Feed(data[i : i+1])
		Expect(err).To(BeNil())
		out = append(out, msgs...)
	}
	return out
}

var _ = Describe("Parser", func() {
	Context("server side, Content-Length framing", func() {
		It("parses a request delivered as one buffer", func() {
			p := NewParser(Config{}, true)
			raw := "POST /abc HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nHello"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))

			req := msgs[0].Request
			Expect(req.Method).To(Equal("POST"))
			Expect(req.URL.Path).To(Equal("/abc"))
			Expect(string(req.Body)).To(Equal("Hello"))
			Expect(req.KeepAlive).To(BeTrue())
		})

		It("parses the same request fragmented one byte at a time identically", func() {
			raw := []byte("GET /abc HTTP/1.1\r\nHost: x\r\n\r\n")

			whole := NewParser(Config{}, true)
			wholeMsgs, err := whole.Feed(raw)
			Expect(err).To(BeNil())

			frag := NewParser(Config{}, true)
			fragMsgs := feedFragmented(frag, raw)

			Expect(fragMsgs).To(HaveLen(1))
			Expect(wholeMsgs).To(HaveLen(1))
			Expect(fragMsgs[0].Request.Method).To(Equal(wholeMsgs[0].Request.Method))
			Expect(fragMsgs[0].Request.URL.Path).To(Equal(wholeMsgs[0].Request.URL.Path))
		})

		It("parses a minimal GET request with a single header", func() {
			p := NewParser(Config{}, true)
			raw := "GET /abc HTTP/1.1\r\nHost: x\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Request.URL.Path).To(Equal("/abc"))
			Expect(msgs[0].Request.Body).To(BeEmpty())
		})

		It("folds a header continuation line starting with a space", func() {
			p := NewParser(Config{}, true)
			raw := "GET / HTTP/1.1\r\nX-Long: part-one\r\n part-two\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Request.Header.Get("X-Long")).To(Equal("part-one part-two"))
		})

		It("lets chunked framing win a tie-break over Content-Length", func() {
			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nContent-Length: 3\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n0\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(string(msgs[0].Request.Body)).To(Equal("Hello"))
		})

		It("rejects duplicate Content-Length headers with different values", func() {
			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nContent-Length: 3\r\nContent-Length: 5\r\n\r\nHello"

			_, err := p.Feed([]byte(raw))
			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorDuplicateContentLength))
		})

		It("accepts a duplicate Content-Length header with the identical value", func() {
			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 5\r\n\r\nHello"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
		})
	})

	Context("chunked transfer encoding", func() {
		It("delivers 'Hello' from a single chunk", func() {
			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n0\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(string(msgs[0].Request.Body)).To(Equal("Hello"))
		})

		It("parses multiple chunks across several writes and fragmented delivery", func() {
			raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"3\r\nfoo\r\n4\r\nbarz\r\n0\r\n\r\n"

			p := NewParser(Config{}, true)
			msgs := feedFragmented(p, []byte(raw))
			Expect(msgs).To(HaveLen(1))
			Expect(string(msgs[0].Request.Body)).To(Equal("foobarz"))
		})

		It("parses a chunk-size header split across two Feed calls", func() {
			p := NewParser(Config{}, true)
			head := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r"
			tail := "\nHello\r\n0\r\n\r\n"

			msgs, err := p.Feed([]byte(head))
			Expect(err).To(BeNil())
			Expect(msgs).To(BeEmpty())

			msgs, err = p.Feed([]byte(tail))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(string(msgs[0].Request.Body)).To(Equal("Hello"))
		})

		It("rejects a malformed chunk-size line", func() {
			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nZZZ\r\nHello\r\n0\r\n\r\n"

			_, err := p.Feed([]byte(raw))
			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorChunkedFraming))
		})
	})

	Context("bounds", func() {
		It("accepts a header line of exactly max_header_line_size bytes", func() {
			cfg := Config{MaxHeaderLineSize: libsiz.Size(64)}
			p := NewParser(cfg, true)

			name := "X-Pad: "
			pad := strings.Repeat("a", 64-len(name)) // line itself (sans CRLF) is exactly 64 bytes
			raw := "GET / HTTP/1.1\r\n" + name + pad + "\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
		})

		It("rejects a header line one byte longer than max_header_line_size", func() {
			cfg := Config{MaxHeaderLineSize: libsiz.Size(32)}
			p := NewParser(cfg, true)

			raw := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", 64) + "\r\n\r\n"

			_, err := p.Feed([]byte(raw))
			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorHeaderTooLong))
		})

		It("rejects a message exceeding MaxHTTPMessageSize", func() {
			cfg := Config{MaxHTTPMessageSize: libsiz.Size(25)}
			p := NewParser(cfg, true)

			body := strings.Repeat("x", 26)
			raw := "POST / HTTP/1.1\r\nContent-Length: 26\r\n\r\n" + body

			_, err := p.Feed([]byte(raw))
			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorMessageTooLarge))
		})

		It("rejects more headers than max_headers", func() {
			cfg := Config{MaxHeaders: 2}
			p := NewParser(cfg, true)

			raw := "GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n"

			_, err := p.Feed([]byte(raw))
			Expect(err).ToNot(BeNil())
			Expect(err.GetCode()).To(Equal(ErrorTooManyHeaders))
		})
	})

	Context("client side", func() {
		It("parses a status line with an empty reason phrase", func() {
			p := NewParser(Config{}, false)
			raw := "HTTP/1.1 200 \r\nContent-Length: 0\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Response.StatusCode).To(Equal(200))
			Expect(msgs[0].Response.Reason).To(Equal(""))
		})

		It("treats a 204 response as having no body regardless of framing", func() {
			p := NewParser(Config{}, false)
			raw := "HTTP/1.1 204 No Content\r\n\r\n"

			msgs, err := p.Feed([]byte(raw))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Response.Body).To(BeEmpty())
		})

		It("reads an unknown-length body until EOF", func() {
			p := NewParser(Config{}, false)
			head := "HTTP/1.1 200 OK\r\n\r\n"

			msgs, err := p.Feed([]byte(head))
			Expect(err).To(BeNil())
			Expect(msgs).To(BeEmpty())

			msgs, err = p.Feed([]byte("partial-body"))
			Expect(err).To(BeNil())
			Expect(msgs).To(BeEmpty())

			msg, eerr := p.EOF()
			Expect(eerr).To(BeNil())
			Expect(msg).ToNot(BeNil())
			Expect(string(msg.Response.Body)).To(Equal("partial-body"))
		})
	})

	Context("gzip body hook", func() {
		It("transparently gunzips a Content-Encoding: gzip request body", func() {
			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			_, werr := gw.Write([]byte("Hello, I am Alice!"))
			Expect(werr).To(BeNil())
			Expect(gw.Close()).To(BeNil())

			p := NewParser(Config{}, true)
			raw := "POST / HTTP/1.1\r\nContent-Encoding: gzip\r\nContent-Length: " +
				strconv.Itoa(buf.Len()) + "\r\n\r\n"

			msgs, err := p.Feed(append([]byte(raw), buf.Bytes()...))
			Expect(err).To(BeNil())
			Expect(msgs).To(HaveLen(1))
			Expect(string(msgs[0].Request.Body)).To(Equal("Hello, I am Alice!"))
		})
	})
})
