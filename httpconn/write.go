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
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	arccmp "github.com/nabbar/reactonet/archive/compress"
	iotnwc "github.com/nabbar/reactonet/ioutils/nopwritecloser"
	librtr "github.com/nabbar/reactonet/reactor"
)

// writeRequest serializes a Request into the reactor buffer model that
// socket.Socket.Write consumes: a request/response is flattened to bytes
// before handoff, the socket layer never understands HTTP framing itself.
// When req.Compress names a codec, Body is encoded with it and
// Content-Encoding is set before framing.
func writeRequest(rtr librtr.Reactor, req *Request) (*librtr.Buffer, error) {
	body := req.Body
	hdr := req.Header
	if !req.Compress.IsNone() && len(body) > 0 {
		enc, err := compressBody(req.Compress, body)
		if err != nil {
			return nil, err
		}
		hdr = withContentEncoding(hdr, req.Compress)
		body = enc
	}

	target := req.URL.RequestURI()
	head := fmt.Sprintf("%s %s %s\r\n", req.Method, target, protoOrDefault(req.Proto))
	return writeMessage(rtr, head, hdr, body, req.KeepAlive)
}

// writeResponse serializes a Response the same way, for the server side.
// When resp.Compress names a codec, the body is encoded with it and
// Content-Encoding is set before framing: it is message assembly, not wire
// framing itself.
func writeResponse(rtr librtr.Reactor, resp *Response) (*librtr.Buffer, error) {
	body := resp.Body
	hdr := resp.Header
	if !resp.Compress.IsNone() && len(body) > 0 {
		enc, err := compressBody(resp.Compress, body)
		if err != nil {
			return nil, err
		}
		hdr = withContentEncoding(hdr, resp.Compress)
		body = enc
	}

	reason := resp.Reason
	if reason == "" {
		reason = statusText(resp.StatusCode)
	}
	head := fmt.Sprintf("HTTP/1.1 %d %s\r\n", resp.StatusCode, reason)
	return writeMessage(rtr, head, hdr, body, resp.KeepAlive)
}

// withContentEncoding clones hdr (allocating one if absent) and sets
// Content-Encoding to alg's wire name.
func withContentEncoding(hdr Header, alg arccmp.Algorithm) Header {
	if hdr == nil {
		hdr = make(Header)
	} else {
		hdr = hdr.Clone()
	}
	hdr.Set("Content-Encoding", alg.String())
	return hdr
}

// compressBody encodes body with alg, one of the archive/compress codecs
// (Bzip2, Gzip, LZ4, XZ); each wraps a distinct third-party or stdlib
// writer behind the same Algorithm.Writer contract.
func compressBody(alg arccmp.Algorithm, body []byte) ([]byte, error) {
	out := &bytes.Buffer{}
	w, err := alg.Writer(iotnwc.New(out))
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(body); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// decompressBody reverses compressBody for the read side: a peer that set
// Content-Encoding on a request or response body is decoded transparently
// before the message reaches the Servlet or ClientCallback.
func decompressBody(alg arccmp.Algorithm, body []byte) ([]byte, error) {
	r, err := alg.Reader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	out := &bytes.Buffer{}
	if _, err = out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func protoOrDefault(proto string) string {
	if proto == "" {
		return "HTTP/1.1"
	}
	return proto
}

// writeMessage builds the header block and appends the body, setting
// Content-Length and Connection automatically unless the caller already
// supplied them. It allocates from the owning reactor's buffer pool so the
// result can be handed straight to socket.Socket.Write/WriteEndOfStream.
func writeMessage(rtr librtr.Reactor, head string, hdr Header, body []byte, keepAlive bool) (*librtr.Buffer, error) {
	if hdr == nil {
		hdr = make(Header)
	} else {
		hdr = hdr.Clone()
	}

	if hdr.Get("Content-Length") == "" {
		hdr.Set("Content-Length", strconv.Itoa(len(body)))
	}
	if hdr.Get("Connection") == "" {
		if keepAlive {
			hdr.Set("Connection", "keep-alive")
		} else {
			hdr.Set("Connection", "close")
		}
	}

	var b strings.Builder
	b.WriteString(head)
	writeHeaderLines(&b, hdr)
	b.WriteString("\r\n")

	total := b.Len() + len(body)
	buf := rtr.Allocate(total)
	buf.Append([]byte(b.String()))
	if len(body) > 0 {
		buf.Append(body)
	}
	return buf, nil
}

// writeHeaderLines renders a Header in a stable, sorted order so output is
// deterministic and easy to assert on in tests.
func writeHeaderLines(b *strings.Builder, hdr Header) {
	names := make([]string, 0, len(hdr))
	for name := range hdr {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range hdr[name] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\r\n")
		}
	}
}
