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
	"net/http"
	"net/url"

	arccmp "github.com/nabbar/reactonet/archive/compress"
	iocbor "github.com/nabbar/reactonet/ioutils/cbor"
)

// Header is the multi-valued, case-insensitive header bag used throughout
// this package. It reuses net/http.Header's canonicalization rules rather
// than hand-rolling a second one, since the parser and writer already
// exchange net/http.Header values with the codec helpers below.
type Header = http.Header

// Request is one parsed HTTP/1.1 request: method, URL, headers and the
// accumulated body.
type Request struct {
	Method    string
	URL       *url.URL
	Proto     string
	Header    Header
	Body      []byte
	Remote    string
	KeepAlive bool

	// Compress asks writeRequest to encode Body with the given
	// archive/compress.Algorithm and set Content-Encoding before framing.
	// arccmp.None (the zero value) leaves Body untouched.
	Compress arccmp.Algorithm
}

// Response is one HTTP/1.1 response a Servlet hands back to H for
// serialization, or that a ClientConn decodes from the wire.
type Response struct {
	StatusCode int
	Reason     string
	Header     Header
	Body       []byte
	KeepAlive  bool

	// Compress asks writeResponse to encode Body with the given
	// archive/compress.Algorithm and set Content-Encoding before framing,
	// when the application wants the body compressed on the wire. It is
	// message assembly, not framing: Content-Length is computed on the
	// encoded bytes, same as any other body. arccmp.None (the zero value)
	// leaves Body untouched.
	Compress arccmp.Algorithm
}

// NewResponse builds a Response with an initialized Header map.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(Header),
		Body:       body,
	}
}

func statusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Status"
}

// EncodeCBOR marshals v with ioutils/cbor and installs it as the request
// body, setting Content-Type so a server-side Servlet knows to DecodeCBOR
// it back. An alternative to building Body/Header by hand when the caller
// already has a Go value instead of raw bytes.
func (r *Request) EncodeCBOR(v any) error {
	b, err := iocbor.Marshal(v)
	if err != nil {
		return err
	}
	if r.Header == nil {
		r.Header = make(Header)
	}
	r.Body = b
	r.Header.Set("Content-Type", iocbor.ContentType)
	return nil
}

// DecodeCBOR unmarshals a request body a peer encoded with EncodeCBOR.
func (r *Request) DecodeCBOR(v any) error {
	return iocbor.Unmarshal(r.Body, v)
}

// EncodeCBOR marshals v with ioutils/cbor and installs it as the response
// body, setting Content-Type so a ClientCallback knows to DecodeCBOR it
// back, the mirror of Request.EncodeCBOR for the server side.
func (r *Response) EncodeCBOR(v any) error {
	b, err := iocbor.Marshal(v)
	if err != nil {
		return err
	}
	if r.Header == nil {
		r.Header = make(Header)
	}
	r.Body = b
	r.Header.Set("Content-Type", iocbor.ContentType)
	return nil
}

// DecodeCBOR unmarshals a response body a peer encoded with EncodeCBOR.
func (r *Response) DecodeCBOR(v any) error {
	return iocbor.Unmarshal(r.Body, v)
}
