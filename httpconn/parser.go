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
	"net/url"
	"strconv"
	"strings"

	arccmp "github.com/nabbar/reactonet/archive/compress"
	liberr "github.com/nabbar/reactonet/errors"
)

// parserState implements the NOTHING -> FIRST_LINE -> HEADERS -> BODY |
// CHUNK_LEN <-> CHUNK -> NOTHING state machine.
type parserState uint8

const (
	stNothing parserState = iota
	stFirstLine
	stHeaders
	stBody
	stChunkLen
	stChunk
	stChunkCRLF
	stTrailer
	stClosed
)

// bodyUntilEOF marks a BODY state whose length is only known once the
// socket reaches end-of-stream, the fallback framing for a response that
// carries neither Content-Length nor chunked encoding.
const bodyUntilEOF = -1

// ParsedMessage is one fully decoded request or response; exactly one of
// Request/Response is non-nil, matching which side the Parser was built
// for.
type ParsedMessage struct {
	Request  *Request
	Response *Response
}

// Parser implements the HTTP/1.1 framing and parsing state machine. It is
// not safe for concurrent use; every ServerConn/ClientConn drives its own
// Parser exclusively from its owning reactor goroutine.
type Parser struct {
	cfg    Config
	server bool

	state parserState
	raw   []byte

	headerLines []string
	header      Header
	method      string
	rawTarget   string
	reqURL      *url.URL
	proto       string
	status      int
	reason      string

	hasCL         bool
	contentLength int64
	chunked       bool
	remaining     int64
	chunkBudget   int

	body       []byte
	msgSize    int64
	keepAlive  bool
	zeroBodyOK bool
}

// NewParser builds a Parser for the server side (server=true, parses
// requests) or the client side (server=false, parses responses).
func NewParser(cfg Config, server bool) *Parser {
	cfg.setDefaults()
	p := &Parser{cfg: cfg, server: server}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.state = stFirstLine
	p.headerLines = nil
	p.header = make(Header)
	p.method = ""
	p.rawTarget = ""
	p.reqURL = nil
	p.proto = ""
	p.status = 0
	p.reason = ""
	p.hasCL = false
	p.contentLength = 0
	p.chunked = false
	p.remaining = 0
	p.chunkBudget = 0
	p.body = nil
	p.msgSize = 0
	p.keepAlive = false
}

// Feed appends newly received bytes and decodes as many complete messages
// as the buffer contains. It tolerates arbitrary fragmentation: a call
// that does not complete a line/body simply returns with no messages and
// waits for the next Feed.
func (p *Parser) Feed(data []byte) ([]*ParsedMessage, liberr.Error) {
	if len(data) > 0 {
		p.raw = append(p.raw, data...)
	}

	var out []*ParsedMessage

	for {
		if p.state == stClosed {
			return out, nil
		}

		if err := p.checkSize(0); err != nil {
			return out, err
		}

		progressed, msg, err := p.step()
		if err != nil {
			return out, err
		}
		if msg != nil {
			out = append(out, msg)
		}
		if !progressed {
			return out, nil
		}
	}
}

// EOF finalizes an in-progress "read until end-of-stream" body once the
// peer half-closes.
func (p *Parser) EOF() (*ParsedMessage, liberr.Error) {
	if p.state != stBody || p.remaining != bodyUntilEOF {
		return nil, nil
	}
	return p.completeMessage()
}

// step performs at most one state transition, returning progressed=false
// when it needs more bytes than p.raw currently holds.
func (p *Parser) step() (progressed bool, msg *ParsedMessage, err liberr.Error) {
	switch p.state {
	case stFirstLine:
		return p.stepFirstLine()
	case stHeaders:
		return p.stepHeaders()
	case stBody:
		return p.stepBody()
	case stChunkLen:
		return p.stepChunkLen()
	case stChunk:
		return p.stepChunk()
	case stChunkCRLF:
		return p.stepChunkCRLF()
	case stTrailer:
		return p.stepTrailer()
	default:
		return false, nil, nil
	}
}

func (p *Parser) takeLine() (line string, ok bool, err liberr.Error) {
	idx := bytes.IndexByte(p.raw, '\n')
	if idx < 0 {
		if int64(len(p.raw)) > p.cfg.MaxHeaderLineSize.Int64() {
			return "", false, ErrorHeaderTooLong.Error(nil)
		}
		return "", false, nil
	}

	raw := p.raw[:idx]
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	if int64(len(raw)) > p.cfg.MaxHeaderLineSize.Int64() {
		return "", false, ErrorHeaderTooLong.Error(nil)
	}

	p.raw = p.raw[idx+1:]
	p.msgSize += int64(idx + 1)
	return string(raw), true, nil
}

func (p *Parser) stepFirstLine() (bool, *ParsedMessage, liberr.Error) {
	line, ok, err := p.takeLine()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	if line == "" {
		// tolerate a stray leading blank line between pipelined messages
		return true, nil, nil
	}

	parts := strings.SplitN(line, " ", 3)
	if p.server {
		if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/1.") {
			return false, nil, ErrorProtocol.Error(nil)
		}
		p.method = parts[0]
		p.rawTarget = parts[1]
		p.proto = parts[2]
		u, perr := url.ParseRequestURI(parts[1])
		if perr != nil {
			return false, nil, ErrorProtocol.Error(perr)
		}
		p.reqURL = u
	} else {
		if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/1.") {
			return false, nil, ErrorProtocol.Error(nil)
		}
		code, cerr := strconv.Atoi(parts[1])
		if cerr != nil {
			return false, nil, ErrorProtocol.Error(cerr)
		}
		p.proto = parts[0]
		p.status = code
		if len(parts) == 3 {
			p.reason = parts[2]
		}
	}

	p.state = stHeaders
	return true, nil, nil
}

func (p *Parser) stepHeaders() (bool, *ParsedMessage, liberr.Error) {
	for {
		// a continuation line starts with SP/HT and is folded onto the
		// previous header's value.
		if len(p.raw) > 0 && (p.raw[0] == ' ' || p.raw[0] == '\t') {
			line, ok, err := p.takeLine()
			if err != nil {
				return false, nil, err
			}
			if !ok {
				return false, nil, nil
			}
			if len(p.headerLines) == 0 {
				return false, nil, ErrorProtocol.Error(nil)
			}
			last := len(p.headerLines) - 1
			p.headerLines[last] += " " + strings.TrimSpace(line)
			continue
		}

		line, ok, err := p.takeLine()
		if err != nil {
			return false, nil, err
		}
		if !ok {
			return false, nil, nil
		}
		if line == "" {
			msg, ferr := p.finishHeaders()
			return true, msg, ferr
		}

		if len(p.headerLines) >= p.cfg.MaxHeaders {
			return false, nil, ErrorTooManyHeaders.Error(nil)
		}
		p.headerLines = append(p.headerLines, line)
	}
}

func (p *Parser) finishHeaders() (*ParsedMessage, liberr.Error) {
	for _, line := range p.headerLines {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, ErrorProtocol.Error(nil)
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			return nil, ErrorProtocol.Error(nil)
		}
		p.header.Add(name, value)
	}

	if cls := p.header["Content-Length"]; len(cls) > 0 {
		p.hasCL = true
		first := cls[0]
		for _, v := range cls[1:] {
			if v != first {
				return nil, ErrorDuplicateContentLength.Error(nil)
			}
		}
		n, err := strconv.ParseInt(first, 10, 64)
		if err != nil || n < 0 {
			return nil, ErrorProtocol.Error(err)
		}
		p.contentLength = n
	}

	if te := p.header.Get("Transfer-Encoding"); strings.Contains(strings.ToLower(te), "chunked") {
		p.chunked = true
	}

	p.keepAlive = p.defaultKeepAlive()
	if conn := strings.ToLower(p.header.Get("Connection")); conn != "" {
		if strings.Contains(conn, "close") {
			p.keepAlive = false
		} else if strings.Contains(conn, "keep-alive") {
			p.keepAlive = true
		}
	}

	p.zeroBodyOK = !p.server && (p.status/100 == 1 || p.status == 204 || p.status == 304)

	switch {
	case p.chunked:
		p.state = stChunkLen
		return nil, nil
	case p.hasCL:
		p.remaining = p.contentLength
		if p.remaining == 0 {
			return p.completeMessage()
		}
		p.state = stBody
		return nil, nil
	case p.server || p.zeroBodyOK:
		return p.completeMessage()
	default:
		p.remaining = bodyUntilEOF
		p.state = stBody
		return nil, nil
	}
}

func (p *Parser) defaultKeepAlive() bool {
	return strings.HasSuffix(p.proto, "1.1") || strings.HasSuffix(p.proto, "1.1\r")
}

func (p *Parser) stepBody() (bool, *ParsedMessage, liberr.Error) {
	if p.remaining == bodyUntilEOF {
		if len(p.raw) == 0 {
			return false, nil, nil
		}
		if err := p.checkSize(int64(len(p.raw))); err != nil {
			return false, nil, err
		}
		p.body = append(p.body, p.raw...)
		p.msgSize += int64(len(p.raw))
		p.raw = p.raw[:0]
		return false, nil, nil
	}

	if p.remaining == 0 {
		msg, err := p.completeMessage()
		return true, msg, err
	}

	if len(p.raw) == 0 {
		return false, nil, nil
	}

	n := int64(len(p.raw))
	if n > p.remaining {
		n = p.remaining
	}
	if err := p.checkSize(n); err != nil {
		return false, nil, err
	}

	p.body = append(p.body, p.raw[:n]...)
	p.raw = p.raw[n:]
	p.remaining -= n
	p.msgSize += n

	if p.remaining == 0 {
		msg, err := p.completeMessage()
		return true, msg, err
	}
	return true, nil, nil
}

func (p *Parser) stepChunkLen() (bool, *ParsedMessage, liberr.Error) {
	idx := bytes.IndexByte(p.raw, '\n')
	if idx < 0 {
		p.chunkBudget += len(p.raw)
		if p.chunkBudget > p.cfg.MaxHeaderLineSize.Int() {
			return false, nil, ErrorChunkedFraming.Error(nil)
		}
		return false, nil, nil
	}

	line := bytes.TrimSuffix(p.raw[:idx], []byte("\r"))
	p.raw = p.raw[idx+1:]
	p.msgSize += int64(idx + 1)
	p.chunkBudget = 0

	hex := line
	if semi := bytes.IndexByte(hex, ';'); semi >= 0 {
		hex = hex[:semi]
	}
	hex = bytes.TrimSpace(hex)
	if len(hex) == 0 {
		return false, nil, ErrorChunkedFraming.Error(nil)
	}

	size, err := strconv.ParseInt(string(hex), 16, 64)
	if err != nil || size < 0 {
		return false, nil, ErrorChunkedFraming.Error(err)
	}

	if size == 0 {
		p.state = stTrailer
		return true, nil, nil
	}

	p.remaining = size
	p.state = stChunk
	return true, nil, nil
}

func (p *Parser) stepChunk() (bool, *ParsedMessage, liberr.Error) {
	if p.remaining == 0 {
		p.state = stChunkCRLF
		return true, nil, nil
	}
	if len(p.raw) == 0 {
		return false, nil, nil
	}

	n := int64(len(p.raw))
	if n > p.remaining {
		n = p.remaining
	}
	if err := p.checkSize(n); err != nil {
		return false, nil, err
	}

	p.body = append(p.body, p.raw[:n]...)
	p.raw = p.raw[n:]
	p.remaining -= n
	p.msgSize += n
	return true, nil, nil
}

func (p *Parser) stepChunkCRLF() (bool, *ParsedMessage, liberr.Error) {
	_, ok, err := p.takeLine()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	p.state = stChunkLen
	return true, nil, nil
}

func (p *Parser) stepTrailer() (bool, *ParsedMessage, liberr.Error) {
	line, ok, err := p.takeLine()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	if line == "" {
		msg, cerr := p.completeMessage()
		return true, msg, cerr
	}
	// trailer headers are parsed for well-formedness but not merged into
	// the message header set; callers never need the trailers exposed.
	if idx := strings.IndexByte(line, ':'); idx < 0 {
		return false, nil, ErrorChunkedFraming.Error(nil)
	}
	return true, nil, nil
}

func (p *Parser) checkSize(extra int64) liberr.Error {
	if p.msgSize+extra > p.cfg.MaxHTTPMessageSize.Int64() {
		return ErrorMessageTooLarge.Error(nil)
	}
	return nil
}

func (p *Parser) completeMessage() (*ParsedMessage, liberr.Error) {
	var out *ParsedMessage

	body, gzErr := p.decodeBody()
	if gzErr != nil {
		p.reset()
		return nil, ErrorProtocol.Error(gzErr)
	}

	if p.server {
		out = &ParsedMessage{Request: &Request{
			Method:    p.method,
			URL:       p.reqURL,
			Proto:     p.proto,
			Header:    p.header,
			Body:      body,
			KeepAlive: p.keepAlive && !p.cfg.DisableKeepAlive,
		}}
	} else {
		out = &ParsedMessage{Response: &Response{
			StatusCode: p.status,
			Reason:     p.reason,
			Header:     p.header,
			Body:       body,
			KeepAlive:  p.keepAlive && !p.cfg.DisableKeepAlive,
		}}
	}

	p.reset()
	return out, nil
}

// decodeBody transparently decodes the accumulated body when the peer
// declared a Content-Encoding this module knows how to reverse (any
// archive/compress.Algorithm: bzip2, gzip, lz4, xz). An absent or
// unrecognized Content-Encoding passes the body through unchanged.
func (p *Parser) decodeBody() ([]byte, error) {
	if len(p.body) == 0 {
		return p.body, nil
	}
	alg := arccmp.Parse(p.header.Get("Content-Encoding"))
	if alg.IsNone() {
		return p.body, nil
	}
	return decompressBody(alg, p.body)
}
