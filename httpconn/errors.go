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
	"fmt"

	liberr "github.com/nabbar/reactonet/errors"
)

const (
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinPkgHttpConn
	ErrorParamInvalid
	ErrorProtocol
	ErrorHeaderTooLong
	ErrorTooManyHeaders
	ErrorMessageTooLarge
	ErrorChunkedFraming
	ErrorDuplicateContentLength
	ErrorConnectionClosed
	ErrorTimeout
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision with package reactonet/httpconn"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "at least one given parameters is empty"
	case ErrorParamInvalid:
		return "at least one given parameters is invalid"
	case ErrorProtocol:
		return "malformed HTTP/1.1 message"
	case ErrorHeaderTooLong:
		return "header line exceeds the configured maximum length"
	case ErrorTooManyHeaders:
		return "too many header lines in the message"
	case ErrorMessageTooLarge:
		return "message body exceeds the configured maximum size"
	case ErrorChunkedFraming:
		return "malformed chunked transfer-encoding framing"
	case ErrorDuplicateContentLength:
		return "duplicate Content-Length headers with different values"
	case ErrorConnectionClosed:
		return "connection closed before the message completed"
	case ErrorTimeout:
		return "request exceeded its time budget"
	}

	return liberr.NullMessage
}
