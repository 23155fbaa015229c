/*
 *  MIT License
 *
 *  Copyright (c) 2025 Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Package cbor wraps github.com/fxamacker/cbor/v2 behind the two functions
// callers actually need, the same narrow-surface style as nopwritecloser:
// the body codecs in httpconn opt into this instead of JSON when a caller
// wants a compact binary representation for a structured request/response
// body.
package cbor

import libcbr "github.com/fxamacker/cbor/v2"

// ContentType is the MIME type set on a Request/Response whose body was
// produced by Marshal.
const ContentType = "application/cbor"

// Marshal encodes v as CBOR.
func Marshal(v any) ([]byte, error) {
	return libcbr.Marshal(v)
}

// Unmarshal decodes CBOR-encoded data into v.
func Unmarshal(data []byte, v any) error {
	return libcbr.Unmarshal(data, v)
}
