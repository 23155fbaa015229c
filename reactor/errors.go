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

package reactor

import (
	"fmt"

	liberr "github.com/nabbar/reactonet/errors"
)

const (
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinPkgReactor
	ErrorParamInvalid
	ErrorNotRunning
	ErrorAlreadyRunning
	ErrorListen
	ErrorAccept
	ErrorDial
	ErrorDialTimeout
	ErrorClosed
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision with package reactonet/reactor"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "at least one given parameters is empty"
	case ErrorParamInvalid:
		return "at least one given parameters is invalid"
	case ErrorNotRunning:
		return "reactor loop is not running"
	case ErrorAlreadyRunning:
		return "reactor loop is already running"
	case ErrorListen:
		return "cannot listen on the given address"
	case ErrorAccept:
		return "error accepting an incoming connection"
	case ErrorDial:
		return "cannot connect to the given address"
	case ErrorDialTimeout:
		return "connection attempt timed out"
	case ErrorClosed:
		return "reactor is closed"
	}

	return liberr.NullMessage
}
