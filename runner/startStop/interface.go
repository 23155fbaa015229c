/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop provides a tiny reusable start/stop state machine for
// objects whose "running" body is a single function (a goroutine loop, a
// listener accept loop...) guarded against concurrent double-start/double-stop.
package startStop

import "time"

// FuncStart is the body executed while the component is running. It must return
// when the supplied stop channel is closed.
type FuncStart func(stop <-chan struct{}) error

// FuncStop performs any extra teardown once the stop channel has been closed and
// FuncStart has returned.
type FuncStop func()

// StartStop is a minimal, reusable start/stop guard.
type StartStop interface {
	// Start runs FuncStart in a new goroutine if not already running.
	Start() error

	// Stop closes the stop channel, runs FuncStop, and waits for FuncStart to return.
	Stop()

	// Restart stops then starts again.
	Restart() error

	// IsRunning reports whether FuncStart is currently executing.
	IsRunning() bool

	// Uptime reports how long the component has been running.
	Uptime() time.Duration
}

// New creates a StartStop guard around the given run/stop functions.
func New(run FuncStart, stop FuncStop) StartStop {
	return &startStop{
		run:  run,
		stop: stop,
	}
}
