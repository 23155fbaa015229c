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

// Package runner provides the common lifecycle contract (Start/Stop/Restart/IsRunning)
// shared by every long-lived object in this module: the reactor loop, the HTTP server
// pool, and the background hooks of the logger. It also carries a small goroutine-panic
// recovery helper used at every non-reactor goroutine boundary.
package runner

import "time"

// Server is the minimal lifecycle contract for a long-running component.
type Server interface {
	// IsRunning reports whether the component is currently active.
	IsRunning() bool

	// Uptime returns how long the component has been running, zero if stopped.
	Uptime() time.Duration

	// Start brings the component up. Calling Start on an already-running
	// component is a no-op that returns nil.
	Start() error

	// Restart stops then starts the component, propagating any Start error.
	Restart() error

	// Stop brings the component down. Calling Stop twice is a no-op.
	Stop()
}

// WaitNotify blocks until an interrupt/termination signal (or the component's own
// context) requests shutdown, then stops the component.
type WaitNotify interface {
	WaitNotify()
}

// Runner combines the lifecycle and signal-driven shutdown contracts used by the
// reactor and the HTTP server pool.
type Runner interface {
	Server
	WaitNotify
}
