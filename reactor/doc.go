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

// Package reactor implements a single cooperative event loop: a FIFO of
// locally-posted tasks, a lock-guarded queue of tasks submitted from foreign
// goroutines, a min-heap of time-scheduled tasks, and a bucketed pool of
// reusable byte buffers.
//
// Go's net package already multiplexes non-blocking file descriptors inside
// the runtime poller; this package does not reimplement a raw selector on
// top of it. Instead every accepted or dialed net.Conn gets its own blocking
// reader/writer goroutine (the idiomatic Go translation of "I/O readiness"),
// and every callback those goroutines would otherwise invoke directly is
// instead handed to the loop via Execute, so handler code for one Reactor
// never runs concurrently with itself — the single-threaded callback
// guarantee the reactor/socket/httpconn pipeline depends on is preserved
// even though the underlying reads and writes happen off the loop
// goroutine.
//
// The loop runs until stopped or until its agenda drains down to background
// scheduled tasks alone: listeners, open sockets and in-flight dials pin it
// open through Hold, and once the last hold drops with nothing but upkeep
// left scheduled, the loop exits rather than ticking forever for it.
package reactor
