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
	"context"
	"net"
	"time"

	liberr "github.com/nabbar/reactonet/errors"
)

// FatalAction tells the loop what to do after FatalHandler has observed a
// panic recovered from a task.
type FatalAction uint8

const (
	// FatalContinue logs (or otherwise records) the error and keeps the
	// loop running.
	FatalContinue FatalAction = iota
	// FatalShutdown stops the loop after the current tick completes.
	FatalShutdown
	// FatalCrash rethrows the recovered panic, killing the loop goroutine
	// where it stands: no orderly tick completion, no queue drain. The
	// reactor is left stopped.
	FatalCrash
)

// FatalHandler is invoked, on the reactor's own goroutine, whenever a
// posted, scheduled or concurrent Task panics.
type FatalHandler func(err error) FatalAction

// AcceptFunc receives a freshly accepted connection. It is invoked on the
// reactor's own goroutine.
type AcceptFunc func(conn net.Conn)

// DialFunc receives the outcome of a Connect call. Exactly one of conn/err
// is non-nil. It is invoked on the reactor's own goroutine.
type DialFunc func(conn net.Conn, err error)

// Stats is a point-in-time snapshot of one Reactor's loop counters.
type Stats struct {
	// Ticks counts completed loop turns.
	Ticks int64
	// Tasks counts every task the loop has run (local, concurrent and
	// scheduled alike).
	Tasks int64
	// MaxTaskTime is the duration of the single longest task run so far.
	MaxTaskTime time.Duration
}

// Listener is a live listener registered on a Reactor.
type Listener interface {
	// Addr returns the address the listener is bound to.
	Addr() net.Addr
	// Close stops accepting new connections. Already-accepted connections
	// are unaffected.
	Close() error
}

// Reactor is a single cooperative event loop: a FIFO of locally-posted
// tasks, a lock-guarded queue fed from foreign goroutines, a min-heap of
// scheduled tasks, and a bucketed buffer pool, all driven by one goroutine
// so that no two tasks belonging to the same Reactor ever run concurrently.
type Reactor interface {
	// Start launches the loop goroutine. Safe to call once; a second call
	// returns ErrorAlreadyRunning.
	Start() liberr.Error

	// Stop requests the loop to exit after the current tick and blocks
	// until it has. Idempotent.
	Stop()

	// IsRunning reports whether the loop goroutine is currently active.
	IsRunning() bool

	// CurrentTime returns the loop's cached notion of "now", refreshed
	// once per tick. Tasks that need monotonic ordering within a tick
	// should use this rather than time.Now().
	CurrentTime() time.Time

	// Post appends a task to the local FIFO. Must be called from the
	// reactor's own goroutine (i.e. from within another Task); use
	// Execute from any other goroutine.
	Post(task Task)

	// Execute submits a task to the concurrent queue from any goroutine.
	// Safe to call from the reactor's own goroutine too, where it behaves
	// like Post but pays a lock.
	Execute(task Task)

	// Schedule runs task at or after deadline. The returned handle
	// cancels it; cancellation after it has already run is a no-op.
	Schedule(deadline time.Time, task Task) CancelHandle

	// ScheduleBackground is like Schedule but flagged as low-priority
	// upkeep (e.g. keep-alive pool sweeps): the loop runs due background
	// tasks only after all foreground work for the tick is drained, and
	// background tasks alone do not keep the loop alive - a reactor whose
	// whole remaining agenda is background entries, with no outstanding
	// Hold, exits its loop instead of arming a timer for them.
	ScheduleBackground(deadline time.Time, task Task) CancelHandle

	// Hold registers an outstanding I/O interest - a live listener, an
	// open socket, an in-flight dial - that keeps the loop alive while
	// its task agenda is empty or background-only. The returned release
	// is idempotent. Holds are what distinguish "idle but serving" from
	// "nothing left but upkeep": without any hold, a loop whose only
	// remaining agenda is background scheduled tasks exits.
	Hold() (release func())

	// Allocate draws a Buffer of at least minSize bytes from the pool.
	Allocate(minSize int) *Buffer

	// Stats returns a snapshot of the loop's counters. MaxTaskTime is the
	// longest single task observed since Start, the number to watch when
	// hunting a long-loop stall: one slow task freezes every other socket
	// on this Reactor.
	Stats() Stats

	// Listen opens network/address and hands every accepted connection to
	// accept, invoked on this Reactor's own goroutine. Closing the
	// returned Listener stops accepting without affecting the Reactor.
	Listen(network, address string, accept AcceptFunc) (Listener, error)

	// Connect dials network/address and reports the outcome to dial,
	// invoked on this Reactor's own goroutine. ctx bounds the dial
	// attempt; a zero timeout means ctx alone governs it.
	Connect(ctx context.Context, network, address string, timeout time.Duration, dial DialFunc)
}
