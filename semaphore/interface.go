/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package semaphore exposes a weighted worker semaphore bound to a context.
//
// A Semaphore bounds the number of goroutines running simultaneously: each
// worker acquires one slot with NewWorker (blocking) or NewWorkerTry
// (non-blocking) and releases it with DeferWorker. WaitAll blocks until every
// slot has been released. The Semaphore is itself a context.Context derived
// from the constructor's parent; DeferMain cancels it and must be deferred by
// the owner.
//
// When constructed with progress enabled, the semaphore carries a mpb.Progress
// container rendering on the terminal, shut down by DeferMain.
package semaphore

import (
	"context"
	"runtime"
)

// Semaphore is a context-bound weighted semaphore limiting simultaneous workers.
type Semaphore interface {
	context.Context

	// NewWorker acquires one worker slot, blocking until a slot is free or
	// the semaphore's context is done.
	NewWorker() error

	// NewWorkerTry acquires one worker slot without blocking and reports
	// whether the acquisition succeeded.
	NewWorkerTry() bool

	// DeferWorker releases one worker slot. Each successful NewWorker or
	// NewWorkerTry must be paired with exactly one DeferWorker.
	DeferWorker()

	// DeferMain cancels the semaphore's context and releases the progress
	// renderer if any. To be deferred by the semaphore's owner.
	DeferMain()

	// WaitAll blocks until all worker slots are released or the semaphore's
	// context is done.
	WaitAll() error

	// Weighted returns the number of simultaneous workers allowed.
	Weighted() int64
}

// MaxSimultaneous returns the default maximum number of simultaneous workers
// for this process.
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous bounds the requested number of simultaneous workers: any
// value below 1 or above MaxSimultaneous is replaced by MaxSimultaneous.
func SetSimultaneous(nbr int) int64 {
	if m := MaxSimultaneous(); nbr < 1 || nbr > m {
		return int64(m)
	}

	return int64(nbr)
}

// New returns a Semaphore allowing nbrSimultaneous workers (bounded by
// SetSimultaneous), derived from the given parent context. With progress
// enabled the semaphore owns a mpb.Progress container rendering until
// DeferMain is called.
func New(ctx context.Context, nbrSimultaneous int, progress bool) Semaphore {
	return newSem(ctx, nbrSimultaneous, progress)
}

// NewSemaphoreWithContext returns a Semaphore without progress rendering.
func NewSemaphoreWithContext(ctx context.Context, nbrSimultaneous int) Semaphore {
	return newSem(ctx, nbrSimultaneous, false)
}
