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

package semaphore

import (
	"context"

	sdkmpb "github.com/vbauerster/mpb/v8"
	sdksem "golang.org/x/sync/semaphore"
)

type sem struct {
	context.Context

	n context.CancelFunc
	s *sdksem.Weighted
	d int64
	p *sdkmpb.Progress
}

func newSem(ctx context.Context, nbrSimultaneous int, progress bool) *sem {
	if ctx == nil {
		ctx = context.Background()
	}

	d := SetSimultaneous(nbrSimultaneous)
	x, n := context.WithCancel(ctx)

	o := &sem{
		Context: x,
		n:       n,
		s:       sdksem.NewWeighted(d),
		d:       d,
	}

	if progress {
		o.p = sdkmpb.NewWithContext(x, sdkmpb.WithWidth(64))
	}

	return o
}

func (o *sem) NewWorker() error {
	return o.s.Acquire(o, 1)
}

func (o *sem) NewWorkerTry() bool {
	return o.s.TryAcquire(1)
}

func (o *sem) DeferWorker() {
	o.s.Release(1)
}

func (o *sem) DeferMain() {
	if o.p != nil {
		o.p.Shutdown()
	}

	o.n()
}

func (o *sem) WaitAll() error {
	if e := o.s.Acquire(o, o.d); e != nil {
		return e
	}

	o.s.Release(o.d)
	return nil
}

func (o *sem) Weighted() int64 {
	return o.d
}

// GetMPB exposes the progress container when the semaphore was constructed
// with progress enabled, nil otherwise.
func (o *sem) GetMPB() *sdkmpb.Progress {
	return o.p
}
