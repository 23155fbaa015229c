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

package startStop

import (
	"sync"
	"time"

	librnr "github.com/nabbar/reactonet/runner"
)

type startStop struct {
	mu      sync.Mutex
	run     FuncStart
	stop    FuncStop
	stopCh  chan struct{}
	done    chan struct{}
	running bool
	started time.Time
}

func (o *startStop) Start() error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil
	}

	o.stopCh = make(chan struct{})
	o.done = make(chan struct{})
	o.running = true
	o.started = time.Now()
	stopCh := o.stopCh
	done := o.done
	o.mu.Unlock()

	go func() {
		defer func() {
			librnr.RecoveryCaller("runner/startStop", recover())

			// a run function may return (or panic) on its own; the
			// component is stopped either way, not just via Stop()
			o.mu.Lock()
			o.running = false
			o.mu.Unlock()

			close(done)
		}()

		_ = o.run(stopCh)
	}()

	return nil
}

func (o *startStop) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}

	stopCh := o.stopCh
	done := o.done
	o.mu.Unlock()

	close(stopCh)
	<-done

	if o.stop != nil {
		o.stop()
	}

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

func (o *startStop) Restart() error {
	o.Stop()
	return o.Start()
}

func (o *startStop) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *startStop) Uptime() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return 0
	}
	return time.Since(o.started)
}
