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
	"net"
	"sync/atomic"
)

// Pool runs one primary Reactor that owns the OS-level accept loop and a
// fixed set of worker Reactors that actually drive accepted connections.
// A single goroutine calling net.Listener.Accept cannot be parallelized, so
// the primary's only job is accepting and handing each net.Conn to the next
// worker in round-robin order; every Handler callback for that connection
// then runs exclusively on its assigned worker, giving an application as
// many independent, lock-free event loops as it has CPU-bound work to
// spread across.
type Pool interface {
	// Start brings up every worker and the primary reactor.
	Start() error

	// Stop tears down the primary and every worker, in that order so no
	// worker receives a new connection after the primary has stopped.
	Stop()

	// Listen opens network/address on the primary reactor and round-robins
	// each accepted connection's accept callback onto the next worker.
	Listen(network, address string, accept AcceptFunc) (Listener, error)

	// Worker returns the next Reactor in round-robin order, for callers
	// that need to pre-allocate or schedule work on a specific loop ahead
	// of a connection arriving (e.g. a keep-alive pool per worker).
	Worker() Reactor

	// Primary returns the reactor performing the accept loop itself.
	Primary() Reactor
}

type pool struct {
	primary Reactor
	workers []Reactor
	next    uint64
}

// NewPool builds a Pool of n worker reactors plus one primary, all sharing
// the same Config and FatalHandler. n must be at least 1.
func NewPool(n int, cfg Config, fatal FatalHandler) Pool {
	if n < 1 {
		n = 1
	}

	p := &pool{
		primary: New(cfg, fatal),
		workers: make([]Reactor, n),
	}
	for i := range p.workers {
		p.workers[i] = New(cfg, fatal)
	}
	return p
}

func (p *pool) Start() error {
	if err := p.primary.Start(); err != nil {
		return err
	}
	for _, w := range p.workers {
		if err := w.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (p *pool) Stop() {
	p.primary.Stop()
	for _, w := range p.workers {
		w.Stop()
	}
}

func (p *pool) Worker() Reactor {
	n := atomic.AddUint64(&p.next, 1)
	return p.workers[n%uint64(len(p.workers))]
}

func (p *pool) Primary() Reactor {
	return p.primary
}

func (p *pool) Listen(network, address string, accept AcceptFunc) (Listener, error) {
	return p.primary.Listen(network, address, func(conn net.Conn) {
		w := p.Worker()
		w.Execute(func() { accept(conn) })
	})
}
