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

package pool

import (
	"time"

	librtr "github.com/nabbar/reactonet/reactor"
)

// Idle is anything a KeepAlivePool can hold between requests: an
// httpconn.ServerConn in practice, abstracted here so this package does not
// need to import httpconn (which in turn does not need to import pool).
type Idle interface {
	Close()
}

// Entry is the intrusive list node for one pooled connection. Add hands it
// to the caller, who keeps it alongside the connection and gives it back to
// Remove or Refresh - unlinking is a pointer splice, never a list scan. A
// connection owns at most one live Entry at a time.
type Entry struct {
	prev, next *Entry
	conn       Idle
	expires    time.Time
	linked     bool
}

// KeepAlivePool is an intrusive doubly-linked list of idle connections,
// swept periodically by a reactor.ScheduleBackground task that evicts
// anything past its keep-alive deadline. All methods must be called from
// the owning Reactor's goroutine.
type KeepAlivePool struct {
	rtr     librtr.Reactor
	timeout time.Duration
	sweep   time.Duration

	head, tail *Entry
	size       int

	cancel librtr.CancelHandle
}

// NewKeepAlivePool builds a pool that evicts connections idle past timeout,
// checking every sweep interval (defaulting to 1s). The first sweep is
// scheduled immediately. Sweeps are background work: they never keep the
// reactor loop alive on their own, the owner's listener and sockets do
// (see reactor.Reactor.Hold).
func NewKeepAlivePool(rtr librtr.Reactor, timeout time.Duration, sweep time.Duration) *KeepAlivePool {
	if sweep <= 0 {
		sweep = time.Second
	}
	p := &KeepAlivePool{rtr: rtr, timeout: timeout, sweep: sweep}
	p.scheduleSweep()
	return p
}

// Add inserts conn at the tail (most-recently-idle end) of the list and
// returns its Entry for later Remove/Refresh.
func (p *KeepAlivePool) Add(conn Idle) *Entry {
	e := &Entry{conn: conn, expires: p.rtr.CurrentTime().Add(p.timeout)}
	p.link(e)
	return e
}

// Remove unlinks e in O(1); a no-op if e was already evicted or removed.
func (p *KeepAlivePool) Remove(e *Entry) {
	if e == nil || !e.linked {
		return
	}
	p.unlink(e)
}

// Refresh re-arms e's idle deadline and moves it back to the
// most-recently-idle end, used when a pooled connection served another
// request and went idle again.
func (p *KeepAlivePool) Refresh(e *Entry) {
	if e == nil {
		return
	}
	if e.linked {
		p.unlink(e)
	}
	e.expires = p.rtr.CurrentTime().Add(p.timeout)
	p.link(e)
}

// Len returns the number of idle connections currently pooled.
func (p *KeepAlivePool) Len() int {
	return p.size
}

// Close stops the background sweep and closes every pooled connection.
func (p *KeepAlivePool) Close() {
	if p.cancel != nil {
		p.cancel.Cancel()
	}
	for e := p.head; e != nil; {
		next := e.next
		e.prev, e.next = nil, nil
		e.linked = false
		e.conn.Close()
		e = next
	}
	p.head, p.tail = nil, nil
	p.size = 0
}

func (p *KeepAlivePool) link(e *Entry) {
	if p.tail == nil {
		p.head, p.tail = e, e
	} else {
		e.prev = p.tail
		p.tail.next = e
		p.tail = e
	}
	e.linked = true
	p.size++
}

func (p *KeepAlivePool) unlink(e *Entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		p.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		p.tail = e.prev
	}
	e.prev, e.next = nil, nil
	e.linked = false
	p.size--
}

func (p *KeepAlivePool) scheduleSweep() {
	p.cancel = p.rtr.ScheduleBackground(p.rtr.CurrentTime().Add(p.sweep), p.doSweep)
}

func (p *KeepAlivePool) doSweep() {
	now := p.rtr.CurrentTime()
	for e := p.head; e != nil; {
		next := e.next
		if !e.expires.After(now) {
			p.unlink(e)
			e.conn.Close()
		}
		e = next
	}
	p.scheduleSweep()
}
