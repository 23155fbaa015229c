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
	"container/heap"
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/nabbar/reactonet/errors"
	libntw "github.com/nabbar/reactonet/network/protocol"
	librnr "github.com/nabbar/reactonet/runner"
	"github.com/nabbar/reactonet/runner/startStop"
)

type reactor struct {
	cfg   Config
	pool  *BufferPool
	fatal FatalHandler

	sm startStop.StartStop

	// localQueue is only ever touched from the loop goroutine.
	localQueue []Task

	// concurrentQueue is fed by Execute from any goroutine.
	cMu             sync.Mutex
	concurrentQueue []Task

	// scheduled / background heaps, only touched from the loop goroutine.
	sched   scheduledHeap
	bgSched scheduledHeap
	seq     int64

	ticks   int64
	tasks   int64
	maxTask int64 // nanoseconds, monotonic max

	held int64

	wake chan struct{}
	now  atomic.Value
}

// New builds a Reactor with the given configuration and fatal handler. A
// nil fatal handler defaults to logging nothing and continuing.
func New(cfg Config, fatal FatalHandler) Reactor {
	cfg.setDefaults()

	if fatal == nil {
		fatal = func(error) FatalAction { return FatalContinue }
	}

	r := &reactor{
		cfg:        cfg,
		pool:       NewBufferPool(cfg.MaxBufferSize),
		fatal:      fatal,
		localQueue: make([]Task, 0, cfg.LocalTaskQueueHint),
		wake:       make(chan struct{}, 1),
	}
	r.now.Store(time.Now())
	r.sm = startStop.New(r.loop, nil)
	return r
}

func (r *reactor) Start() liberr.Error {
	if r.sm.IsRunning() {
		return ErrorAlreadyRunning.Error(nil)
	}
	if err := r.sm.Start(); err != nil {
		e := ErrorAlreadyRunning.Error(nil)
		e.Add(err)
		return e
	}
	return nil
}

func (r *reactor) Stop() {
	r.sm.Stop()
}

func (r *reactor) IsRunning() bool {
	return r.sm.IsRunning()
}

func (r *reactor) CurrentTime() time.Time {
	return r.now.Load().(time.Time)
}

func (r *reactor) Post(task Task) {
	if task == nil {
		return
	}
	r.localQueue = append(r.localQueue, task)
}

func (r *reactor) Execute(task Task) {
	if task == nil {
		return
	}

	r.cMu.Lock()
	r.concurrentQueue = append(r.concurrentQueue, task)
	r.cMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *reactor) Schedule(deadline time.Time, task Task) CancelHandle {
	return r.schedule(deadline, task, false)
}

func (r *reactor) ScheduleBackground(deadline time.Time, task Task) CancelHandle {
	return r.schedule(deadline, task, true)
}

func (r *reactor) schedule(deadline time.Time, task Task, background bool) CancelHandle {
	e := &scheduledTask{
		deadline:   deadline,
		seq:        atomic.AddInt64(&r.seq, 1),
		task:       task,
		background: background,
	}

	r.Execute(func() {
		if e.canceled {
			return
		}
		if background {
			heap.Push(&r.bgSched, e)
		} else {
			heap.Push(&r.sched, e)
		}
	})

	return e
}

func (r *reactor) Allocate(minSize int) *Buffer {
	return r.pool.Allocate(minSize)
}

func (r *reactor) Hold() (release func()) {
	atomic.AddInt64(&r.held, 1)

	var once sync.Once
	return func() {
		once.Do(func() {
			atomic.AddInt64(&r.held, -1)
			// the drop may leave the loop background-only; wake it so it
			// re-evaluates its agenda instead of sleeping on a dead timer
			select {
			case r.wake <- struct{}{}:
			default:
			}
		})
	}
}

// loop is the reactor's single goroutine body, run via startStop.
func (r *reactor) loop(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		r.tick()

		// a loop whose whole remaining agenda is background upkeep, with
		// no listener, socket or dial holding it open, is done
		if r.onlyBackgroundRemains() {
			return nil
		}

		timeout := r.nextTimeout()

		select {
		case <-stop:
			return nil
		case <-r.wake:
		case <-time.After(timeout):
		}
	}
}

func (r *reactor) tick() {
	r.runLocal()
	r.drainConcurrent()
	r.runLocal()
	r.runDueScheduled(&r.sched)
	r.runLocal()
	r.runDueScheduled(&r.bgSched)
	r.runLocal()
	atomic.AddInt64(&r.ticks, 1)
	r.now.Store(time.Now())
}

func (r *reactor) runLocal() {
	for i := 0; i < len(r.localQueue); i++ {
		r.runTask(r.localQueue[i])
	}
	r.localQueue = r.localQueue[:0]
}

func (r *reactor) drainConcurrent() {
	r.cMu.Lock()
	if len(r.concurrentQueue) == 0 {
		r.cMu.Unlock()
		return
	}
	batch := r.concurrentQueue
	r.concurrentQueue = nil
	r.cMu.Unlock()

	for _, t := range batch {
		r.runTask(t)
	}
}

func (r *reactor) runDueScheduled(h *scheduledHeap) {
	now := time.Now()
	for h.Len() > 0 {
		top := (*h)[0]
		if top.canceled {
			heap.Pop(h)
			continue
		}
		if top.deadline.After(now) {
			return
		}
		heap.Pop(h)
		r.runTask(top.task)
	}
}

// onlyBackgroundRemains reports whether the agenda is down to live
// background scheduled entries with no outstanding holds: nothing local,
// nothing concurrent, no live foreground deadline. Checked after every
// tick, before the poll, so background-only reactors exit instead of
// arming a timer that would keep the goroutine alive for upkeep alone.
func (r *reactor) onlyBackgroundRemains() bool {
	if atomic.LoadInt64(&r.held) > 0 {
		return false
	}
	if len(r.localQueue) > 0 {
		return false
	}

	r.cMu.Lock()
	pending := len(r.concurrentQueue)
	r.cMu.Unlock()
	if pending > 0 {
		return false
	}

	live := func(h scheduledHeap) bool {
		for i := 0; i < h.Len(); i++ {
			if !h[i].canceled {
				return true
			}
		}
		return false
	}

	if live(r.sched) {
		return false
	}
	return live(r.bgSched)
}

func (r *reactor) nextTimeout() time.Duration {
	timeout := r.cfg.IdlePollTimeout.Time()
	now := time.Now()

	next := func(h scheduledHeap) (time.Time, bool) {
		for i := 0; i < h.Len(); i++ {
			if !h[i].canceled {
				return h[i].deadline, true
			}
		}
		return time.Time{}, false
	}

	if d, ok := next(r.sched); ok {
		if d.Before(now) {
			return 0
		}
		if left := d.Sub(now); left < timeout {
			timeout = left
		}
	}
	// background deadlines still arm the poll here: this point is only
	// reached when the loop is not eligible to exit (a hold or foreground
	// work exists), and a held-open loop must keep running its upkeep
	if d, ok := next(r.bgSched); ok {
		if d.Before(now) {
			return 0
		}
		if left := d.Sub(now); left < timeout {
			timeout = left
		}
	}

	return timeout
}

func (r *reactor) runTask(t Task) {
	start := time.Now()
	defer func() {
		if d := int64(time.Since(start)); d > atomic.LoadInt64(&r.maxTask) {
			atomic.StoreInt64(&r.maxTask, d)
		}
		atomic.AddInt64(&r.tasks, 1)

		if rec := recover(); rec != nil {
			librnr.RecoveryCaller("reactor", rec)
			switch r.fatal(toError(rec)) {
			case FatalCrash:
				// rethrow: the panic propagates out of the loop goroutine,
				// which dies where it stands (the startStop wrapper logs it
				// and marks the reactor stopped, nothing orderly beyond that)
				panic(rec)
			case FatalShutdown:
				go r.Stop()
			}
		}
	}()
	t()
}

func (r *reactor) Stats() Stats {
	return Stats{
		Ticks:       atomic.LoadInt64(&r.ticks),
		Tasks:       atomic.LoadInt64(&r.tasks),
		MaxTaskTime: time.Duration(atomic.LoadInt64(&r.maxTask)),
	}
}

func toError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return &panicError{v: rec}
}

type panicError struct{ v any }

func (p *panicError) Error() string { return "panic: " + toString(p.v) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if st, ok := v.(interface{ String() string }); ok {
		return st.String()
	}
	return "unknown panic value"
}

type tcpListener struct {
	ln  net.Listener
	rel func()
}

func (l *tcpListener) Addr() net.Addr { return l.ln.Addr() }

func (l *tcpListener) Close() error {
	l.rel()
	return l.ln.Close()
}

func (r *reactor) Listen(network, address string, accept AcceptFunc) (Listener, error) {
	if libntw.Parse(network) == libntw.NetworkEmpty {
		return nil, ErrorParamInvalid.Error(nil)
	}

	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}

	// the listener holds the loop open for its whole lifetime: an idle
	// server with no connection still has I/O interest
	rel := r.Hold()

	go func() {
		defer func() { librnr.RecoveryCaller("reactor/listen", recover()) }()
		defer rel()
		for {
			conn, aerr := ln.Accept()
			if aerr != nil {
				return
			}
			c := conn
			r.Execute(func() { accept(c) })
		}
	}()

	return &tcpListener{ln: ln, rel: rel}, nil
}

func (r *reactor) Connect(ctx context.Context, network, address string, timeout time.Duration, dial DialFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if libntw.Parse(network) == libntw.NetworkEmpty {
		r.Execute(func() { dial(nil, ErrorParamInvalid.Error(nil)) })
		return
	}

	// the in-flight dial holds the loop open until its completion callback
	// has actually run
	rel := r.Hold()

	go func() {
		defer func() { librnr.RecoveryCaller("reactor/connect", recover()) }()

		d := net.Dialer{}
		if timeout > 0 {
			c, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			ctx = c
		}

		conn, err := d.DialContext(ctx, network, address)
		r.Execute(func() {
			defer rel()
			dial(conn, err)
		})
	}()
}
