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
	"time"
)

// Task is a unit of work run on the reactor's own goroutine.
type Task func()

// CancelHandle cancels a scheduled task. Cancel is idempotent and safe to
// call after the task has already run.
type CancelHandle interface {
	Cancel()
}

type scheduledTask struct {
	deadline   time.Time
	seq        int64
	task       Task
	background bool
	canceled   bool
	index      int
}

// Cancel marks the entry as a tombstone; the loop skips it instead of
// running it when it reaches the head of the heap, and never reshuffles
// the heap to remove it eagerly (removal is O(log n) only at pop time).
func (e *scheduledTask) Cancel() {
	e.canceled = true
}

type scheduledHeap []*scheduledTask

func (h scheduledHeap) Len() int { return len(h) }

func (h scheduledHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h scheduledHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *scheduledHeap) Push(x any) {
	e := x.(*scheduledTask)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *scheduledHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

var _ = heap.Interface(&scheduledHeap{})
