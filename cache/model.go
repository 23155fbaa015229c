/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package cache

import (
	"context"
	"time"

	libatm "github.com/nabbar/reactonet/atomic"
	cchitm "github.com/nabbar/reactonet/cache/item"
)

// cc is the concrete Cache implementation: an atomic typed map of
// cache/item entries, each carrying its own expiration bookkeeping, plus
// the cancellable context governing the background expiration sweep.
type cc[K comparable, V any] struct {
	context.Context

	n context.CancelFunc
	v libatm.MapTyped[K, cchitm.CacheItem[V]]
	e time.Duration
}

// sweep drives the background expiration pass: every expiration period it
// drops items past their deadline so memory is reclaimed even for keys
// never loaded again. Not started when the cache never expires.
func (o *cc[K, V]) sweep() {
	t := time.NewTicker(o.e)
	defer t.Stop()

	for {
		select {
		case <-o.Done():
			return
		case <-t.C:
			o.Expire()
		}
	}
}

func (o *cc[K, V]) Clone(ctx context.Context) (Cache[K, V], error) {
	if ctx == nil {
		ctx = o.Context
	}

	n := New[K, V](ctx, o.e)
	o.Walk(func(k K, v V, _ time.Duration) bool {
		n.Store(k, v)
		return true
	})

	return n, nil
}

func (o *cc[K, V]) Merge(c Cache[K, V]) {
	if c == nil {
		return
	}

	c.Walk(func(k K, v V, _ time.Duration) bool {
		o.Store(k, v)
		return true
	})
}

func (o *cc[K, V]) Walk(fct func(K, V, time.Duration) bool) {
	if fct == nil {
		return
	}

	o.v.Range(func(k K, i cchitm.CacheItem[V]) bool {
		if v, r, ok := i.LoadRemain(); ok {
			return fct(k, v, r)
		}
		return true
	})
}

func (o *cc[K, V]) Load(key K) (V, time.Duration, bool) {
	if i, ok := o.v.Load(key); ok {
		if v, r, k := i.LoadRemain(); k {
			return v, r, true
		}
		o.v.Delete(key)
	}

	var zero V
	return zero, 0, false
}

func (o *cc[K, V]) Store(key K, val V) {
	if i, ok := o.v.Load(key); ok && i.Check() {
		i.Store(val)
		return
	}

	o.v.Store(key, cchitm.New[V](o.e, val))
}

func (o *cc[K, V]) Delete(key K) {
	if i, ok := o.v.LoadAndDelete(key); ok {
		i.Clean()
	}
}

func (o *cc[K, V]) LoadOrStore(key K, val V) (V, time.Duration, bool) {
	if v, r, ok := o.Load(key); ok {
		return v, r, true
	}

	o.Store(key, val)

	var zero V
	return zero, 0, false
}

func (o *cc[K, V]) LoadAndDelete(key K) (V, bool) {
	if i, ok := o.v.LoadAndDelete(key); ok {
		if v, k := i.Load(); k {
			i.Clean()
			return v, true
		}
		i.Clean()
	}

	var zero V
	return zero, false
}

func (o *cc[K, V]) Swap(key K, val V) (V, time.Duration, bool) {
	old, r, ok := o.Load(key)
	o.Store(key, val)
	return old, r, ok
}
