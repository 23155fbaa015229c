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
	"context"
	"sync"
	"time"

	libcch "github.com/nabbar/reactonet/cache"
)

// Client is anything a ClientCache can hold and reuse: an
// httpconn.ClientConn in practice, abstracted the same way Idle abstracts
// ServerConn so this package stays independent of httpconn.
type Client interface {
	Close()
}

// bucket holds the idle clients currently reusable for one remote address.
// Access is guarded by ClientCache's mutex rather than bucket-local locking
// since buckets are short-lived and contention is expected to be low (one
// bucket per distinct upstream host).
type bucket struct {
	idle []any
}

// ClientCache is the address-indexed connection reuse cache: a
// cache.Cache[string, *bucket] from the reactonet/cache package, keyed by
// "network/address", each entry holding
// the small LIFO stack of currently-idle ClientConns for that upstream.
// Reuse favors recency (LIFO) so a cold connection at the bottom of a
// rarely-used bucket ages out via the cache's own expiration instead of
// being handed out stale.
type ClientCache struct {
	mu    sync.Mutex
	cache libcch.Cache[string, *bucket]
}

// NewClientCache builds a cache whose entries (and therefore every idle
// connection they still reference) expire after idle if unused for that
// long - ClientCache relies on the cache package's own background
// expiration sweep rather than running a second one.
func NewClientCache(ctx context.Context, idle time.Duration) *ClientCache {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ClientCache{cache: libcch.New[string, *bucket](ctx, idle)}
}

// Get pops the most recently returned idle client for addr, or returns
// false if none is cached.
func (c *ClientCache) Get(addr string) (Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, _, ok := c.cache.Load(addr)
	if !ok || len(b.idle) == 0 {
		return nil, false
	}

	n := len(b.idle) - 1
	cl := b.idle[n]
	b.idle = b.idle[:n]
	return cl.(Client), true
}

// Put returns cl to the pool for addr, available for the next Get.
func (c *ClientCache) Put(addr string, cl Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, _, ok := c.cache.Load(addr)
	if !ok {
		b = &bucket{}
	}
	b.idle = append(b.idle, cl)
	c.cache.Store(addr, b)
}

// Remove drops cl from addr's bucket, e.g. when the connection closes with
// an error while idle.
func (c *ClientCache) Remove(addr string, cl Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, _, ok := c.cache.Load(addr)
	if !ok {
		return
	}
	for i, v := range b.idle {
		if v.(Client) == cl {
			b.idle = append(b.idle[:i], b.idle[i+1:]...)
			return
		}
	}
}

// Close shuts the underlying cache down, closing every still-idle client.
func (c *ClientCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Walk(func(_ string, b *bucket, _ time.Duration) bool {
		for _, v := range b.idle {
			v.(Client).Close()
		}
		return true
	})
	_ = c.cache.Close()
}
