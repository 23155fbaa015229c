//go:build debug

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

import "fmt"

// poisonByte overwrites a released buffer's backing array so a caller that
// kept reading a stale *Buffer sees scrambled bytes instead of whatever the
// next allocation happens to have left there.
const poisonByte = 0xd5

// poisonRelease marks b as recycled and stamps over its backing array. Only
// built with -tags debug; the release build's poisonRelease is a no-op.
func poisonRelease(b *Buffer) {
	for i := range b.data {
		b.data[i] = poisonByte
	}
	b.recycled = true
}

// checkRecycled panics if b is still marked recycled, i.e. this exact
// *Buffer was retained past its Release call and used again before being
// re-handed-out by Allocate.
func checkRecycled(b *Buffer) {
	if b.recycled {
		panic(fmt.Sprintf("reactor: use of *Buffer after Release (bucket size %d)", b.sz))
	}
}
