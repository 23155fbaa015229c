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

package reactor_test

import (
	"encoding/json"
	"time"

	libdur "github.com/nabbar/reactonet/duration"
	. "github.com/nabbar/reactonet/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	Context("DefaultConfig", func() {
		It("returns valid indented JSON", func() {
			raw := DefaultConfig("  ")

			var m map[string]any
			Expect(json.Unmarshal(raw, &m)).To(Succeed())
			Expect(m).To(HaveKey("max_buffer_size"))
		})

		It("returns compact JSON when indent is empty", func() {
			raw := DefaultConfig("")
			Expect(json.Valid(raw)).To(BeTrue())
		})
	})

	Context("Validate", func() {
		It("accepts a zero-value config", func() {
			c := Config{}
			Expect(c.Validate()).To(BeNil())
		})

		It("accepts a fully specified config", func() {
			c := Config{
				MaxBufferSize:      4096,
				IdlePollTimeout:    libdur.ParseDuration(time.Second),
				LocalTaskQueueHint: 16,
			}
			Expect(c.Validate()).To(BeNil())
		})

		It("rejects a buffer size below the minimum", func() {
			c := Config{MaxBufferSize: 1}
			Expect(c.Validate()).ToNot(BeNil())
		})

		It("rejects a negative idle poll timeout", func() {
			c := Config{IdlePollTimeout: libdur.ParseDuration(-time.Second)}
			Expect(c.Validate()).ToNot(BeNil())
		})
	})
})
