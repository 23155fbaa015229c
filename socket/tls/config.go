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

package tls

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/errgroup"

	libsiz "github.com/nabbar/reactonet/size"
)

// Config describes the tunables of one TLS Socket.
type Config struct {
	// ReceiveBufferSize is the per-read allocation drawn from the
	// reactor's buffer pool for decrypted plaintext.
	ReceiveBufferSize libsiz.Size `json:"receive_buffer_size" yaml:"receive_buffer_size" toml:"receive_buffer_size" mapstructure:"receive_buffer_size" validate:"omitempty,min=1"`

	// MergeLimit bounds how many bytes of small queued plaintext write
	// buffers are coalesced before being handed to the TLS layer.
	MergeLimit libsiz.Size `json:"merge_limit" yaml:"merge_limit" toml:"merge_limit" mapstructure:"merge_limit" validate:"omitempty,min=1"`
}

const (
	defaultReceiveBufferSize = 16 * 1024
	defaultMergeLimit        = 16 * 1024
)

// DefaultConfig returns a ready-to-use Config serialized as indented JSON.
func DefaultConfig(indent string) []byte {
	def := []byte(`{
  "receive_buffer_size": 16384,
  "merge_limit": 16384
}`)

	if indent == "" {
		return def
	}

	res := bytes.NewBuffer(make([]byte, 0, len(def)))
	if err := json.Indent(res, def, "", indent); err != nil {
		return def
	}
	return res.Bytes()
}

func (c *Config) setDefaults() {
	if c.ReceiveBufferSize <= 0 {
		c.ReceiveBufferSize = defaultReceiveBufferSize
	}
	if c.MergeLimit <= 0 {
		c.MergeLimit = defaultMergeLimit
	}
}

// Executor is the separate background executor TLS delegated tasks
// (handshake negotiation, certificate validation) run on. It is a bounded
// errgroup.Group shared across every TLS socket of a process.
type Executor struct {
	mu  sync.Mutex
	grp *errgroup.Group
	ctx context.Context
}

// NewExecutor builds an Executor that runs at most limit delegated tasks
// concurrently. limit <= 0 means unbounded.
func NewExecutor(limit int) *Executor {
	ctx := context.Background()
	grp, _ := errgroup.WithContext(ctx)
	if limit > 0 {
		grp.SetLimit(limit)
	}
	return &Executor{grp: grp, ctx: ctx}
}

// Submit runs task on the executor. While a socket's handshake task is
// outstanding, that socket must not issue any further call into its
// *tls.Conn - see the reentrancy note in socket/tls/model.go.
func (e *Executor) Submit(task func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grp.Go(func() error {
		task()
		return nil
	})
}
