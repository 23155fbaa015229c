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

package tcp

import (
	"bytes"
	"encoding/json"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/reactonet/errors"
	libsck "github.com/nabbar/reactonet/socket"
	libsiz "github.com/nabbar/reactonet/size"
)

// Config describes the tunables of one Socket.
type Config struct {
	// ReceiveBufferSize is the per-read allocation drawn from the
	// reactor's buffer pool. Accepts a human size string ("16k") via
	// libsiz.Size so it composes with the module's other size-parsing
	// configuration knobs.
	ReceiveBufferSize libsiz.Size `json:"receive_buffer_size" yaml:"receive_buffer_size" toml:"receive_buffer_size" mapstructure:"receive_buffer_size" validate:"omitempty,min=1"`

	// MergeLimit bounds how many bytes of small queued write buffers are
	// coalesced into a single syscall.
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

// Validate checks the configuration via the struct `validate` tags.
func (c *Config) Validate() liberr.Error {
	if err := libval.New().Struct(c); err != nil {
		e := libsck.ErrorParamInvalid.Error(nil)
		e.Add(err)
		return e
	}
	return nil
}
