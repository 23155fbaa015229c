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
	"bytes"
	"encoding/json"
	"time"

	libval "github.com/go-playground/validator/v10"
	libdur "github.com/nabbar/reactonet/duration"
	liberr "github.com/nabbar/reactonet/errors"
)

// Config describes the tunables of a single Reactor instance.
type Config struct {
	// MaxBufferSize caps the largest bucket the buffer pool pre-sizes for
	// read operations. Buffers larger than this are still allocated but
	// are not recycled.
	MaxBufferSize int `json:"max_buffer_size" yaml:"max_buffer_size" toml:"max_buffer_size" mapstructure:"max_buffer_size" validate:"omitempty,min=512"`

	// IdlePollTimeout bounds how long the loop ever blocks waiting on new
	// work when no task is scheduled, so Stop() is always observed
	// promptly even with an empty agenda. Accepts the human-readable
	// duration.Duration notation ("5s", "1h30m") in config files.
	IdlePollTimeout libdur.Duration `json:"idle_poll_timeout" yaml:"idle_poll_timeout" toml:"idle_poll_timeout" mapstructure:"idle_poll_timeout" validate:"omitempty,min=1000000"`

	// LocalTaskQueueHint pre-sizes the local FIFO slice; purely a capacity
	// hint, never a hard limit.
	LocalTaskQueueHint int `json:"local_task_queue_hint" yaml:"local_task_queue_hint" toml:"local_task_queue_hint" mapstructure:"local_task_queue_hint" validate:"omitempty,min=0"`
}

const (
	defaultMaxBufferSize      = 64 * 1024
	defaultIdlePollTimeout    = libdur.Duration(5 * time.Second)
	defaultLocalTaskQueueHint = 32
)

// DefaultConfig returns a ready-to-use Config serialized as indented JSON.
func DefaultConfig(indent string) []byte {
	def := []byte(`{
  "max_buffer_size": 65536,
  "idle_poll_timeout": 5000000000,
  "local_task_queue_hint": 32
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
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = defaultMaxBufferSize
	}
	if c.IdlePollTimeout <= 0 {
		c.IdlePollTimeout = defaultIdlePollTimeout
	}
	if c.LocalTaskQueueHint <= 0 {
		c.LocalTaskQueueHint = defaultLocalTaskQueueHint
	}
}

// Validate checks the configuration via the struct `validate` tags.
func (c *Config) Validate() liberr.Error {
	if err := libval.New().Struct(c); err != nil {
		e := ErrorParamInvalid.Error(nil)
		e.Add(err)
		return e
	}
	return nil
}
