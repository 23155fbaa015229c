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

package httpconn

import (
	"bytes"
	"encoding/json"
	"time"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/reactonet/errors"
	libsiz "github.com/nabbar/reactonet/size"
)

// Config bounds the parser's framing limits and the keep-alive behavior of
// ServerConn/ClientConn.
type Config struct {
	// MaxHTTPMessageSize rejects a request/response whose header+body
	// exceeds this many bytes with ErrorMessageTooLarge.
	MaxHTTPMessageSize libsiz.Size `json:"max_http_message_size" yaml:"max_http_message_size" toml:"max_http_message_size" mapstructure:"max_http_message_size" validate:"omitempty,min=1"`

	// MaxHeaderLineSize caps a single header line.
	MaxHeaderLineSize libsiz.Size `json:"max_header_line_size" yaml:"max_header_line_size" toml:"max_header_line_size" mapstructure:"max_header_line_size" validate:"omitempty,min=1"`

	// MaxHeaders caps the header count.
	MaxHeaders int `json:"max_headers" yaml:"max_headers" toml:"max_headers" mapstructure:"max_headers" validate:"omitempty,min=1"`

	// KeepAliveTimeout is the idle-in-pool cutoff for server connections.
	KeepAliveTimeout time.Duration `json:"keep_alive_timeout" yaml:"keep_alive_timeout" toml:"keep_alive_timeout" mapstructure:"keep_alive_timeout" validate:"omitempty,min=1000000"`

	// DisableKeepAlive forces every connection to close after one
	// request/response, for a server that is shutting down or that never
	// wants keep-alive.
	DisableKeepAlive bool `json:"disable_keep_alive" yaml:"disable_keep_alive" toml:"disable_keep_alive" mapstructure:"disable_keep_alive"`
}

const (
	defaultMaxHTTPMessageSize = 10 * 1024 * 1024
	defaultMaxHeaderLineSize  = 8 * 1024
	defaultMaxHeaders         = 100
	defaultKeepAliveTimeout   = 30 * time.Second
)

// DefaultConfig returns a ready-to-use Config serialized as indented JSON.
func DefaultConfig(indent string) []byte {
	def := []byte(`{
  "max_http_message_size": 10485760,
  "max_header_line_size": 8192,
  "max_headers": 100,
  "keep_alive_timeout": 30000000000,
  "disable_keep_alive": false
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
	if c.MaxHTTPMessageSize <= 0 {
		c.MaxHTTPMessageSize = defaultMaxHTTPMessageSize
	}
	if c.MaxHeaderLineSize <= 0 {
		c.MaxHeaderLineSize = defaultMaxHeaderLineSize
	}
	if c.MaxHeaders <= 0 {
		c.MaxHeaders = defaultMaxHeaders
	}
	if c.KeepAliveTimeout <= 0 {
		c.KeepAliveTimeout = defaultKeepAliveTimeout
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
