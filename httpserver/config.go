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

package httpserver

import (
	"bytes"
	"encoding/json"
	"time"

	libval "github.com/go-playground/validator/v10"
	libtls "github.com/nabbar/reactonet/certificates"
	liberr "github.com/nabbar/reactonet/errors"
	libcnn "github.com/nabbar/reactonet/httpconn"
	librtr "github.com/nabbar/reactonet/reactor"
)

// Config describes one reactor-driven HTTP server: where it binds, its TLS
// material (empty means plain TCP), and the tunables of the reactor,
// socket and httpconn layers it is built from.
type Config struct {
	// Name identifies the server in logs; defaults to Listen if empty.
	Name string `mapstructure:"name" json:"name" yaml:"name" toml:"name"`

	// Listen is the local bind address, e.g. "127.0.0.1:8443".
	Listen string `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen" validate:"required,hostname_port"`

	// TLS is the certificate/cipher/version configuration for this server.
	// A zero value with no certificate pairs means plain TCP.
	TLS libtls.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`

	// Reactor tunes the event loop driving this server's connections.
	Reactor librtr.Config `mapstructure:"reactor" json:"reactor" yaml:"reactor" toml:"reactor"`

	// HTTP tunes the parser and keep-alive behavior of accepted connections.
	HTTP libcnn.Config `mapstructure:"http" json:"http" yaml:"http" toml:"http"`

	// KeepAliveSweep is how often the keep-alive pool checks for expired
	// idle connections; defaults to one second.
	KeepAliveSweep time.Duration `mapstructure:"keep_alive_sweep" json:"keep_alive_sweep" yaml:"keep_alive_sweep" toml:"keep_alive_sweep" validate:"omitempty,min=1000000"`

	// ShutdownTimeout bounds how long Stop waits for in-flight connections
	// to drain before forcing them closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"omitempty,min=1000000"`

	// MaxOpenFiles raises the process's open file descriptor limit to at
	// least this value before the listener is opened, via
	// ioutils/fileDescriptor.SystemFileDescriptor. Zero skips the raise and
	// only the current limit is queried. The limit is never decreased.
	MaxOpenFiles int `mapstructure:"max_open_files" json:"max_open_files" yaml:"max_open_files" toml:"max_open_files" validate:"omitempty,min=0"`
}

const (
	defaultKeepAliveSweep  = time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// DefaultConfig returns a ready-to-use Config serialized as indented JSON.
func DefaultConfig(indent string) []byte {
	def := []byte(`{
  "name": "",
  "listen": "127.0.0.1:8080",
  "tls": {},
  "reactor": {},
  "http": {},
  "keep_alive_sweep": 1000000000,
  "shutdown_timeout": 10000000000,
  "max_open_files": 0
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
	if c.Name == "" {
		c.Name = c.Listen
	}
	if c.KeepAliveSweep <= 0 {
		c.KeepAliveSweep = defaultKeepAliveSweep
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
}

// Validate checks the configuration, including its TLS, reactor and http
// sub-configurations.
func (c *Config) Validate() liberr.Error {
	e := ErrorParamInvalid.Error(nil)

	if err := libval.New().Struct(c); err != nil {
		e.Add(err)
	}
	if err := c.TLS.Validate(); err != nil {
		e.Add(err)
	}
	if err := c.Reactor.Validate(); err != nil {
		e.Add(err)
	}
	if err := c.HTTP.Validate(); err != nil {
		e.Add(err)
	}

	if e.HasParent() {
		return e
	}
	return nil
}

// IsTLS reports whether at least one certificate pair is configured.
func (c *Config) IsTLS() bool {
	return c.TLS.New().LenCertificatePair() > 0
}
