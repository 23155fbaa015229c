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
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	libatm "github.com/nabbar/reactonet/atomic"
	liberr "github.com/nabbar/reactonet/errors"
	libcnn "github.com/nabbar/reactonet/httpconn"
	libpol "github.com/nabbar/reactonet/httpconn/pool"
	libfds "github.com/nabbar/reactonet/ioutils/fileDescriptor"
	liblog "github.com/nabbar/reactonet/logger"
	librtr "github.com/nabbar/reactonet/reactor"
	librnr "github.com/nabbar/reactonet/runner"
	libsiz "github.com/nabbar/reactonet/size"
	libsck "github.com/nabbar/reactonet/socket"
	libtcp "github.com/nabbar/reactonet/socket/tcp"
	libtls "github.com/nabbar/reactonet/socket/tls"
)

// Server is a single reactor-driven HTTP listener: reactor, socket and
// httpconn wired into a long-running component with the runner.Runner
// lifecycle every component in this module shares.
type Server interface {
	librnr.Runner

	// Handler installs the net/http.Handler serving every accepted
	// connection's requests. Must be called before Start.
	Handler(h http.Handler)

	// Name returns the server's configured or derived name.
	Name() string

	// Addr returns the bound listener address; empty until Start succeeds.
	Addr() string

	// ProtocolErrors returns the number of malformed requests the server
	// has rejected and closed the connection for, across its lifetime.
	ProtocolErrors() int64
}

type server struct {
	mu  sync.Mutex
	cfg Config
	log liblog.Logger

	rtr librtr.Reactor
	lst librtr.Listener
	ka  *libpol.KeepAlivePool
	exe *libtls.Executor

	handler   http.Handler
	running   bool
	started   time.Time
	addr      net.Addr
	protoErrs libatm.Value[int64]

	cm    sync.Mutex
	conns map[*libcnn.ServerConn]struct{}
}

func (s *server) remember(c *libcnn.ServerConn) {
	s.cm.Lock()
	if s.conns == nil {
		s.conns = make(map[*libcnn.ServerConn]struct{})
	}
	s.conns[c] = struct{}{}
	s.cm.Unlock()
}

func (s *server) forget(c *libcnn.ServerConn) {
	s.cm.Lock()
	delete(s.conns, c)
	s.cm.Unlock()
}

func (s *server) connCount() int {
	s.cm.Lock()
	defer s.cm.Unlock()
	return len(s.conns)
}

func (s *server) connList() []*libcnn.ServerConn {
	s.cm.Lock()
	defer s.cm.Unlock()
	out := make([]*libcnn.ServerConn, 0, len(s.conns))
	for c := range s.conns {
		out = append(out, c)
	}
	return out
}

// NewServer builds a Server from cfg. The reactor and its listener are not
// started until Start is called.
func NewServer(cfg Config, log liblog.Logger) (Server, liberr.Error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &server{cfg: cfg, log: log, protoErrs: libatm.NewValue[int64]()}, nil
}

func (s *server) ProtocolErrors() int64 {
	return s.protoErrs.Load()
}

func (s *server) Name() string {
	return s.cfg.Name
}

func (s *server) Handler(h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

func (s *server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return time.Since(s.started)
}

func (s *server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if cur, max, err := libfds.SystemFileDescriptor(s.cfg.MaxOpenFiles); err != nil {
		if s.log != nil {
			s.log.Warning("server '%s' could not raise open file limit to %d", err, s.cfg.Name, s.cfg.MaxOpenFiles)
		}
	} else if s.log != nil {
		s.log.Debug("server '%s' open file limit: current=%d max=%d", nil, s.cfg.Name, cur, max)
	}

	handler := s.handler
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	svc := NewHandlerServlet(handler)

	rtr := librtr.New(s.cfg.Reactor, func(err error) librtr.FatalAction {
		if s.log != nil {
			s.log.Error("reactor '%s' fatal", err, s.cfg.Name)
		}
		return librtr.FatalContinue
	})
	if err := rtr.Start(); err != nil {
		return err
	}

	ka := libpol.NewKeepAlivePool(rtr, s.cfg.HTTP.KeepAliveTimeout, s.cfg.KeepAliveSweep)

	var exe *libtls.Executor
	var tlsCfg *tls.Config
	if s.cfg.IsTLS() {
		exe = libtls.NewExecutor(0)
		tlsCfg = s.cfg.TLS.New().TlsConfig("")
	}

	bufSize := libsiz.Size(0)
	if s.cfg.Reactor.MaxBufferSize > 0 {
		bufSize = libsiz.Size(s.cfg.Reactor.MaxBufferSize)
	}

	accept := func(conn net.Conn) {
		var sck libsck.Socket
		if tlsCfg != nil {
			sck = libtls.NewServer(rtr, conn, tlsCfg, exe, libtls.Config{ReceiveBufferSize: bufSize})
		} else {
			sck = libtcp.New(rtr, conn, libtcp.Config{ReceiveBufferSize: bufSize})
		}

		own := &serverConnOwner{srv: s, ka: ka}
		s.remember(libcnn.NewServerConn(rtr, sck, s.cfg.HTTP, svc, own))
	}

	lst, err := rtr.Listen("tcp", s.cfg.Listen, accept)
	if err != nil {
		rtr.Stop()
		return ErrorListen.Error(err)
	}

	s.rtr = rtr
	s.lst = lst
	s.ka = ka
	s.exe = exe
	s.addr = lst.Addr()
	s.running = true
	s.started = time.Now()

	if s.log != nil {
		s.log.Info("server '%s' listening on %s (tls=%v)", nil, s.cfg.Name, s.addr, tlsCfg != nil)
	}

	return nil
}

func (s *server) Restart() error {
	s.Stop()
	return s.Start()
}

func (s *server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	if s.rtr != nil {
		// Idle pooled connections have no in-flight work and go first; any
		// connection still parsing or writing keeps running, but with
		// Drain set its next response carries Connection: close. Submitted
		// before the listener closes, while its hold still pins the loop.
		s.rtr.Execute(func() {
			for _, c := range s.connList() {
				c.Drain()
			}
			if s.ka != nil {
				s.ka.Close()
			}
		})
	}

	if s.lst != nil {
		_ = s.lst.Close()
	}

	if s.rtr != nil {
		deadline := time.Now().Add(s.cfg.ShutdownTimeout)
		for s.connCount() > 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}

		done := make(chan struct{})
		s.rtr.Execute(func() {
			for _, c := range s.connList() {
				c.Close()
			}
			close(done)
		})
		select {
		case <-done:
		case <-time.After(time.Second):
		}

		s.rtr.Stop()
	}

	s.running = false
	s.addr = nil
}

func (s *server) WaitNotify() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	s.Stop()
}

// serverConnOwner returns an idle ServerConn to the keep-alive pool, and
// evicts it on close - the glue the keep-alive lifecycle needs between
// httpconn (which knows nothing of pooling) and httpconn/pool (which knows
// nothing of HTTP).
type serverConnOwner struct {
	srv   *server
	ka    *libpol.KeepAlivePool
	entry *libpol.Entry
}

func (o *serverConnOwner) OnIdle(c *libcnn.ServerConn) {
	// one owner per connection, so the owner carries the connection's single
	// intrusive pool entry: first idle links it, later idles re-arm it
	if o.entry == nil {
		o.entry = o.ka.Add(c)
	} else {
		o.ka.Refresh(o.entry)
	}
}

func (o *serverConnOwner) OnClosed(c *libcnn.ServerConn, _ error) {
	o.ka.Remove(o.entry)
	o.entry = nil
	o.srv.forget(c)
}

func (o *serverConnOwner) OnProtocolError(c *libcnn.ServerConn) {
	o.srv.protoErrs.Store(o.srv.protoErrs.Load() + 1)
}
