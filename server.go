// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/dispatch/logging"
)

// Default server timeouts.
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 15 * time.Second
)

// ServerOption configures a [Server].
type ServerOption func(*Server)

// WithAddr sets the listen address. The default is ":8080".
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithH2C enables cleartext HTTP/2. Use it only in development or behind a
// trusted load balancer.
func WithH2C(enabled bool) ServerOption {
	return func(s *Server) {
		s.h2c = enabled
	}
}

// WithServerTimeouts sets the http.Server timeouts. Zero values keep the
// defaults.
func WithServerTimeouts(read, readHeader, write, idle time.Duration) ServerOption {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if readHeader > 0 {
			s.readHeaderTimeout = readHeader
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if idle > 0 {
			s.idleTimeout = idle
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in [Server.Run].
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServerDiagnostics sets the handler receiving server diagnostics.
func WithServerDiagnostics(h DiagnosticHandler) ServerOption {
	return func(s *Server) {
		s.diagnostics = h
	}
}

// Server is the transport around a handler, usually a [Dispatcher]. It owns
// connections, keep-alive and timeouts.
type Server struct {
	handler http.Handler
	addr    string
	h2c     bool

	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration

	logger      *slog.Logger
	diagnostics DiagnosticHandler

	mu  sync.Mutex
	srv *http.Server
}

// NewServer returns a server for h.
func NewServer(h http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		handler:           h,
		addr:              ":8080",
		readTimeout:       DefaultReadTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		writeTimeout:      DefaultWriteTimeout,
		idleTimeout:       DefaultIdleTimeout,
		shutdownTimeout:   DefaultShutdownTimeout,
		logger:            logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

func (s *Server) httpServer() *http.Server {
	h := s.handler
	if s.h2c {
		h = h2c.NewHandler(h, &http2.Server{})
		emitTo(s.diagnostics, DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}

	return &http.Server{
		Addr:              s.addr,
		Handler:           h,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readHeaderTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
}

// Serve accepts connections on ln until [Server.Shutdown]. It returns nil
// after a graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv, err := s.register()
	if err != nil {
		return err
	}

	return s.serve(srv, ln)
}

func (s *Server) register() (*http.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, errors.New("dispatch: server already running")
	}
	s.srv = s.httpServer()

	return s.srv, nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener) error {
	s.logger.Info("server listening", "addr", ln.Addr().String(), "h2c", s.h2c)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// Run listens on the configured address and serves until ctx is done,
// then shuts down gracefully within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv, err := s.register()
	if err != nil {
		_ = ln.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve(srv, ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server", "timeout", s.shutdownTimeout)
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

// Shutdown gracefully stops the server. It returns nil when no server is
// running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
