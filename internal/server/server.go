// Package server accepts connections and runs each through the router: one
// request and at most one response per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	fwerrors "fredwork/internal/errors"
	"fredwork/internal/journal"
	"fredwork/internal/request"
	"fredwork/internal/response"
	"fredwork/internal/router"
)

// DefaultShutdownTimeout is how long Serve waits for open connections after
// its context is cancelled.
const DefaultShutdownTimeout = 10 * time.Second

// Server serves a router over stream connections.
type Server struct {
	router          *router.Router
	logger          *slog.Logger
	recorder        journal.Recorder
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	handler         Handler
	wg              sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder records every connection to rec.
func WithRecorder(rec journal.Recorder) Option {
	return func(s *Server) { s.recorder = rec }
}

// WithTimeouts sets per-connection read and write deadlines. Zero disables
// the corresponding deadline.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithShutdownTimeout sets how long Serve waits for open connections to
// finish once its context is cancelled. Connections still open after d are
// closed. Zero closes them immediately.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a server for r.
func New(r *router.Router, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:          r,
		logger:          logger,
		shutdownTimeout: DefaultShutdownTimeout,
		conns:           make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = Chain(Dispatch(r), Logging(logger), Recover(logger))
	return s
}

// ServeConn handles a single connection and closes it. A request that
// cannot be parsed closes the connection without a response.
func (s *Server) ServeConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	start := time.Now()
	entry := journal.NewEntry(conn.RemoteAddr().String())
	defer func() {
		entry.DurationMs = time.Since(start).Milliseconds()
		s.record(entry)
	}()

	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.readTimeout))
	}
	req, err := request.Parse(conn)
	if err != nil {
		code := fwerrors.CodeOf(err)
		s.logger.Warn("Failed to parse request",
			"connId", entry.ID,
			"remote", entry.Remote,
			"code", string(code),
			"error", err.Error(),
		)
		entry.Outcome = journal.OutcomeParseError
		entry.Code = string(code)
		return
	}
	entry.Method = string(req.Method)
	entry.Path = req.Path

	if s.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	x := &Exchange{
		ConnID:  entry.ID,
		Remote:  entry.Remote,
		Request: req,
		Sink:    response.NewSink(conn),
		Start:   start,
	}
	s.handler(x)

	entry.Outcome = string(x.Outcome)
	entry.Bytes = x.Sink.Bytes()
	switch {
	case x.Panic != nil:
		entry.Outcome = journal.OutcomeFailed
		entry.Code = string(fwerrors.InternalError)
	case x.Outcome == router.OutcomeMiss:
		entry.Code = string(fwerrors.RouteMiss)
	case x.Sink.Err() != nil:
		s.logger.Debug("Failed to write response", "connId", entry.ID, "error", x.Sink.Err().Error())
	}
}

func (s *Server) record(entry *journal.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(entry); err != nil {
		s.logger.Warn("Failed to record connection", "connId", entry.ID, "error", err.Error())
	}
}

// Serve accepts connections on ln, each handled on its own goroutine, until
// ctx is cancelled or ln is closed. It then waits up to the shutdown timeout
// for in-flight connections, closes any that remain and waits for their
// goroutines before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	s.logger.Info("Listening", "addr", ln.Addr().String())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.drain()
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Warn("Accept failed", "error", err.Error(), "retryIn", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.ServeConn(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// drain waits for connection goroutines, closing whatever is still open
// once the shutdown timeout passes.
func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
	}

	s.mu.Lock()
	n := len(s.conns)
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.logger.Warn("Closed connections still open at shutdown", "count", n, "timeout", s.shutdownTimeout)

	<-done
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
