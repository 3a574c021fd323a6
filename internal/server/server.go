// Package server runs the status HTTP listener through its lifecycle:
// Stopped, Starting, Running, Stopping and back to Stopped. It knows nothing
// about OS signals; callers stop it by cancelling the context given to Run.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyStarted is returned when Run is called on a server that has
// already been run. A Server is single-use.
var ErrAlreadyStarted = errors.New("server already started")

// State is a lifecycle phase of the server.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Config holds listener settings. Port 0 picks a free port.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server serves an http.Handler on a dedicated goroutine.
type Server struct {
	cfg     Config
	handler http.Handler

	state   atomic.Int32
	started atomic.Bool
	ready   chan struct{}

	mu   sync.Mutex
	addr net.Addr
}

// New creates a stopped server.
func New(cfg Config, handler http.Handler) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		ready:   make(chan struct{}),
	}
}

// State returns the current lifecycle phase.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Ready is closed once the listener is bound and serving.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or nil before Running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run binds the listener, serves until ctx is cancelled, then shuts down.
// On cancellation the listener is closed first so no new connections are
// accepted, in-flight requests are given ShutdownTimeout to finish, and Run
// returns only after the serving goroutine has exited.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.setState(StateStarting)

	address := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		s.setState(StateStopped)
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	s.setState(StateRunning)
	close(s.ready)
	slog.Info("Status server running", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		s.setState(StateStopped)
		return fmt.Errorf("serve: %w", err)
	}

	s.setState(StateStopping)
	slog.Info("Shutting down status server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		slog.Error("Server forced to shutdown", "error", shutdownErr)
		httpServer.Close()
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Serve loop exited with error", "error", err)
	}

	s.setState(StateStopped)
	slog.Info("Status server stopped")

	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

func (s *Server) setState(state State) {
	s.state.Store(int32(state))
}
