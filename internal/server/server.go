// Package server serves the minifier playground over HTTP: the page itself,
// a JSON API for edits and state, a websocket that pushes every state
// change, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/minplay/internal/config"
	"github.com/conneroisu/minplay/internal/logging"
	"github.com/conneroisu/minplay/internal/monitoring"
	"github.com/conneroisu/minplay/internal/pipeline"
	"github.com/conneroisu/minplay/internal/websocket"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics exposes m on /metrics and reports websocket clients to it.
func WithMetrics(m *monitoring.PipelineMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server is the playground HTTP server for one session.
type Server struct {
	cfg     *config.Config
	ctrl    *pipeline.Controller
	hub     *websocket.Hub
	metrics *monitoring.PipelineMetrics
	logger  logging.Logger
	handler http.Handler
	unsub   func()

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	closed     bool

	shutdownOnce sync.Once
}

// New wires a server around ctrl. Every state change of ctrl is broadcast to
// connected websocket clients.
func New(cfg *config.Config, ctrl *pipeline.Controller, opts ...Option) *Server {
	s := &Server{cfg: cfg, ctrl: ctrl}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.WithComponent("server")

	hubOpts := []websocket.HubOption{
		websocket.WithOriginPatterns(cfg.Server.AllowedOrigins...),
		websocket.WithMessageHandler(s.handleClientMessage),
	}
	if s.metrics != nil {
		hubOpts = append(hubOpts, websocket.WithClientCount(s.metrics.SetClients))
	}
	s.hub = websocket.NewHub(s.logger, hubOpts...)

	s.unsub = ctrl.Subscribe(func(st pipeline.State) {
		s.hub.Broadcast(websocket.Message{
			Type:    websocket.TypeState,
			Payload: NewView(st, cfg.Editor),
		})
	})

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/source", s.handleSource)
	mux.HandleFunc("POST /api/options", s.handleOptions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /ws", s.hub)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.withMiddleware(mux)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen binds the configured address. Start calls it when needed; callers
// that need the bound address, such as with port 0, call it first.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Start serves until Shutdown is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	})
	defer stop()

	s.logger.Info(ctx, "Playground listening", "addr", addr.String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown disconnects websocket clients, then stops the HTTP server and
// waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down playground server")
		s.unsub()

		if err := s.hub.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("websocket shutdown: %w", err)
		}

		s.mu.Lock()
		s.closed = true
		srv, ln := s.httpServer, s.listener
		s.mu.Unlock()

		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil && shutdownErr == nil {
				shutdownErr = err
			}
		} else if ln != nil {
			_ = ln.Close()
		}
	})
	return shutdownErr
}

func (s *Server) handleClientMessage(ctx context.Context, msg websocket.Message) {
	switch msg.Type {
	case websocket.TypeSource:
		s.ctrl.OnSourceChanged(msg.Text)
	case websocket.TypeOptions:
		s.ctrl.OnOptionsTextChanged(msg.Text)
	default:
		s.logger.Debug(ctx, "Ignoring websocket message", "type", msg.Type)
	}
}
