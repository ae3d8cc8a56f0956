package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"emitter-arena/internal/config"
	"emitter-arena/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for live snapshots.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	stats       *StatsRecorder
	httpServer  *http.Server
}

// NewServer creates an API server for engine.
//
// Background workers do NOT start until Start() is called, so the server
// can be constructed in tests and exercised through Router().
func NewServer(engine EngineInterface, cfg config.ServerConfig, limits config.ResourceLimits, renderer *render.Renderer) *Server {
	s := &Server{
		engine: engine,
		stats:  &StatsRecorder{},
	}

	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
	})

	auth := NewTokenAuth(cfg.ControlToken)
	s.wsHub = NewWebSocketHub(engine, limits.MaxWSClients, NewOriginPolicy(cfg.AllowedOrigins), auth)

	s.router = NewRouter(RouterConfig{
		Engine:       engine,
		Renderer:     renderer,
		RateLimiter:  s.rateLimiter,
		CORSOrigins:  cfg.AllowedOrigins,
		ControlToken: cfg.ControlToken,
	})

	// WebSocket route needs the hub instance
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start runs the hub and broadcast loop and serves HTTP on addr until
// Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.stats)

	s.httpServer.Addr = addr

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 Snapshot: http://localhost%s/api/state  frame: http://localhost%s/api/frame.png", addr, addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server failed")
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops background workers and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "api server shutdown")
	}
	return nil
}
