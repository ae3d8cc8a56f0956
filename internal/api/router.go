package api

import (
	"net/http"

	"emitter-arena/internal/game"
	"emitter-arena/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// CopySnapshot returns a private copy of the latest published snapshot
	CopySnapshot() *game.GameSnapshot
	// Stats returns engine counters
	Stats() game.EngineStats
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}

	Emitters() []game.EmitterSnapshot
	Emitter(name string) (game.EmitterSnapshot, error)
	Forces() []game.ForceInfo
	HighScores(n int) []game.ScoreEntry
	RecentEvents(n int) []game.Event

	StartEmitter(name string) error
	StopEmitter(name string) error
	ResetEmitter(name string) error
	SetEmitterPosition(name string, x, y float64) error
	SetEmitterRotation(name string, deg float64) error
	SetEmitterRate(name string, rate float64) error
	SetForce(name string, p game.ForceParams) error

	StartGame() error
	Fire(on bool) error
	Thrust(dir float64) error
	Turn(dir float64) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation engine (required)
	Engine EngineInterface

	// Renderer draws /api/frame.png. If nil, a 960x540 renderer is created.
	Renderer *render.Renderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, any localhost port is allowed.
	CORSOrigins []string

	// ControlToken, when set, is required on every command route.
	ControlToken string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// DefaultCORSOrigins allows local control panels on any port
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

type routerHandlers struct {
	engine   EngineInterface
	renderer *render.Renderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// Apart from the rate limiter's cleanup goroutine (when no RateLimiter is
// passed) it has no side effects: no listeners, no broadcast loops. This
// makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", controlTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(960, 540)
	}

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: renderer,
	}
	auth := NewTokenAuth(cfg.ControlToken)

	r.Route("/api", func(r chi.Router) {
		// Read-only views
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/emitters", h.handleGetEmitters)
		r.Get("/emitters/{name}", h.handleGetEmitter)
		r.Get("/forces", h.handleGetForces)
		r.Get("/game", h.handleGetGame)
		r.Get("/highscores", h.handleGetHighScores)
		r.Get("/events", h.handleGetEvents)
		r.Get("/frame.png", h.handleGetFrame)

		// Commands
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/emitters/{name}/start", h.handleEmitterStart)
			r.Post("/emitters/{name}/stop", h.handleEmitterStop)
			r.Post("/emitters/{name}/reset", h.handleEmitterReset)
			r.Post("/emitters/{name}/position", h.handleEmitterPosition)
			r.Post("/emitters/{name}/rotation", h.handleEmitterRotation)
			r.Post("/emitters/{name}/rate", h.handleEmitterRate)

			r.Post("/forces/{name}", h.handleSetForce)

			r.Post("/player/thrust", h.handlePlayerThrust)
			r.Post("/player/turn", h.handlePlayerTurn)
			r.Post("/player/fire", h.handlePlayerFire)

			r.Post("/game/start", h.handleGameStart)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}
