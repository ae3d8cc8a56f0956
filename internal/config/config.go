// Package config provides centralized configuration management.
// Runtime settings come from Default*() values with environment overrides;
// scene layouts (emitters, forces, rules) come from YAML presets in scene.go.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WORLD & TICK CONFIGURATION
// =============================================================================

// WorldConfig holds the simulated area and the fixed tick rate.
// Renderers and the engine share these values.
type WorldConfig struct {
	Width    int // World width in units (1 unit = 1 pixel when rendered)
	Height   int // World height in units
	TickRate int // Fixed simulation steps per second
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:    1280,
		Height:   720,
		TickRate: 60, // dt = 1/60 s
	}
}

// WorldFromEnv returns world configuration with environment variable overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvInt("WORLD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("WORLD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}

	return cfg
}

// Step returns the fixed step in seconds
func (w WorldConfig) Step() float64 {
	return 1.0 / float64(w.TickRate)
}

// TickInterval returns the fixed step as a Duration
func (w WorldConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(w.TickRate)
}

// =============================================================================
// GAME CONFIGURATION
// =============================================================================

// GameConfig selects the scene to run.
type GameConfig struct {
	Scene     string // Built-in scene name ("shooter", "particles")
	SceneFile string // Optional YAML file, takes precedence over Scene
	Seed      int64  // Random seed, 0 = time based
	EventLog  string // JSONL event log path, empty disables file output
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		Scene:    "shooter",
		EventLog: "logs/events.jsonl",
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if s := os.Getenv("SCENE"); s != "" {
		cfg.Scene = s
	}
	if f := os.Getenv("SCENE_FILE"); f != "" {
		cfg.SceneFile = f
	}
	if seed := getEnvInt("SEED", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}
	if v, ok := os.LookupEnv("EVENT_LOG"); ok {
		cfg.EventLog = v
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits caps what the simulation and its consumers will handle.
type ResourceLimits struct {
	MaxEntitiesPerEmitter int // Oldest spawn is dropped past this count
	MaxSnapshotEntities   int // Per-frame entity cap sent to renderers
	MaxBurstSize          int // Upper bound accepted from scenes and API
	MaxWSClients          int // WebSocket connection cap
	MaxEvents             int // In-memory event ring size
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxEntitiesPerEmitter: 4000,
		MaxSnapshotEntities:   5000,
		MaxBurstSize:          5000,
		MaxWSClients:          100,
		MaxEvents:             1000,
	}
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds sound effect settings for drivers that play audio.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.5,
		Enabled:    true,
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("SFX_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("SFX_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugPort      int      // pprof + metrics, bound to localhost; 0 disables
	AllowedOrigins []string // CORS origins
	RateLimit      float64  // Requests per second per IP
	RateBurst      int
	ControlToken   string // Required on command routes when set
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugPort:      6060,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimit:      20,
		RateBurst:      40,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v, ok := os.LookupEnv("DEBUG_PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil && p >= 0 {
			cfg.DebugPort = p
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	if r := getEnvFloat("RATE_LIMIT", 0); r > 0 {
		cfg.RateLimit = r
	}
	if b := getEnvInt("RATE_BURST", 0); b > 0 {
		cfg.RateBurst = b
	}
	cfg.ControlToken = os.Getenv("CONTROL_TOKEN")

	return cfg
}

// =============================================================================
// STORE CONFIGURATION
// =============================================================================

// StoreConfig controls where high scores are persisted.
type StoreConfig struct {
	AppName  string // Per-user data directory name
	Disabled bool   // Keep scores in memory only
	MaxScore int    // Entries kept in the table
}

// DefaultStore returns the default store configuration.
func DefaultStore() StoreConfig {
	return StoreConfig{
		AppName:  "emitter_arena",
		MaxScore: 10,
	}
}

// StoreFromEnv returns store configuration with environment variable overrides.
func StoreFromEnv() StoreConfig {
	cfg := DefaultStore()

	if name := os.Getenv("SCORES_APP"); name != "" {
		cfg.AppName = name
	}
	if os.Getenv("SCORES_ENABLED") == "false" {
		cfg.Disabled = true
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Game   GameConfig
	Audio  AudioConfig
	Server ServerConfig
	Store  StoreConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  WorldFromEnv(),
		Game:   GameFromEnv(),
		Audio:  AudioFromEnv(),
		Server: ServerFromEnv(),
		Store:  StoreFromEnv(),
		Limits: DefaultLimits(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
