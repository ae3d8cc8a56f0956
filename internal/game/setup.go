package game

import (
	"log"

	"github.com/pkg/errors"

	"emitter-arena/internal/config"
)

// LoadScene resolves the configured scene. An unreadable scene file falls
// back to the named preset so a bad path never keeps a driver from starting.
func LoadScene(cfg config.GameConfig) (*config.Scene, error) {
	scene, err := cfg.ResolveScene()
	if err == nil {
		return scene, nil
	}
	if cfg.SceneFile == "" {
		return nil, err
	}

	log.Printf("⚠️ Scene file %s unusable, falling back to %q: %v", cfg.SceneFile, cfg.Scene, err)
	scene, err = config.BuiltinScene(cfg.Scene)
	if err != nil {
		return nil, errors.Wrap(err, "fallback scene")
	}
	return scene, nil
}

// NewEngineFromConfig wires scene, high scores and limits into an engine.
// The engine is returned stopped.
func NewEngineFromConfig(app config.AppConfig) (*Engine, error) {
	scene, err := LoadScene(app.Game)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(EngineConfig{
		World:  app.World,
		Limits: app.Limits,
		Scene:  scene,
		Seed:   app.Game.Seed,
		Scores: OpenScoreStore(app.Store),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎬 Scene %q: %d emitters, %d forces, %d TPS",
		scene.Name, len(scene.Emitters), len(scene.Forces), app.World.TickRate)
	return engine, nil
}
