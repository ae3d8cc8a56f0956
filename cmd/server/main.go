package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"emitter-arena/internal/api"
	"emitter-arena/internal/config"
	"emitter-arena/internal/game"
	"emitter-arena/internal/render"
	"emitter-arena/internal/sim"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  EMITTER ARENA - SIM SERVER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server

	engine, err := game.NewEngineFromConfig(appConfig)
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}
	limits := appConfig.Limits
	log.Printf("🛡️ Resource limits: %d entities/emitter, %d per snapshot, %d ws clients",
		limits.MaxEntitiesPerEmitter, limits.MaxSnapshotEntities, limits.MaxWSClients)

	engine.SetCallbacks(
		func(removed int, at sim.Vec3) {
			log.Printf("💥 %d hit at (%.0f, %.0f)", removed, at.X, at.Y)
		},
		func(removed, lives int) {
			log.Printf("🩸 Player hit by %d, %d lives left", removed, lives)
		},
		nil,
	)

	// always started: /api/events reads the in-memory ring
	path := appConfig.Game.EventLog
	if err := engine.StartEventLog(path); err != nil {
		log.Printf("⚠️ Event log file disabled: %v", err)
		if err := engine.StartEventLog(""); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		}
	} else if path != "" {
		log.Printf("📝 Event log: %s", path)
	} else {
		log.Println("📝 Event log: memory only")
	}

	if err := api.StartDebugServer(api.ObservabilityFromPort(serverCfg.DebugPort)); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	if serverCfg.ControlToken != "" {
		log.Println("🔐 Command routes require CONTROL_TOKEN")
	} else {
		log.Println("⚠️ Command routes are open (set CONTROL_TOKEN to protect them)")
	}

	world := engine.World()
	renderer := render.New(world.Width, world.Height)
	server := api.NewServer(engine, serverCfg, limits, renderer)

	engine.Start()
	log.Println("✅ Engine started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ %v", err)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}
