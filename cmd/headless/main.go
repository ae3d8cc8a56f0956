// Headless runs a scene as fast as possible, optionally saving frames and
// profiling the tick loop.
//
//	go run ./cmd/headless --scene particles --ticks 3600 --every 60 --out frames
//	go run ./cmd/headless --ticks 10000 --profile cpu
//	go tool pprof -http=":8000" cpu.pprof
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"

	"emitter-arena/internal/config"
	"emitter-arena/internal/game"
	"emitter-arena/internal/render"
)

var (
	sceneFlag   = flag.String("scene", "", "Built-in scene name (default from SCENE or shooter)")
	fileFlag    = flag.String("file", "", "YAML scene file")
	seedFlag    = flag.Int64("seed", 1, "Random seed, 0 = time based")
	ticksFlag   = flag.Int("ticks", 600, "Number of fixed steps to run")
	everyFlag   = flag.Int("every", 0, "Save a PNG every N ticks, 0 = never")
	outFlag     = flag.String("out", "frames", "Directory for saved frames")
	playFlag    = flag.Bool("play", true, "Start a round and hold fire when the scene has a player")
	queueFlag   = flag.Int("queue", 0, "Encoder queue size, 0 = default")
	dropFlag    = flag.Bool("drop", false, "Drop frames instead of waiting when the encoder falls behind")
	profileFlag = flag.String("profile", "", "Profile mode: cpu, mem or empty")
)

func main() {
	flag.Parse()

	switch *profileFlag {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		log.Fatalf("❌ Unknown profile mode %q", *profileFlag)
	}

	app := config.Load()
	app.Store.Disabled = true
	if *sceneFlag != "" {
		app.Game.Scene = *sceneFlag
	}
	if *fileFlag != "" {
		app.Game.SceneFile = *fileFlag
	}
	app.Game.Seed = *seedFlag

	engine, err := game.NewEngineFromConfig(app)
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	if *playFlag {
		if err := engine.StartGame(); err == nil {
			engine.Fire(true)
		}
	}

	var frames *render.FrameWriter
	if *everyFlag > 0 {
		if err := os.MkdirAll(*outFlag, 0o755); err != nil {
			log.Fatalf("❌ Failed to create %s: %v", *outFlag, err)
		}
		world := engine.World()
		frames = render.NewFrameWriter(render.New(world.Width, world.Height), *queueFlag)
	}

	start := time.Now()
	for i := 1; i <= *ticksFlag; i++ {
		engine.Step(1)
		if frames == nil || i%*everyFlag != 0 {
			continue
		}
		path := filepath.Join(*outFlag, fmt.Sprintf("frame_%06d.png", i))
		if *dropFlag {
			frames.Submit(path, engine.GetSnapshot())
		} else if !frames.Enqueue(path, engine.GetSnapshot()) {
			log.Fatalf("❌ Frame writer failed, see errors above")
		}
	}
	elapsed := time.Since(start)

	stats := engine.Stats()
	log.Printf("✅ %d ticks in %v (%.0f ticks/s)", *ticksFlag, elapsed.Round(time.Millisecond),
		float64(*ticksFlag)/elapsed.Seconds())
	log.Printf("📊 %d entities live, %d spawned, %d hits, %d capped, last tick %.3fms",
		stats.Entities, stats.Spawned, stats.Hits, stats.Capped, stats.LastTickMs)
	if frames != nil {
		frames.Stop()
		fs := frames.GetStats()
		log.Printf("🖼️ %v frames in %s, %v dropped, %v errors",
			fs["framesWritten"], *outFlag, fs["framesDropped"], fs["writeErrors"])
	}
	if hud := engine.GetSnapshot().Hud; hud.Phase != "" {
		log.Printf("🎯 %s: score %d, lives %d", hud.Phase, hud.Score, hud.Lives)
	}
}
