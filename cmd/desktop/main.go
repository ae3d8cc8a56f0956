// Package main runs a scene in a desktop window.
//
// Usage:
//
//	go run ./cmd/desktop [--scene shooter|particles] [--file scene.yaml] [--seed N]
//
// Controls:
//
//	Enter             - Start a round (shooter)
//	Up/Down           - Thrust forward/backward while held
//	Left/Right        - Nudge the gun's spin
//	Space             - Fire while held
//	Tab               - Select next emitter
//	Left Click        - Select the emitter under the cursor and drag it,
//	                    or move the selected emitter to an empty spot
//	Right Click       - Highlight entities near the cursor
//	S                 - Start/stop the selected emitter
//	R                 - Reset the selected emitter
//	P                 - Pause the simulation
//	Q/Escape          - Quit
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"emitter-arena/internal/config"
	"emitter-arena/internal/game"
	"emitter-arena/internal/render"
	"emitter-arena/internal/sim"
)

// selectRadius is how close to a right click an entity must be to highlight
const selectRadius = 40

var (
	sceneFlag = flag.String("scene", "", "Built-in scene name (default from SCENE or shooter)")
	fileFlag  = flag.String("file", "", "YAML scene file")
	seedFlag  = flag.Int64("seed", 0, "Random seed, 0 = time based")
)

// ArenaGame implements ebiten.Game by stepping the engine once per Update
type ArenaGame struct {
	engine   *game.Engine
	world    config.WorldConfig
	selected int
	dragging bool
	paused   bool
	firing   bool
	status   string
}

// NewArenaGame wraps a stopped engine
func NewArenaGame(engine *game.Engine) *ArenaGame {
	return &ArenaGame{
		engine: engine,
		world:  engine.World(),
		status: "Enter: start round, Tab: select emitter",
	}
}

// Update handles input then advances one fixed tick
func (g *ArenaGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}

	g.handlePlayer()
	g.handleEmitters()

	if !g.paused {
		g.engine.Step(1)
	}
	return nil
}

func (g *ArenaGame) handlePlayer() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if err := g.engine.StartGame(); err != nil {
			g.status = err.Error()
		}
	}

	thrust := 0.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		thrust++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		thrust--
	}
	// particle scenes have no player; ignore ErrNoPlayer
	g.engine.Thrust(thrust)

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		g.engine.Turn(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		g.engine.Turn(1)
	}

	if fire := ebiten.IsKeyPressed(ebiten.KeySpace); fire != g.firing {
		g.firing = fire
		g.engine.Fire(fire)
	}
}

func (g *ArenaGame) handleEmitters() {
	emitters := g.engine.Emitters()
	if len(emitters) == 0 {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected = (g.selected + 1) % len(emitters)
	}
	g.selected %= len(emitters)
	sel := emitters[g.selected]

	var err error
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		x, y := g.cursor()
		name, hit := g.engine.EmitterAt(x, y)
		if !hit {
			err = g.engine.SetEmitterPosition(sel.Name, x, y)
			break
		}
		for i, em := range emitters {
			if em.Name == name {
				g.selected = i
			}
		}
		g.dragging = true
	case g.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		x, y := g.cursor()
		err = g.engine.SetEmitterPosition(sel.Name, x, y)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.dragging = false
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		x, y := g.cursor()
		g.status = fmt.Sprintf("%d selected", g.engine.SelectNear(x, y, selectRadius))
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		if sel.Running {
			err = g.engine.StopEmitter(sel.Name)
		} else {
			err = g.engine.StartEmitter(sel.Name)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		err = g.engine.ResetEmitter(sel.Name)
	}
	if err != nil {
		g.status = err.Error()
	}
}

// cursor returns the mouse position in world units
func (g *ArenaGame) cursor() (float64, float64) {
	x, y := ebiten.CursorPosition()
	wy := float64(y)
	if g.engine.GetSnapshot().YUp {
		wy = float64(g.world.Height) - wy
	}
	return float64(x), wy
}

// Draw renders the latest snapshot
func (g *ArenaGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{12, 12, 28, 255})

	snap := g.engine.GetSnapshot()
	h := float64(snap.Height)
	flip := func(y float64) float64 {
		if snap.YUp {
			return h - y
		}
		return y
	}

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alpha <= 0 {
			continue
		}
		c := render.ParseHexColor(e.Color)
		if e.Selected {
			c = color.RGBA{255, 255, 255, 255}
		}
		radius := e.Radius
		if radius <= 0 {
			radius = 2
		}
		vector.DrawFilledCircle(screen, float32(e.X), float32(flip(e.Y)), float32(radius),
			color.NRGBA{c.R, c.G, c.B, uint8(255 * e.Alpha)}, true)
	}

	for i := range snap.Emitters {
		em := &snap.Emitters[i]
		if em.Mode == "burst" {
			continue
		}
		c := render.ParseHexColor(em.Color)
		if !em.Running {
			c = color.RGBA{c.R / 2, c.G / 2, c.B / 2, 255}
		}
		if i == g.selected {
			c = color.RGBA{255, 255, 255, 255}
		}
		t := sim.NewTransform(sim.Vec3{X: em.X, Y: em.Y})
		t.SetRotation(em.Rotation)
		v := sim.EmitterTriangle.World(t)
		for j := range v {
			a, b := v[j], v[(j+1)%len(v)]
			vector.StrokeLine(screen, float32(a.X), float32(flip(a.Y)), float32(b.X), float32(flip(b.Y)), 2, c, true)
		}
	}

	g.drawUI(screen, snap)
}

func (g *ArenaGame) drawUI(screen *ebiten.Image, snap *game.GameSnapshot) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  tick %d  entities %d  TPS %.0f",
		snap.Scene, snap.TickNumber, snap.EntityCount, ebiten.ActualTPS()), 10, 10)

	hud := snap.Hud
	switch hud.Phase {
	case "playing":
		line := fmt.Sprintf("score %d  lives %d  best %d", hud.Score, hud.Lives, hud.HighScore)
		if hud.Remaining >= 0 {
			line += fmt.Sprintf("  time %.0f", hud.Remaining)
		}
		ebitenutil.DebugPrintAt(screen, line, 10, 30)
	case "over":
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("GAME OVER (%s) score %d - Enter to play again",
			hud.Reason, hud.Score), 10, 30)
	}

	if g.selected < len(snap.Emitters) {
		em := snap.Emitters[g.selected]
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("[%s] %s %s rate %.1f live %d",
			em.Name, em.Mode, em.Movement, em.Rate, em.Count), 10, 50)
	}
	ebitenutil.DebugPrintAt(screen, g.status, 10, 70)
	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", g.world.Width-80, 10)
	}
}

// Layout keeps world units equal to screen pixels
func (g *ArenaGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.world.Width, g.world.Height
}

func main() {
	flag.Parse()

	app := config.Load()
	if *sceneFlag != "" {
		app.Game.Scene = *sceneFlag
	}
	if *fileFlag != "" {
		app.Game.SceneFile = *fileFlag
	}
	if *seedFlag != 0 {
		app.Game.Seed = *seedFlag
	}

	engine, err := game.NewEngineFromConfig(app)
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	arena := NewArenaGame(engine)
	ebiten.SetTPS(app.World.TickRate)
	ebiten.SetWindowSize(app.World.Width, app.World.Height)
	ebiten.SetWindowTitle("Emitter Arena")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(arena); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
	log.Println("👋 Goodbye!")
}
