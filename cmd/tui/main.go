// Package main runs a scene in the terminal with synthesized sound effects.
//
// Usage:
//
//	go run ./cmd/tui [--scene shooter|particles] [--file scene.yaml] [--seed N] [--mute]
//
// Controls:
//
//	Enter       - Start a round (shooter)
//	Up/Down     - Step thrust forward/off/backward
//	Left/Right  - Nudge the gun's spin
//	Space       - Toggle fire
//	Tab         - Select next emitter
//	s           - Start/stop the selected emitter
//	r           - Reset the selected emitter
//	q/Escape    - Quit
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"emitter-arena/internal/audio"
	"emitter-arena/internal/config"
	"emitter-arena/internal/game"
	"emitter-arena/internal/render"
	"emitter-arena/internal/sim"
)

const frameInterval = 33 * time.Millisecond // ~30 FPS

var (
	sceneFlag = flag.String("scene", "", "Built-in scene name (default from SCENE or shooter)")
	fileFlag  = flag.String("file", "", "YAML scene file")
	seedFlag  = flag.Int64("seed", 0, "Random seed, 0 = time based")
	muteFlag  = flag.Bool("mute", false, "Disable sound effects")
	logFlag   = flag.String("log", "tui.log", "Log file, the terminal is owned by the screen")
)

// cell keeps the brightest entity drawn at one terminal position
type cell struct {
	count int
	color tcell.Color
}

// Terminal draws snapshots into a tcell screen and forwards keys to the engine
type Terminal struct {
	screen   tcell.Screen
	engine   *game.Engine
	sfx      *audio.Mixer
	world    config.WorldConfig
	cells    []cell
	selected int
	thrust   float64
	firing   bool
	status   string
}

// NewTerminal initializes the screen
func NewTerminal(engine *game.Engine, sfx *audio.Mixer) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	return &Terminal{
		screen: screen,
		engine: engine,
		sfx:    sfx,
		world:  engine.World(),
		status: "Enter: start round, Tab: select emitter, q: quit",
	}, nil
}

// Run draws frames until the user quits
func (t *Terminal) Run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !t.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			t.draw()
		}
	}
}

func (t *Terminal) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		var err error
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			if err = t.engine.StartGame(); err == nil {
				t.sfx.Queue(audio.SoundStart)
			}
		case tcell.KeyUp:
			t.thrust = min(t.thrust+1, 1)
			err = t.engine.Thrust(t.thrust)
		case tcell.KeyDown:
			t.thrust = max(t.thrust-1, -1)
			err = t.engine.Thrust(t.thrust)
		case tcell.KeyLeft:
			err = t.engine.Turn(-1)
		case tcell.KeyRight:
			err = t.engine.Turn(1)
		case tcell.KeyTab:
			t.selected++
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				t.firing = !t.firing
				err = t.engine.Fire(t.firing)
			case 's':
				err = t.toggleSelected()
			case 'r':
				err = t.withSelected(t.engine.ResetEmitter)
			}
		}
		if err != nil {
			t.status = err.Error()
		}
	}
	return true
}

func (t *Terminal) selectedEmitter() (game.EmitterSnapshot, bool) {
	emitters := t.engine.Emitters()
	if len(emitters) == 0 {
		return game.EmitterSnapshot{}, false
	}
	t.selected %= len(emitters)
	return emitters[t.selected], true
}

func (t *Terminal) withSelected(fn func(string) error) error {
	em, ok := t.selectedEmitter()
	if !ok {
		return nil
	}
	return fn(em.Name)
}

func (t *Terminal) toggleSelected() error {
	em, ok := t.selectedEmitter()
	if !ok {
		return nil
	}
	if em.Running {
		return t.engine.StopEmitter(em.Name)
	}
	return t.engine.StartEmitter(em.Name)
}

// draw maps the world onto the terminal below a two-row HUD
func (t *Terminal) draw() {
	cols, rows := t.screen.Size()
	top := 2
	rows -= top
	if cols <= 0 || rows <= 0 {
		return
	}

	snap := t.engine.CopySnapshot()
	t.screen.Clear()

	if n := cols * rows; cap(t.cells) < n {
		t.cells = make([]cell, n)
	} else {
		t.cells = t.cells[:n]
		clear(t.cells)
	}

	toCell := func(x, y float64) (int, int, bool) {
		if snap.YUp {
			y = float64(snap.Height) - y
		}
		cx := int(x / float64(snap.Width) * float64(cols))
		cy := int(y / float64(snap.Height) * float64(rows))
		return cx, cy, cx >= 0 && cx < cols && cy >= 0 && cy < rows
	}

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Alpha <= 0 {
			continue
		}
		cx, cy, ok := toCell(e.X, e.Y)
		if !ok {
			continue
		}
		c := &t.cells[cy*cols+cx]
		c.count++
		rgb := render.ParseHexColor(e.Color)
		c.color = tcell.NewRGBColor(int32(float64(rgb.R)*e.Alpha), int32(float64(rgb.G)*e.Alpha), int32(float64(rgb.B)*e.Alpha))
	}

	for i, c := range t.cells {
		if c.count == 0 {
			continue
		}
		ch := '·'
		switch {
		case c.count > 4:
			ch = '█'
		case c.count > 1:
			ch = '•'
		}
		t.screen.SetContent(i%cols, top+i/cols, ch, nil, tcell.StyleDefault.Foreground(c.color))
	}

	for i := range snap.Emitters {
		em := &snap.Emitters[i]
		cx, cy, ok := toCell(em.X, em.Y)
		if !ok {
			continue
		}
		rgb := render.ParseHexColor(em.Color)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B)))
		if i == t.selected%max(len(snap.Emitters), 1) {
			style = style.Reverse(true)
		}
		if !em.Running {
			style = style.Dim(true)
		}
		t.screen.SetContent(cx, top+cy, '◆', nil, style)
	}

	t.drawHUD(snap, cols)
	t.screen.Show()
}

func (t *Terminal) drawHUD(snap *game.GameSnapshot, cols int) {
	line := fmt.Sprintf(" %s  tick %d  entities %d", snap.Scene, snap.TickNumber, snap.EntityCount)
	hud := snap.Hud
	switch hud.Phase {
	case "playing":
		line += fmt.Sprintf("  score %d  lives %d  best %d", hud.Score, hud.Lives, hud.HighScore)
		if hud.Remaining >= 0 {
			line += fmt.Sprintf("  time %.0f", hud.Remaining)
		}
	case "over":
		line += fmt.Sprintf("  GAME OVER (%s) score %d", hud.Reason, hud.Score)
	}
	t.print(0, line, tcell.StyleDefault.Bold(true), cols)

	status := t.status
	if len(snap.Emitters) > 0 {
		em := snap.Emitters[t.selected%len(snap.Emitters)]
		status = fmt.Sprintf(" [%s] %s rate %.1f live %d  | %s", em.Name, em.Mode, em.Rate, em.Count, t.status)
	}
	t.print(1, status, tcell.StyleDefault.Foreground(tcell.ColorGray), cols)
}

func (t *Terminal) print(row int, text string, style tcell.Style, cols int) {
	x := 0
	for _, r := range text {
		if x >= cols {
			return
		}
		t.screen.SetContent(x, row, r, nil, style)
		x++
	}
}

// Close restores the terminal
func (t *Terminal) Close() {
	t.screen.Fini()
}

func main() {
	flag.Parse()

	// the screen owns stdout, so logs go to a file
	if f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

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
	if *muteFlag {
		app.Audio.Enabled = false
	}

	engine, err := game.NewEngineFromConfig(app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create engine: %v\n", err)
		os.Exit(1)
	}

	sfx := audio.NewMixer(app.Audio)
	if err := sfx.Init(); err != nil {
		// non-fatal, the arena runs without sound
		log.Printf("⚠️ Audio disabled: %v", err)
	}
	defer sfx.Close()

	engine.SetCallbacks(
		func(int, sim.Vec3) { sfx.Queue(audio.SoundHit) },
		func(int, int) { sfx.Queue(audio.SoundPlayerHit) },
		func(game.GameOverPayload) { sfx.Queue(audio.SoundGameOver) },
	)

	term, err := NewTerminal(engine, sfx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Close()

	engine.Start()
	defer engine.Stop()

	term.Run()
}
