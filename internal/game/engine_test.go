package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"emitter-arena/internal/config"
	"emitter-arena/internal/sim"
)

// duelScene has one gun facing one enemy straight above it
const duelScene = `
name: duel
rules:
  hitRadius: %v
  roundSeconds: %v
  lives: %d
  lifePenalty: 7
  thrust: 500
  turnRate: 10
emitters:
  - name: gun
    role: player
    rate: 10
    position: [100, %v, 0]
    velocity: [0, -400, 0]
    alignHeading: true
    lifespanMs: -1
  - name: enemy
    role: enemy
    rate: 10
    position: [100, 50, 0]
    velocity: [0, 100, 0]
    lifespanMs: -1
  - name: boom
    role: effect
    mode: burst
    burstSize: 15
    physics: true
    drain: true
    velocity: [50, 50, 0]
    lifespanMs: 500
    planar: true
`

func newTestEngine(t *testing.T, scene *config.Scene, limits config.ResourceLimits) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{
		World:  config.DefaultWorld(),
		Limits: limits,
		Scene:  scene,
		Seed:   42,
		Scores: mustScores(t),
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func mustScores(t *testing.T) *ScoreStore {
	t.Helper()
	s, err := NewScoreStore(nil, 5)
	if err != nil {
		t.Fatalf("NewScoreStore failed: %v", err)
	}
	return s
}

func builtin(t *testing.T, name string) *config.Scene {
	t.Helper()
	s, err := config.BuiltinScene(name)
	if err != nil {
		t.Fatalf("BuiltinScene(%q) failed: %v", name, err)
	}
	return s
}

func duel(t *testing.T, hitRadius, roundSeconds float64, lives int, gunY float64) *config.Scene {
	t.Helper()
	s, err := config.ParseScene([]byte(fmt.Sprintf(duelScene, hitRadius, roundSeconds, lives, gunY)))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	return s
}

// TestNewEngineRequiresScene verifies a missing scene is reported
func TestNewEngineRequiresScene(t *testing.T) {
	if _, err := NewEngine(EngineConfig{}); err == nil {
		t.Error("Expected error for missing scene")
	}
}

// TestEngineStartStop verifies engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())

	engine.Start()
	engine.Start()
	time.Sleep(50 * time.Millisecond)

	engine.Stop()
	// Should not panic on double stop
	engine.Stop()

	if engine.Stats().Running {
		t.Error("Engine should report stopped")
	}
}

// TestAutostartAndReplay checks ambient bursts fire, expire and replay
func TestAutostartAndReplay(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())

	engine.Step(1)

	sphere, err := engine.Emitter("sphere-burst")
	if err != nil {
		t.Fatal(err)
	}
	if sphere.Count != 600 || !sphere.Running {
		t.Fatalf("Expected running sphere burst of 600, got %+v", sphere)
	}
	if fountain, _ := engine.Emitter("fountain"); fountain.Count != 0 {
		t.Errorf("Fountain should not spawn before its first 25ms interval, got %d", fountain.Count)
	}

	// lifespan 2.5s: everything from the first burst is gone by tick 180
	engine.Step(179)
	sphere, _ = engine.Emitter("sphere-burst")
	if sphere.Count != 0 {
		t.Errorf("Expected first burst expired at tick 180, %d left", sphere.Count)
	}

	// replay period 3s is reached on tick 181
	engine.Step(1)
	sphere, _ = engine.Emitter("sphere-burst")
	if sphere.Count != 600 || sphere.Spawned != 1200 {
		t.Errorf("Expected replayed burst (600 live, 1200 spawned), got %d/%d", sphere.Count, sphere.Spawned)
	}
}

// TestShooterIdleUntilStarted checks nothing spawns before a round begins
func TestShooterIdleUntilStarted(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "shooter"), config.DefaultLimits())

	engine.Step(30)
	if n := engine.Stats().Entities; n != 0 {
		t.Errorf("Expected no entities before StartGame, got %d", n)
	}
	if p := engine.Match().Phase; p != PhaseIdle {
		t.Errorf("Expected idle phase, got %s", p)
	}

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	if err := engine.Fire(true); err != nil {
		t.Fatal(err)
	}
	engine.Step(60)

	m := engine.Match()
	if m.Phase != PhasePlaying || m.Rules.Lives != 100 {
		t.Errorf("Expected a playing round with 100 lives, got %+v", m)
	}
	gun, _ := engine.Emitter("gun")
	if !gun.Running || gun.Spawned == 0 {
		t.Errorf("Gun should be firing, got %+v", gun)
	}
	for _, name := range []string{"patrol-left", "patrol-right", "orbiter", "drifter"} {
		if em, _ := engine.Emitter(name); !em.Running {
			t.Errorf("Enemy %s should run during a round", name)
		}
	}
}

// TestGameOverByTime ends a one second round on the first tick past 1s
func TestGameOverByTime(t *testing.T) {
	engine := newTestEngine(t, duel(t, 10, 1, 100, 700), config.DefaultLimits())

	var results []GameOverPayload
	engine.SetCallbacks(nil, nil, func(r GameOverPayload) {
		results = append(results, r)
	})

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	engine.Step(60)
	if engine.Match().Phase != PhasePlaying {
		t.Fatal("Round should still run at exactly 60 ticks")
	}

	engine.Step(1)
	m := engine.Match()
	if m.Phase != PhaseOver || m.Reason != ReasonTime {
		t.Fatalf("Expected game over by time, got %s (%s)", m.Phase, m.Reason)
	}
	if len(results) != 1 || results[0].Rank != 1 {
		t.Errorf("Expected one ranked game over callback, got %+v", results)
	}
	if enemy, _ := engine.Emitter("enemy"); enemy.Running {
		t.Error("Enemies should stop at game over")
	}
	if top := engine.HighScores(10); len(top) != 1 || top[0].Reason != ReasonTime {
		t.Errorf("Expected the round in the high score table, got %+v", top)
	}

	engine.Step(10)
	if len(results) != 1 {
		t.Errorf("Game over should fire once, fired %d times", len(results))
	}
}

// TestPlayerHitCostsLives lets enemy shots fall onto an idle gun
func TestPlayerHitCostsLives(t *testing.T) {
	engine := newTestEngine(t, duel(t, 5, 0, 20, 100), config.DefaultLimits())

	var lives []int
	engine.SetCallbacks(nil, func(removed, left int) {
		lives = append(lives, left)
	}, nil)

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	engine.Step(300)

	m := engine.Match()
	if m.Phase != PhaseOver || m.Reason != ReasonLives {
		t.Fatalf("Expected game over by lives, got %s (%s)", m.Phase, m.Reason)
	}
	if m.Lives != -1 {
		t.Errorf("Expected 20 - 3*7 = -1 lives, got %d", m.Lives)
	}
	if hits := engine.Stats().PlayerHits; hits != 3 {
		t.Errorf("Expected 3 player hits, got %d", hits)
	}
	if len(lives) != 3 || lives[0] != 13 || lives[1] != 6 {
		t.Errorf("Unexpected lives sequence %v", lives)
	}
	if r := m.Remaining(0); r != -1 {
		t.Errorf("Endless round should report -1 remaining, got %v", r)
	}
}

// TestPlayerShotsScoreAndExplode fires into oncoming enemy shots
func TestPlayerShotsScoreAndExplode(t *testing.T) {
	engine := newTestEngine(t, duel(t, 10, 0, 100, 400), config.DefaultLimits())

	var explosions int
	engine.SetCallbacks(func(int, sim.Vec3) { explosions++ }, nil, nil)

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	if err := engine.Fire(true); err != nil {
		t.Fatal(err)
	}
	engine.Step(120)

	m := engine.Match()
	if m.Score == 0 {
		t.Fatal("Expected shots to collide within two seconds")
	}
	if got := engine.Stats().Hits; got != uint64(m.Score) {
		t.Errorf("Expected hits == score (%d), got %d", m.Score, got)
	}
	if explosions == 0 {
		t.Error("Expected hit callbacks")
	}
	if boom, _ := engine.Emitter("boom"); boom.Spawned < 15 {
		t.Errorf("Expected at least one 15 spark explosion, got %d", boom.Spawned)
	}
}

// TestEmitterCommands covers the per-emitter driver commands
func TestEmitterCommands(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())
	engine.Step(1)

	if err := engine.StopEmitter("missing"); !errors.Is(err, ErrUnknownEmitter) {
		t.Errorf("Expected ErrUnknownEmitter, got %v", err)
	}

	if err := engine.SetEmitterPosition("fountain", 10, 20); err != nil {
		t.Fatal(err)
	}
	if err := engine.SetEmitterRotation("fountain", 45); err != nil {
		t.Fatal(err)
	}
	f, _ := engine.Emitter("fountain")
	if f.X != 10 || f.Y != 20 || f.Rotation != 45 {
		t.Errorf("Expected fountain at (10,20) rotated 45, got %+v", f)
	}

	if err := engine.SetEmitterRate("fountain", 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for rate 0, got %v", err)
	}
	if err := engine.SetEmitterRate("fountain", 5); err != nil {
		t.Fatal(err)
	}
	if f, _ := engine.Emitter("fountain"); f.Rate != 5 {
		t.Errorf("Expected rate 5, got %v", f.Rate)
	}

	if err := engine.StopEmitter("sphere-burst"); err != nil {
		t.Fatal(err)
	}
	if s, _ := engine.Emitter("sphere-burst"); s.Running {
		t.Error("sphere-burst should be stopped")
	}
	if err := engine.ResetEmitter("sphere-burst"); err != nil {
		t.Fatal(err)
	}
	if s, _ := engine.Emitter("sphere-burst"); s.Count != 0 {
		t.Errorf("Reset should clear entities, got %d", s.Count)
	}

	if err := engine.StartEmitter("sphere-burst"); err != nil {
		t.Fatal(err)
	}
	engine.Step(1)
	if s, _ := engine.Emitter("sphere-burst"); s.Count != 600 {
		t.Errorf("Restart should burst again, got %d", s.Count)
	}

	if err := engine.StartGame(); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Particle scene has no player, got %v", err)
	}
}

// TestEmitterAt hit-tests the rotated emitter marker
func TestEmitterAt(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())
	if err := engine.SetEmitterPosition("fountain", 200, 200); err != nil {
		t.Fatal(err)
	}
	if err := engine.SetEmitterRotation("fountain", 90); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"center", 200, 200, "fountain"},
		{"toward the rotated tip", 207, 200, "fountain"},
		{"where the unrotated tip would be", 200, 193, ""},
		{"burst emitters have no marker", 360, 420, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.EmitterAt(tt.x, tt.y)
			if got != tt.want || ok != (tt.want != "") {
				t.Errorf("Expected %q, got %q (ok=%v)", tt.want, got, ok)
			}
		})
	}
}

// TestSelectNear marks entities and carries the flag into snapshots
func TestSelectNear(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())
	engine.Step(30)

	total := engine.Stats().Entities
	if total == 0 {
		t.Fatal("Expected live entities after 30 steps")
	}
	if n := engine.SelectNear(640, 420, 1e6); n != total {
		t.Errorf("Expected all %d entities selected, got %d", total, n)
	}

	engine.Step(1)
	selected := 0
	for _, e := range engine.GetSnapshot().Entities {
		if e.Selected {
			selected++
		}
	}
	if selected == 0 {
		t.Error("Expected selected entities in the snapshot")
	}

	if n := engine.SelectNear(-1e6, -1e6, 1); n != 0 {
		t.Errorf("Expected nothing selected far away, got %d", n)
	}
	engine.Step(1)
	for _, e := range engine.GetSnapshot().Entities {
		if e.Selected {
			t.Fatal("Expected selection cleared in the snapshot")
		}
	}
}

// TestSetForce updates scene forces through the engine
func TestSetForce(t *testing.T) {
	engine := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())

	m := 50.0
	if err := engine.SetForce("gravity", ForceParams{Magnitude: &m}); err != nil {
		t.Fatal(err)
	}
	if err := engine.SetForce("nope", ForceParams{}); !errors.Is(err, ErrUnknownForce) {
		t.Errorf("Expected ErrUnknownForce, got %v", err)
	}
	bad := [3]float64{500, 0, 0}
	if err := engine.SetForce("turbulence", ForceParams{Min: &bad}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for min > max, got %v", err)
	}

	for _, f := range engine.Forces() {
		if f.Name != "gravity" {
			continue
		}
		if f.Kind != "gravity" || f.Params.Vector == nil || *f.Params.Vector != [3]float64{0, -50, 0} {
			t.Errorf("Expected gravity (0,-50,0), got %+v", f.Params.Vector)
		}
		return
	}
	t.Error("gravity force not listed")
}

// TestSnapshotContents checks counts, caps and presentation fields
func TestSnapshotContents(t *testing.T) {
	tests := []struct {
		name         string
		maxSnapshot  int
		wantEntities int
	}{
		{"uncapped", 5000, 1000},
		{"capped", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := config.DefaultLimits()
			limits.MaxSnapshotEntities = tt.maxSnapshot
			engine := newTestEngine(t, builtin(t, "particles"), limits)
			engine.Step(1)

			snap := engine.GetSnapshot()
			if snap.EntityCount != 1000 {
				t.Errorf("Expected 1000 live entities, got %d", snap.EntityCount)
			}
			if len(snap.Entities) != tt.wantEntities {
				t.Errorf("Expected %d snapshot entities, got %d", tt.wantEntities, len(snap.Entities))
			}
			if len(snap.Emitters) != 3 || !snap.YUp || snap.TickNumber != 1 {
				t.Errorf("Unexpected snapshot header %+v", snap)
			}
			first := snap.Entities[0]
			if first.Color != "#ff7043" || first.Radius != 2 || first.Alpha <= 0 || first.Alpha > 1 {
				t.Errorf("Unexpected entity %+v", first)
			}
		})
	}
}

// TestEntityCapDropsOldest verifies the per-emitter limit
func TestEntityCapDropsOldest(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxEntitiesPerEmitter = 100
	engine := newTestEngine(t, builtin(t, "particles"), limits)

	engine.Step(1)

	stats := engine.Stats()
	if stats.Entities != 200 {
		t.Errorf("Expected 2x100 entities, got %d", stats.Entities)
	}
	if stats.Capped != 800 {
		t.Errorf("Expected 800 dropped, got %d", stats.Capped)
	}
}

// TestDeterministicSeed runs two engines with the same seed side by side
func TestDeterministicSeed(t *testing.T) {
	a := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())
	b := newTestEngine(t, builtin(t, "particles"), config.DefaultLimits())

	a.Step(30)
	b.Step(30)

	sa, sb := a.GetSnapshot().Clone(), b.GetSnapshot().Clone()
	if len(sa.Entities) != len(sb.Entities) {
		t.Fatalf("Entity counts differ: %d vs %d", len(sa.Entities), len(sb.Entities))
	}
	for i := range sa.Entities {
		if sa.Entities[i] != sb.Entities[i] {
			t.Fatalf("Entity %d differs: %+v vs %+v", i, sa.Entities[i], sb.Entities[i])
		}
	}
}

// TestEngineEvents checks commands and rounds reach the event log
func TestEngineEvents(t *testing.T) {
	engine := newTestEngine(t, duel(t, 10, 1, 100, 700), config.DefaultLimits())
	if err := engine.StartEventLog(""); err != nil {
		t.Fatal(err)
	}
	defer engine.StopEventLog()

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	engine.Step(61)

	seen := map[EventType]int{}
	for _, ev := range engine.RecentEvents(0) {
		seen[ev.Type]++
	}
	if seen[EventTypeGameStart] != 1 || seen[EventTypeGameOver] != 1 {
		t.Errorf("Expected one start and one game over event, got %v", seen)
	}
	if seen[EventTypeTick] != 0 {
		t.Errorf("Expected tick events to stay out of the recent ring, got %d", seen[EventTypeTick])
	}
	if total, _ := engine.GetEventLogStats()["total"].(uint64); total < 61 {
		t.Errorf("Expected tick events to still be logged, got total %d", total)
	}
}

// TestRecentEventsKeepHits checks hits survive a long stretch of ticks
func TestRecentEventsKeepHits(t *testing.T) {
	engine := newTestEngine(t, duel(t, 10, 0, 100, 400), config.DefaultLimits())
	if err := engine.StartEventLog(""); err != nil {
		t.Fatal(err)
	}
	defer engine.StopEventLog()

	if err := engine.StartGame(); err != nil {
		t.Fatal(err)
	}
	if err := engine.Fire(true); err != nil {
		t.Fatal(err)
	}
	// more ticks than the recent ring holds
	engine.Step(1200)
	if engine.Match().Score == 0 {
		t.Fatal("Expected shots to collide")
	}

	seen := map[EventType]int{}
	for _, ev := range engine.RecentEvents(0) {
		seen[ev.Type]++
	}
	if seen[EventTypeHit] == 0 {
		t.Errorf("Expected hit events in the recent ring, got %v", seen)
	}
	if seen[EventTypeTick] != 0 {
		t.Errorf("Expected no tick events, got %v", seen)
	}
}
