package game

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"emitter-arena/internal/config"
	"emitter-arena/internal/sim"
)

var (
	ErrUnknownEmitter = errors.New("unknown emitter")
	ErrUnknownForce   = errors.New("unknown force")
	ErrNoPlayer       = errors.New("scene has no player emitter")
	ErrInvalidValue   = errors.New("invalid value")
)

// EngineConfig configures a new engine
type EngineConfig struct {
	World  config.WorldConfig
	Limits config.ResourceLimits
	Scene  *config.Scene
	Seed   int64       // 0 = time based
	Scores *ScoreStore // optional high score table
}

// EngineStats is a point-in-time summary for the API and metrics
type EngineStats struct {
	Tick       uint64  `json:"tick"`
	SimTime    float64 `json:"simTime"`
	Running    bool    `json:"running"`
	TickRate   int     `json:"tickRate"`
	Scene      string  `json:"scene"`
	Phase      string  `json:"phase"`
	Emitters   int     `json:"emitters"`
	Entities   int     `json:"entities"`
	Spawned    uint64  `json:"spawned"`
	Hits       uint64  `json:"hits"`
	PlayerHits uint64  `json:"playerHits"`
	Capped     uint64  `json:"capped"`
	LastTickMs float64 `json:"lastTickMs"`
}

// ForceInfo describes a scene force and its current parameters
type ForceInfo struct {
	Name   string      `json:"name"`
	Kind   string      `json:"kind"`
	Params ForceParams `json:"params"`
}

// ForceParams carries force parameters. Nil fields are left unchanged by
// SetForce; fields that do not apply to the force kind are ignored.
type ForceParams struct {
	Vector    *[3]float64 `json:"vector,omitempty"` // gravity, thrust
	Min       *[3]float64 `json:"min,omitempty"`    // turbulence
	Max       *[3]float64 `json:"max,omitempty"`    // turbulence
	Strength  *float64    `json:"strength,omitempty"`
	Height    *float64    `json:"height,omitempty"`
	Axis      *[3]float64 `json:"axis,omitempty"`
	Amplitude *float64    `json:"amplitude,omitempty"`
	Frequency *float64    `json:"frequency,omitempty"`
	Magnitude *float64    `json:"magnitude,omitempty"` // gravity (0,-m,0), thrust
}

// Engine runs a scene at a fixed tick rate. A single goroutine advances the
// simulation; everything else reads snapshots or takes the lock.
type Engine struct {
	mu sync.RWMutex

	world    *World
	match    *Match
	clock    *sim.ManualClock
	resolver sim.Resolver

	worldCfg config.WorldConfig
	limits   config.ResourceLimits
	dt       float64
	step     time.Duration

	// player steering
	thrust    *sim.ThrustForce
	thrustDir float64
	spawnAt   sim.Vec3
	spawnRot  float64

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Stats
	tickCount  uint64
	hits       uint64
	playerHits uint64
	capped     uint64
	lastTick   time.Duration

	// Event callbacks, called from the tick with the lock held
	onHit       func(removed int, at sim.Vec3)
	onPlayerHit func(removed, lives int)
	onGameOver  func(result GameOverPayload)

	snapshotPool *SnapshotPool
	eventLog     *EventLog
	scores       *ScoreStore

	// Deterministic RNG shared by every emitter and force
	rng     *rand.Rand
	rngSeed int64
}

// NewEngine builds the scene and returns a stopped engine. Autostart
// emitters are already running at simulation time zero.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Scene == nil {
		return nil, errors.New("engine needs a scene")
	}
	if cfg.World.TickRate <= 0 {
		cfg.World = config.DefaultWorld()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	world, err := BuildWorld(cfg.Scene, cfg.World.Step(), cfg.Limits.MaxBurstSize, rng)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scene")
	}

	e := &Engine{
		world: world,
		match: NewMatch(cfg.Scene.Rules),
		clock: sim.NewManualClock(0),
		resolver: sim.Resolver{
			HitRadius:     cfg.Scene.Rules.HitRadius,
			ConsumeSource: true,
			Broadphase:    true,
		},
		worldCfg:     cfg.World,
		limits:       cfg.Limits,
		dt:           cfg.World.Step(),
		step:         cfg.World.TickInterval(),
		thrust:       sim.NewThrustForce(cfg.Scene.Rules.Thrust),
		tickRate:     cfg.World.TickRate,
		stopChan:     make(chan struct{}),
		snapshotPool: NewSnapshotPool(cfg.Limits.MaxSnapshotEntities, len(world.Slots)),
		eventLog:     NewEventLog(cfg.Limits.MaxEvents),
		scores:       cfg.Scores,
		rng:          rng,
		rngSeed:      seed,
	}

	if p := world.Player(); p != nil {
		// the engine steers the player body itself
		p.Emitter.Movement = nil
		e.spawnAt = p.Emitter.Position
		e.spawnRot = p.Emitter.Rotation
	}
	for _, s := range world.Slots {
		if s.Autostart {
			s.Emitter.Start(0)
		}
	}

	e.produceSnapshot(0)
	return e, nil
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(e.step)

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Engine started: scene %q at %d TPS", e.world.Scene.Name, e.tickRate)
}

// Stop stops the game loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Engine stopped")
}

// Step advances the simulation by n fixed ticks synchronously. Drivers that
// own their own loop (desktop, terminal, headless) use this instead of Start.
func (e *Engine) Step(n int) {
	for i := 0; i < n; i++ {
		e.tick()
	}
}

// tick is called tickRate times per second
func (e *Engine) tick() {
	started := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	now := e.clock.Advance(e.step)

	e.eventLog.EmitSimple(EventTypeTick, e.tickCount, "",
		TickPayload{
			RNGSeed:     e.rngSeed,
			EntityCount: e.world.EntityCount(),
			DeltaTimeNs: int64(e.step),
		})

	// Advance RNG seed deterministically for next tick
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	// spawn, move, expire and integrate
	for _, s := range e.world.Slots {
		e.updateSlot(s, now)
	}
	e.steerPlayer(now)

	for _, s := range e.world.Slots {
		if n := s.Emitter.Collection().Cap(e.limits.MaxEntitiesPerEmitter); n > 0 {
			e.capped += uint64(n)
		}
	}

	if e.match.Playing() {
		e.resolveCollisions(now)
		if e.match.Check(now) {
			e.gameOver(now)
		}
	}

	e.produceSnapshot(now)
	e.lastTick = time.Since(started)
}

func (e *Engine) updateSlot(s *Slot, now time.Duration) {
	em := s.Emitter

	if em.IsRunning() {
		if s.RandomRate() {
			em.SetRate(s.rateMin + e.rng.Float64()*(s.rateMax-s.rateMin))
		}
		if em.Mode == sim.OneShotBurst && s.replay > 0 && now-s.lastReplay >= s.replay {
			em.Reset()
			s.lastReplay = now
		}
	}

	before := em.Spawned()
	em.Update(now)

	if em.Mode == sim.OneShotBurst && em.Spawned() > before {
		e.eventLog.EmitSimple(EventTypeBurst, e.tickCount, s.Name, BurstPayload{
			Emitter: s.Name,
			Count:   int(em.Spawned() - before),
			X:       em.Position.X,
			Y:       em.Position.Y,
		})
	}
}

// steerPlayer applies thrust along the gun heading and keeps the gun inside
// the world
func (e *Engine) steerPlayer(now time.Duration) {
	p := e.world.Player()
	if p == nil {
		return
	}
	em := p.Emitter

	if e.thrustDir != 0 && e.match.Playing() {
		e.thrust.Along(em.Heading().Scale(e.thrustDir))
		em.ApplyForce(e.thrust, sim.Step{Now: now, DT: e.dt})
	}
	em.Integrate()

	w, h := float64(e.worldCfg.Width), float64(e.worldCfg.Height)
	if em.Position.X < 0 || em.Position.X > w {
		em.Position.X = math.Max(0, math.Min(w, em.Position.X))
		em.Body.Velocity.X = 0
	}
	if em.Position.Y < 0 || em.Position.Y > h {
		em.Position.Y = math.Max(0, math.Min(h, em.Position.Y))
		em.Body.Velocity.Y = 0
	}
}

// resolveCollisions scores player shots against enemy shots, then enemy
// shots against the player's own position
func (e *Engine) resolveCollisions(now time.Duration) {
	p := e.world.Player()
	if p == nil {
		return
	}
	enemies := e.world.Enemies()
	targets := e.world.EnemyCollections()

	for _, h := range e.resolver.Resolve(p.Emitter.Collection(), targets) {
		e.hits += uint64(h.Count)
		e.match.AddHits(h.Count)
		e.explode(h.Point, now)

		e.eventLog.EmitSimple(EventTypeHit, e.tickCount, p.Name, HitPayload{
			Target:  enemies[h.TargetIndex].Name,
			Removed: h.Count,
			X:       h.Point.X,
			Y:       h.Point.Y,
			Score:   e.match.Score,
		})
		if e.onHit != nil {
			e.onHit(h.Count, h.Point)
		}
	}

	for _, h := range e.resolver.ResolvePoint(p.Emitter.Position, targets) {
		e.playerHits += uint64(h.Count)
		e.match.TakeHits(h.Count)

		e.eventLog.EmitSimple(EventTypePlayerHit, e.tickCount, enemies[h.TargetIndex].Name, PlayerHitPayload{
			Attacker: enemies[h.TargetIndex].Name,
			Removed:  h.Count,
			Lives:    e.match.Lives,
		})
		if e.onPlayerHit != nil {
			e.onPlayerHit(h.Count, e.match.Lives)
		}
	}
}

// explode replays the effect burst at p
func (e *Engine) explode(p sim.Vec3, now time.Duration) {
	fx := e.world.Effect()
	if fx == nil {
		return
	}
	fx.Emitter.Reset()
	fx.Emitter.SetPosition(p)
	fx.Emitter.Start(now)
}

func (e *Engine) gameOver(now time.Duration) {
	e.thrustDir = 0
	if p := e.world.Player(); p != nil {
		p.Emitter.Stop()
	}
	for _, s := range e.world.Enemies() {
		s.Emitter.Stop()
	}

	result := GameOverPayload{
		Reason:  e.match.Reason,
		Score:   e.match.Score,
		Elapsed: e.match.Elapsed(now).Seconds(),
	}
	if e.scores != nil {
		rank, err := e.scores.Add(ScoreEntry{
			Score:   result.Score,
			Scene:   e.world.Scene.Name,
			Reason:  result.Reason,
			Elapsed: result.Elapsed,
			At:      time.Now(),
		})
		if err != nil {
			log.Printf("⚠️ Failed to save high score: %v", err)
		}
		result.Rank = rank
	}

	e.eventLog.EmitSimple(EventTypeGameOver, e.tickCount, "", result)
	log.Printf("🏁 Game over (%s): score %d after %.1fs", result.Reason, result.Score, result.Elapsed)

	if e.onGameOver != nil {
		e.onGameOver(result)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// StartGame begins a new round: shots are cleared, enemies start, the gun
// returns to its spawn point and waits for Fire
func (e *Engine) StartGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.Player()
	if p == nil {
		return ErrNoPlayer
	}
	now := e.clock.Now()

	p.Emitter.Stop()
	p.Emitter.Reset()
	p.Emitter.SetPosition(e.spawnAt)
	p.Emitter.SetRotation(e.spawnRot)
	p.Emitter.Body = sim.DefaultKinematics()
	e.thrustDir = 0

	if fx := e.world.Effect(); fx != nil {
		fx.Emitter.Stop()
		fx.Emitter.Reset()
	}
	for _, s := range e.world.Enemies() {
		s.Emitter.Reset()
		s.Emitter.Start(now)
	}

	e.match.Start(now)
	e.eventLog.EmitSimple(EventTypeGameStart, e.tickCount, "", CommandPayload{Command: "start_game"})
	log.Printf("🎯 Round started: %d lives, %.0fs", e.match.Lives, e.match.Rules.RoundSeconds)
	return nil
}

// Fire starts or stops the player gun
func (e *Engine) Fire(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.Player()
	if p == nil {
		return ErrNoPlayer
	}
	if on && !p.Emitter.IsRunning() {
		p.Emitter.Start(e.clock.Now())
	} else if !on {
		p.Emitter.Stop()
	}
	return nil
}

// Thrust sets the thrust direction along the gun heading: 1 forward,
// -1 backward, 0 off. Thrust only acts while a round is playing.
func (e *Engine) Thrust(dir float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.world.Player() == nil {
		return ErrNoPlayer
	}
	e.thrustDir = math.Max(-1, math.Min(1, dir))
	return nil
}

// Turn nudges the gun's angular velocity by dir * TurnRate degrees/s
func (e *Engine) Turn(dir float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.world.Player()
	if p == nil {
		return ErrNoPlayer
	}
	p.Emitter.Body.AngularVelocity += math.Max(-1, math.Min(1, dir)) * e.match.Rules.TurnRate
	return nil
}

// StartEmitter puts the named emitter in Running at the current time
func (e *Engine) StartEmitter(name string) error {
	return e.command("start", name, 0, func(s *Slot, now time.Duration) error {
		s.Emitter.Start(now)
		s.lastReplay = now
		return nil
	})
}

// StopEmitter stops the named emitter
func (e *Engine) StopEmitter(name string) error {
	return e.command("stop", name, 0, func(s *Slot, _ time.Duration) error {
		s.Emitter.Stop()
		return nil
	})
}

// ResetEmitter clears the named emitter's entities and re-arms its burst
func (e *Engine) ResetEmitter(name string) error {
	return e.command("reset", name, 0, func(s *Slot, now time.Duration) error {
		s.Emitter.Reset()
		s.lastReplay = now
		return nil
	})
}

// SetEmitterPosition moves the named emitter
func (e *Engine) SetEmitterPosition(name string, x, y float64) error {
	return e.command("set_position", name, x, func(s *Slot, _ time.Duration) error {
		s.Emitter.SetPosition(sim.Vec3{X: x, Y: y, Z: s.Emitter.Position.Z})
		return nil
	})
}

// SetEmitterRotation sets the named emitter's rotation in degrees
func (e *Engine) SetEmitterRotation(name string, deg float64) error {
	return e.command("set_rotation", name, deg, func(s *Slot, _ time.Duration) error {
		s.Emitter.SetRotation(deg)
		return nil
	})
}

// SetEmitterRate sets spawns per second and turns off rate re-rolling
func (e *Engine) SetEmitterRate(name string, rate float64) error {
	return e.command("set_rate", name, rate, func(s *Slot, _ time.Duration) error {
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return errors.Wrapf(ErrInvalidValue, "rate must be > 0, got %v", rate)
		}
		s.rateMin, s.rateMax = 0, 0
		s.Emitter.SetRate(rate)
		return nil
	})
}

func (e *Engine) command(cmd, name string, value float64, fn func(s *Slot, now time.Duration) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.world.Slot(name)
	if !ok {
		return errors.Wrapf(ErrUnknownEmitter, "%q", name)
	}
	if err := fn(s, e.clock.Now()); err != nil {
		return err
	}
	e.eventLog.EmitSimple(EventTypeCommand, e.tickCount, "api", CommandPayload{Command: cmd, Target: name, Value: value})
	return nil
}

// SetForce updates a scene force in place; every emitter bound to it sees
// the change on its next update
func (e *Engine) SetForce(name string, p ForceParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.world.Force(name)
	if !ok {
		return errors.Wrapf(ErrUnknownForce, "%q", name)
	}

	switch f := f.(type) {
	case *sim.GravityForce:
		if p.Vector != nil {
			f.Set(toVec(*p.Vector))
		}
		if p.Magnitude != nil {
			f.SetMagnitude(*p.Magnitude)
		}
	case *sim.TurbulenceForce:
		min, max := f.Min, f.Max
		if p.Min != nil {
			min = toVec(*p.Min)
		}
		if p.Max != nil {
			max = toVec(*p.Max)
		}
		if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
			return errors.Wrapf(ErrInvalidValue, "turbulence min %v exceeds max %v", min, max)
		}
		f.Set(min, max)
	case *sim.RadialImpulseForce:
		strength, height := f.Strength, f.Height
		if p.Strength != nil {
			strength = *p.Strength
		}
		if p.Height != nil {
			height = *p.Height
		}
		f.Set(strength, height)
	case *sim.CyclicForce:
		if p.Axis != nil {
			f.Axis = toVec(*p.Axis)
		}
		if p.Amplitude != nil {
			f.SetMagnitude(*p.Amplitude)
		}
		if p.Frequency != nil {
			f.Frequency = *p.Frequency
		}
	case *sim.ThrustForce:
		if p.Vector != nil {
			f.Set(toVec(*p.Vector))
		}
		if p.Magnitude != nil {
			f.SetMagnitude(*p.Magnitude)
		}
	}

	e.eventLog.EmitSimple(EventTypeCommand, e.tickCount, "api", CommandPayload{Command: "set_force", Target: name})
	return nil
}

// SetCallbacks sets event callbacks. Callbacks run inside the tick and must
// not call back into the engine.
func (e *Engine) SetCallbacks(onHit func(int, sim.Vec3), onPlayerHit func(int, int), onGameOver func(GameOverPayload)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onHit = onHit
	e.onPlayerHit = onPlayerHit
	e.onGameOver = onGameOver
}

// =============================================================================
// QUERIES
// =============================================================================

// GetSnapshot returns the latest immutable snapshot for lock-free rendering.
// The snapshot is reused two ticks later; Clone it to keep it longer, and use
// CopySnapshot from goroutines other than the one stepping the engine.
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshotPool.AcquireRead()
}

// CopySnapshot returns a private copy of the latest snapshot. The copy is
// taken under the read lock, so it is safe while the loop goroutine runs.
func (e *Engine) CopySnapshot() *GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotPool.AcquireRead().Clone()
}

// Emitters lists live emitter state in scene order
func (e *Engine) Emitters() []EmitterSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]EmitterSnapshot, len(e.world.Slots))
	for i, s := range e.world.Slots {
		out[i] = emitterSnapshot(s)
	}
	return out
}

// Emitter returns live state of the named emitter
func (e *Engine) Emitter(name string) (EmitterSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.world.Slot(name)
	if !ok {
		return EmitterSnapshot{}, errors.Wrapf(ErrUnknownEmitter, "%q", name)
	}
	return emitterSnapshot(s), nil
}

// EmitterAt returns the topmost emitter whose marker contains world point
// (x, y). Burst emitters have no marker and are never hit.
func (e *Engine) EmitterAt(x, y float64) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := sim.Vec3{X: x, Y: y}
	for i := len(e.world.Slots) - 1; i >= 0; i-- {
		s := e.world.Slots[i]
		if s.Emitter.Mode == sim.OneShotBurst {
			continue
		}
		if sim.EmitterTriangle.HitTest(s.Emitter.Transform, p) {
			return s.Name, true
		}
	}
	return "", false
}

// SelectNear marks every entity strictly closer than radius to (x, y) as
// selected and clears the rest. Returns how many were selected.
func (e *Engine) SelectNear(x, y, radius float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := sim.Vec3{X: x, Y: y}
	n := 0
	for _, s := range e.world.Slots {
		n += s.Emitter.Collection().Select(p, radius)
	}
	return n
}

// Forces lists scene forces in name order
func (e *Engine) Forces() []ForceInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]ForceInfo, 0, len(e.world.ForceNames()))
	for _, name := range e.world.ForceNames() {
		f, _ := e.world.Force(name)
		out = append(out, ForceInfo{Name: name, Kind: f.Kind().String(), Params: forceParams(f)})
	}
	return out
}

// Stats returns engine counters
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var spawned uint64
	for _, s := range e.world.Slots {
		spawned += s.Emitter.Spawned()
	}

	return EngineStats{
		Tick:       e.tickCount,
		SimTime:    e.clock.Now().Seconds(),
		Running:    e.running,
		TickRate:   e.tickRate,
		Scene:      e.world.Scene.Name,
		Phase:      e.match.Phase.String(),
		Emitters:   len(e.world.Slots),
		Entities:   e.world.EntityCount(),
		Spawned:    spawned,
		Hits:       e.hits,
		PlayerHits: e.playerHits,
		Capped:     e.capped,
		LastTickMs: float64(e.lastTick) / float64(time.Millisecond),
	}
}

// Match returns a copy of the round state
func (e *Engine) Match() Match {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.match
}

// HighScores returns up to n best rounds
func (e *Engine) HighScores(n int) []ScoreEntry {
	if e.scores == nil {
		return []ScoreEntry{}
	}
	return e.scores.Top(n)
}

// RecentEvents returns up to n of the latest logged events
func (e *Engine) RecentEvents(n int) []Event {
	return e.eventLog.Recent(n)
}

// World returns the world configuration the engine runs in
func (e *Engine) World() config.WorldConfig {
	return e.worldCfg
}

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// produceSnapshot copies the current state into the next pool slot.
// Called at the end of each tick with the lock held.
func (e *Engine) produceSnapshot(now time.Duration) {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.RNGSeed = e.rngSeed
	snap.SimTime = now.Seconds()
	snap.Scene = e.world.Scene.Name
	snap.YUp = e.world.Scene.YUp
	snap.Width = e.worldCfg.Width
	snap.Height = e.worldCfg.Height

	max := e.snapshotPool.MaxEntities()
	for _, s := range e.world.Slots {
		snap.Emitters = append(snap.Emitters, emitterSnapshot(s))

		coll := s.Emitter.Collection()
		snap.EntityCount += coll.Len()
		coll.Each(func(_ int, ent *sim.Entity) {
			if len(snap.Entities) >= max {
				return
			}
			color, _ := ent.Visual.(string)
			snap.Entities = append(snap.Entities, EntitySnapshot{
				X:        ent.Position.X,
				Y:        ent.Position.Y,
				Z:        ent.Position.Z,
				Rotation: ent.Rotation,
				Radius:   s.ChildSize,
				Color:    color,
				Alpha:    alpha(ent, now),
				Selected: ent.Selected,
			})
		})
	}

	best := 0
	if e.scores != nil {
		best = e.scores.Best()
	}
	snap.Hud = HudSnapshot{
		Phase:     e.match.Phase.String(),
		Score:     e.match.Score,
		Lives:     e.match.Lives,
		Remaining: e.match.Remaining(now),
		HighScore: best,
		Reason:    e.match.Reason,
	}

	e.snapshotPool.PublishWrite()
}

func emitterSnapshot(s *Slot) EmitterSnapshot {
	em := s.Emitter
	movement := "engine"
	if em.Movement != nil {
		movement = em.Movement.Name()
	}
	return EmitterSnapshot{
		Name:     s.Name,
		Role:     string(s.Role),
		Mode:     em.Mode.String(),
		Movement: movement,
		X:        em.Position.X,
		Y:        em.Position.Y,
		Rotation: em.Rotation,
		Rate:     em.Rate(),
		Running:  em.IsRunning(),
		Count:    em.EntityCount(),
		Spawned:  em.Spawned(),
		Color:    s.Color,
	}
}

func alpha(ent *sim.Entity, now time.Duration) float64 {
	if ent.Lifespan == sim.Immortal {
		return 1
	}
	a := 1 - float64(ent.Age(now))/float64(ent.Lifespan)
	return math.Max(0, math.Min(1, a))
}

func forceParams(f sim.Force) ForceParams {
	var p ForceParams
	switch f := f.(type) {
	case *sim.GravityForce:
		p.Vector = fromVec(f.G)
	case *sim.TurbulenceForce:
		p.Min, p.Max = fromVec(f.Min), fromVec(f.Max)
	case *sim.RadialImpulseForce:
		p.Strength, p.Height = ptr(f.Strength), ptr(f.Height)
	case *sim.CyclicForce:
		p.Axis = fromVec(f.Axis)
		p.Amplitude, p.Frequency = ptr(f.Amplitude), ptr(f.Frequency)
	case *sim.ThrustForce:
		p.Vector = fromVec(f.F)
		p.Magnitude = ptr(f.Magnitude)
	}
	return p
}

func toVec(v [3]float64) sim.Vec3 {
	return sim.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func fromVec(v sim.Vec3) *[3]float64 {
	return &[3]float64{v.X, v.Y, v.Z}
}

func ptr(f float64) *float64 {
	return &f
}
