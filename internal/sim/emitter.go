package sim

import (
	"math"
	"math/rand"
	"time"
)

// State is the emitter run state
type State uint8

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// SpawnMode selects periodic or one-shot emission
type SpawnMode uint8

const (
	// Continuous spawns one entity every 1/Rate seconds
	Continuous SpawnMode = iota
	// OneShotBurst spawns BurstSize entities once per Start or Reset
	OneShotBurst
)

func (m SpawnMode) String() string {
	if m == OneShotBurst {
		return "burst"
	}
	return "continuous"
}

// Template holds the values copied into every spawned entity
type Template struct {
	Velocity Vec3
	Lifespan time.Duration // Immortal or > 0
	Mass     float64
	Damping  float64
	Visual   Handle

	// AlignHeading rotates Velocity by the emitter rotation, so a turret
	// fires where it points
	AlignHeading bool
	// SpeedJitter scales burst speeds by (1 - SpeedJitter*U[0,1))
	SpeedJitter float64
	// Planar keeps burst directions in the XY plane
	Planar bool
}

// EmitterConfig configures a new emitter
type EmitterConfig struct {
	Name       string
	Position   Vec3
	Rotation   float64
	Mode       SpawnMode
	Rate       float64 // spawns per second, > 0
	BurstSize  int     // >= 1
	Template   Template
	Collection Mode
	Movement   Movement
	DT         float64 // fixed step, defaults to DefaultStep

	// DrainWhenStopped keeps aging and integrating already spawned entities
	// while the emitter is stopped
	DrainWhenStopped bool
}

// DefaultEmitterConfig mirrors a plain sprite gun: one shot per second,
// moving down at 100 units/s, living three seconds.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		Mode:      Continuous,
		Rate:      1,
		BurstSize: 1,
		Template: Template{
			Velocity: Vec3{0, 100, 0},
			Lifespan: 3 * time.Second,
			Mass:     1,
			Damping:  0.99,
		},
		Collection: Kinematic,
		DT:         DefaultStep,
	}
}

// Emitter is a positioned spawn controller that owns one collection
type Emitter struct {
	Transform
	Name string

	// Body is the emitter's own physical state, used by the Dynamic
	// movement policy and by Integrate
	Body     Kinematics
	Movement Movement
	Template Template
	Mode     SpawnMode
	Visual   Handle
	DT       float64

	DrainWhenStopped bool

	rate       float64
	burstSize  int
	coll       *Collection
	state      State
	lastSpawn  time.Duration
	burstFired bool
	spawned    uint64
	rng        *rand.Rand
}

// NewEmitter creates a stopped emitter and its collection
func NewEmitter(cfg EmitterConfig) *Emitter {
	if cfg.DT <= 0 {
		cfg.DT = DefaultStep
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	if cfg.Template.Mass == 0 {
		cfg.Template.Mass = 1
	}
	if cfg.Template.Damping == 0 {
		cfg.Template.Damping = 1
	}
	if cfg.Template.Lifespan == 0 {
		cfg.Template.Lifespan = Immortal
	}

	t := NewTransform(cfg.Position)
	t.Rotation = cfg.Rotation

	return &Emitter{
		Transform:        t,
		Name:             cfg.Name,
		Body:             DefaultKinematics(),
		Movement:         cfg.Movement,
		Template:         cfg.Template,
		Mode:             cfg.Mode,
		DT:               cfg.DT,
		DrainWhenStopped: cfg.DrainWhenStopped,
		rate:             cfg.Rate,
		burstSize:        cfg.BurstSize,
		coll:             NewCollection(cfg.Collection),
	}
}

// Collection exposes the owned collection for forces and collision queries
func (e *Emitter) Collection() *Collection {
	return e.coll
}

// SetRand makes spawning and forces deterministic
func (e *Emitter) SetRand(r *rand.Rand) {
	e.rng = r
	e.coll.SetRand(r)
}

// Start enters Running and restarts the spawn clock at now. A burst emitter
// fires again on the next update.
func (e *Emitter) Start(now time.Duration) {
	e.state = Running
	e.lastSpawn = now
	e.burstFired = false
	e.coll.Rearm()
}

// Stop enters Stopped. Spawned entities stay in the collection.
func (e *Emitter) Stop() {
	e.state = Stopped
}

// Reset clears the collection and re-arms the burst and impulse forces.
// The run state is unchanged.
func (e *Emitter) Reset() {
	e.coll.Clear()
	e.coll.Rearm()
	e.burstFired = false
}

// IsRunning reports whether the emitter is in the Running state
func (e *Emitter) IsRunning() bool {
	return e.state == Running
}

// State returns the current run state
func (e *Emitter) State() State {
	return e.state
}

// EntityCount returns how many entities the emitter currently owns
func (e *Emitter) EntityCount() int {
	return e.coll.Len()
}

// Spawned returns the total number of entities ever spawned
func (e *Emitter) Spawned() uint64 {
	return e.spawned
}

// LastSpawn returns the time of the most recent periodic spawn
func (e *Emitter) LastSpawn() time.Duration {
	return e.lastSpawn
}

// Rate returns spawns per second
func (e *Emitter) Rate() float64 {
	return e.rate
}

// SetRate changes spawns per second. rate must be > 0.
func (e *Emitter) SetRate(rate float64) {
	e.rate = rate
}

// BurstSize returns the number of entities spawned per burst
func (e *Emitter) BurstSize() int {
	return e.burstSize
}

// SetBurstSize changes the burst size. n must be >= 1.
func (e *Emitter) SetBurstSize(n int) {
	e.burstSize = n
}

// SetLifespan changes the lifespan given to future spawns
func (e *Emitter) SetLifespan(d time.Duration) {
	e.Template.Lifespan = d
}

// SetVelocity changes the velocity given to future spawns
func (e *Emitter) SetVelocity(v Vec3) {
	e.Template.Velocity = v
}

// SetVisual sets the emitter's own visual handle
func (e *Emitter) SetVisual(h Handle) {
	e.Visual = h
}

// SetChildVisual sets the visual handle copied into spawned entities
func (e *Emitter) SetChildVisual(h Handle) {
	e.Template.Visual = h
}

// AddForce binds a force to the owned collection
func (e *Emitter) AddForce(f Force) {
	e.coll.AddForce(f)
}

// ApplyForce applies f to the emitter body. The next Integrate (or Dynamic
// movement step) consumes it.
func (e *Emitter) ApplyForce(f Force, step Step) {
	if step.Rand == nil {
		step.Rand = e.rng
	}
	f.Apply(&e.Body, step)
}

// Integrate advances the emitter body by one fixed step
func (e *Emitter) Integrate() {
	Integrate(&e.Transform, &e.Body, e.DT)
}

// Interval is the time between periodic spawns
func (e *Emitter) Interval() time.Duration {
	return time.Duration(float64(time.Second) / e.rate)
}

// Update runs one tick at simulation time now: spawn, move, then advance the
// collection. At most one periodic spawn happens per call no matter how much
// time has passed.
func (e *Emitter) Update(now time.Duration) {
	if e.state == Stopped {
		if e.DrainWhenStopped {
			e.coll.Update(now, e.DT)
		}
		return
	}

	switch e.Mode {
	case Continuous:
		if now-e.lastSpawn >= e.Interval() {
			e.Shoot(now)
		}
	case OneShotBurst:
		if !e.burstFired {
			e.burst(now)
			e.burstFired = true
		}
	}

	if e.Movement != nil {
		e.Movement.Advance(&e.Transform, &e.Body, e.DT)
	}

	e.coll.Update(now, e.DT)
}

// Shoot spawns one entity from the template right away
func (e *Emitter) Shoot(now time.Duration) {
	v := e.Template.Velocity
	if e.Template.AlignHeading {
		v = v.RotateZ(e.Rotation)
	}
	e.coll.Add(e.spawn(now, v))
	e.lastSpawn = now
}

// burst spawns burstSize entities with random directions and speeds
func (e *Emitter) burst(now time.Duration) {
	speed := e.Template.Velocity.Len()
	for i := 0; i < e.burstSize; i++ {
		dir := e.randomDirection()
		s := speed * (1 - e.Template.SpeedJitter*e.float64())
		e.coll.Add(e.spawn(now, dir.Scale(s)))
	}
}

func (e *Emitter) spawn(now time.Duration, v Vec3) Entity {
	ent := Entity{
		Transform: NewTransform(e.Position),
		Kinematics: Kinematics{
			Velocity: v,
			Mass:     e.Template.Mass,
			Damping:  e.Template.Damping,
		},
		Lifespan: e.Template.Lifespan,
		Birth:    now,
		Visual:   e.Template.Visual,
	}
	ent.Rotation = e.Rotation
	e.spawned++
	return ent
}

func (e *Emitter) randomDirection() Vec3 {
	if e.Template.Planar {
		s, c := math.Sincos(2 * math.Pi * e.float64())
		return Vec3{c, s, 0}
	}
	for {
		v := Vec3{2*e.float64() - 1, 2*e.float64() - 1, 2*e.float64() - 1}
		if l := v.LenSq(); l > 1e-9 && l <= 1 {
			return v.Normalize()
		}
	}
}

func (e *Emitter) float64() float64 {
	if e.rng != nil {
		return e.rng.Float64()
	}
	return rand.Float64()
}
