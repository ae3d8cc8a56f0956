package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"

	"emitter-arena/internal/config"
	"emitter-arena/internal/sim"
)

// Role is what an emitter does in a scene
type Role string

const (
	RolePlayer  Role = "player"  // steered gun, fires on command
	RoleEnemy   Role = "enemy"   // runs while a round is playing
	RoleEffect  Role = "effect"  // burst replayed at hit points
	RoleAmbient Role = "ambient" // free-running, bursts replay on a period
)

// Slot is one scene emitter plus the presentation and scheduling data the
// simulation core does not know about
type Slot struct {
	Name    string
	Role    Role
	Emitter *sim.Emitter

	Color      string
	ChildColor string
	ChildSize  float64
	Autostart  bool
	Forces     []string

	rateMin, rateMax float64
	replay           time.Duration
	lastReplay       time.Duration
}

// RandomRate reports whether the spawn rate is re-rolled every tick
func (s *Slot) RandomRate() bool {
	return s.rateMax > 0
}

// World is a scene instantiated into live emitters and forces
type World struct {
	Scene *config.Scene
	Slots []*Slot

	byName     map[string]*Slot
	forces     map[string]sim.Force
	forceNames []string

	player  *Slot
	effect  *Slot
	enemies []*Slot
}

// BuildWorld turns a validated scene into emitters. dt is the fixed step
// handed to every emitter and maxBurst caps burst sizes.
func BuildWorld(scene *config.Scene, dt float64, maxBurst int, rng *rand.Rand) (*World, error) {
	w := &World{
		Scene:  scene,
		byName: make(map[string]*Slot, len(scene.Emitters)),
		forces: make(map[string]sim.Force, len(scene.Forces)),
	}

	for _, spec := range scene.Forces {
		f, err := newForce(spec)
		if err != nil {
			return nil, err
		}
		w.forces[spec.Name] = f
		w.forceNames = append(w.forceNames, spec.Name)
	}
	sort.Strings(w.forceNames)

	for i := range scene.Emitters {
		spec := &scene.Emitters[i]
		slot, err := w.newSlot(spec, dt, maxBurst)
		if err != nil {
			return nil, errors.Wrapf(err, "emitter %q", spec.Name)
		}
		slot.Emitter.SetRand(rng)

		w.Slots = append(w.Slots, slot)
		w.byName[slot.Name] = slot
		switch slot.Role {
		case RolePlayer:
			w.player = slot
		case RoleEffect:
			if w.effect == nil {
				w.effect = slot
			}
		case RoleEnemy:
			w.enemies = append(w.enemies, slot)
		}
	}

	return w, nil
}

// Slot returns the named emitter slot
func (w *World) Slot(name string) (*Slot, bool) {
	s, ok := w.byName[name]
	return s, ok
}

// Force returns the named force
func (w *World) Force(name string) (sim.Force, bool) {
	f, ok := w.forces[name]
	return f, ok
}

// ForceNames lists the scene forces in name order
func (w *World) ForceNames() []string {
	return w.forceNames
}

// Player returns the player slot or nil
func (w *World) Player() *Slot { return w.player }

// Effect returns the hit effect slot or nil
func (w *World) Effect() *Slot { return w.effect }

// Enemies returns the enemy slots in scene order
func (w *World) Enemies() []*Slot { return w.enemies }

// EnemyCollections returns the enemy shot collections in scene order
func (w *World) EnemyCollections() []*sim.Collection {
	out := make([]*sim.Collection, len(w.enemies))
	for i, s := range w.enemies {
		out[i] = s.Emitter.Collection()
	}
	return out
}

// EntityCount sums the live entities of every emitter
func (w *World) EntityCount() int {
	n := 0
	for _, s := range w.Slots {
		n += s.Emitter.EntityCount()
	}
	return n
}

func (w *World) newSlot(spec *config.EmitterSpec, dt float64, maxBurst int) (*Slot, error) {
	cfg := sim.DefaultEmitterConfig()
	cfg.Name = spec.Name
	cfg.Position = vec(spec.Position)
	cfg.Rotation = spec.Rotation
	cfg.Rate = spec.Rate
	cfg.DT = dt
	cfg.DrainWhenStopped = spec.Drain

	if spec.Mode == "burst" {
		cfg.Mode = sim.OneShotBurst
		cfg.BurstSize = spec.BurstSize
		if maxBurst > 0 && cfg.BurstSize > maxBurst {
			cfg.BurstSize = maxBurst
		}
		if cfg.Rate <= 0 {
			cfg.Rate = 1
		}
	}
	if spec.Physics {
		cfg.Collection = sim.Physics
	}

	cfg.Template = sim.Template{
		Velocity:     vec(spec.Velocity),
		Lifespan:     lifespan(spec.LifespanMS),
		Mass:         spec.Mass,
		Damping:      spec.Damping,
		Visual:       spec.ChildColor,
		AlignHeading: spec.AlignHeading,
		SpeedJitter:  spec.SpeedJitter,
		Planar:       spec.Planar,
	}

	m, err := newMovement(spec.Movement)
	if err != nil {
		return nil, err
	}
	cfg.Movement = m

	e := sim.NewEmitter(cfg)
	e.SetVisual(spec.Color)
	for _, name := range spec.Forces {
		f, ok := w.forces[name]
		if !ok {
			return nil, errors.Errorf("unknown force %q", name)
		}
		e.AddForce(f)
	}

	role := Role(spec.Role)
	if role == "" {
		role = RoleAmbient
	}

	return &Slot{
		Name:       spec.Name,
		Role:       role,
		Emitter:    e,
		Color:      spec.Color,
		ChildColor: spec.ChildColor,
		ChildSize:  spec.ChildSize,
		Autostart:  spec.Autostart,
		Forces:     spec.Forces,
		rateMin:    spec.RateMin,
		rateMax:    spec.RateMax,
		replay:     sim.Millis(spec.ReplayMS),
	}, nil
}

func newForce(spec config.ForceSpec) (sim.Force, error) {
	switch spec.Kind {
	case "gravity":
		return sim.NewGravityForce(vec(spec.Vector)), nil
	case "turbulence":
		return sim.NewTurbulenceForce(vec(spec.Min), vec(spec.Max)), nil
	case "radial":
		return sim.NewRadialImpulseForce(spec.Strength, spec.Height), nil
	case "cyclic":
		return sim.NewCyclicForce(vec(spec.Axis), spec.Amplitude, spec.Frequency), nil
	case "thrust":
		f := sim.NewThrustForce(spec.Magnitude)
		f.Set(vec(spec.Vector))
		return f, nil
	}
	return nil, errors.Errorf("force %q: unknown kind %q", spec.Name, spec.Kind)
}

func newMovement(spec config.MovementSpec) (sim.Movement, error) {
	switch spec.Kind {
	case "", "stationary":
		return sim.Stationary{}, nil
	case "linear":
		return sim.NewLinearPatrol(spec.Speed, spec.Min, spec.Max, spec.Left), nil
	case "circular":
		return sim.NewCircularOrbit(spec.Speed, spec.Rate), nil
	case "sine":
		return sim.NewSineDrift(spec.Speed, spec.Min, spec.Max, spec.Amplitude, spec.Rate), nil
	case "dynamic":
		return sim.Dynamic{}, nil
	}
	return nil, errors.Errorf("unknown movement %q", spec.Kind)
}

func vec(v config.Vec) sim.Vec3 {
	return sim.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func lifespan(ms float64) time.Duration {
	if ms < 0 {
		return sim.Immortal
	}
	return sim.Millis(ms)
}
