package sim

import (
	"math/rand"
	"time"
)

// Mode selects how a collection advances its entities
type Mode uint8

const (
	// Physics applies bound forces and runs the full integrator
	Physics Mode = iota
	// Kinematic only translates by velocity: no forces, no damping
	Kinematic
)

func (m Mode) String() string {
	if m == Kinematic {
		return "kinematic"
	}
	return "physics"
}

// binding attaches a force to a collection. Impulse bindings fire on the
// first update after they are armed and then stay quiet until Rearm.
type binding struct {
	force Force
	once  bool
	fired bool
}

// Collection owns an ordered set of entities and the forces acting on them.
// Order is spawn order and only matters for iteration.
type Collection struct {
	entities []Entity
	forces   []binding
	mode     Mode
	rng      *rand.Rand
}

// NewCollection creates an empty collection
func NewCollection(mode Mode) *Collection {
	return &Collection{
		entities: make([]Entity, 0, 64),
		mode:     mode,
	}
}

// Mode returns the integration mode
func (c *Collection) Mode() Mode {
	return c.mode
}

// SetRand sets the random source handed to forces. Nil uses math/rand.
func (c *Collection) SetRand(r *rand.Rand) {
	c.rng = r
}

// Add appends an entity in spawn order
func (c *Collection) Add(e Entity) {
	c.entities = append(c.entities, e)
}

// Len returns the number of live entities
func (c *Collection) Len() int {
	return len(c.entities)
}

// At returns a pointer to the i-th entity. The pointer is invalidated by any
// removal or Add.
func (c *Collection) At(i int) *Entity {
	return &c.entities[i]
}

// Each calls fn for every entity in spawn order. fn must not add or remove.
func (c *Collection) Each(fn func(i int, e *Entity)) {
	for i := range c.entities {
		fn(i, &c.entities[i])
	}
}

// Positions returns a copy of every entity position
func (c *Collection) Positions() []Vec3 {
	out := make([]Vec3, len(c.entities))
	for i := range c.entities {
		out[i] = c.entities[i].Position
	}
	return out
}

// Snapshot copies the entities into dst (reusing its capacity) and returns it
func (c *Collection) Snapshot(dst []Entity) []Entity {
	return append(dst[:0], c.entities...)
}

// Clear drops every entity. Bound forces stay.
func (c *Collection) Clear() {
	// drop visual handles so the renderer's templates can be collected
	for i := range c.entities {
		c.entities[i] = Entity{}
	}
	c.entities = c.entities[:0]
}

// AddForce binds f to every member. Impulse kinds are bound apply-once.
func (c *Collection) AddForce(f Force) {
	c.forces = append(c.forces, binding{force: f, once: f.Kind().Impulse()})
}

// AddImpulse binds f apply-once regardless of its kind
func (c *Collection) AddImpulse(f Force) {
	c.forces = append(c.forces, binding{force: f, once: true})
}

// RemoveForce unbinds f, reporting whether it was bound
func (c *Collection) RemoveForce(f Force) bool {
	for i := range c.forces {
		if c.forces[i].force == f {
			c.forces = append(c.forces[:i], c.forces[i+1:]...)
			return true
		}
	}
	return false
}

// Forces lists the bound forces in application order
func (c *Collection) Forces() []Force {
	out := make([]Force, len(c.forces))
	for i, b := range c.forces {
		out[i] = b.force
	}
	return out
}

// Rearm lets apply-once bindings fire again on the next update
func (c *Collection) Rearm() {
	for i := range c.forces {
		c.forces[i].fired = false
	}
}

// RemoveExpired drops every mortal entity older than its lifespan and returns
// how many were removed. An entity whose age equals its lifespan survives.
func (c *Collection) RemoveExpired(now time.Duration) int {
	return c.removeIf(func(e *Entity) bool {
		return e.Expired(now)
	})
}

// RemoveNear drops every entity strictly closer than dist to p and returns
// the count. Entities exactly dist away are kept.
func (c *Collection) RemoveNear(p Vec3, dist float64) int {
	return c.removeIf(func(e *Entity) bool {
		return e.Position.Dist(p) < dist
	})
}

// Select marks every entity strictly closer than dist to p as selected,
// clears the rest, and returns how many are selected. dist <= 0 clears all.
func (c *Collection) Select(p Vec3, dist float64) int {
	n := 0
	for i := range c.entities {
		e := &c.entities[i]
		e.Selected = e.Position.Dist(p) < dist
		if e.Selected {
			n++
		}
	}
	return n
}

// Cap drops the oldest entities until at most max remain and returns how
// many were dropped. max <= 0 means no cap.
func (c *Collection) Cap(max int) int {
	over := len(c.entities) - max
	if max <= 0 || over <= 0 {
		return 0
	}
	n := copy(c.entities, c.entities[over:])
	for i := n; i < len(c.entities); i++ {
		c.entities[i] = Entity{}
	}
	c.entities = c.entities[:n]
	return over
}

// Update ages out expired entities, then applies forces and integrates every
// survivor by dt seconds. Bound forces are applied in binding order, so a
// thrust bound last wins over everything before it.
func (c *Collection) Update(now time.Duration, dt float64) {
	c.RemoveExpired(now)

	if c.mode == Kinematic {
		for i := range c.entities {
			e := &c.entities[i]
			Translate(&e.Transform, &e.Kinematics, dt)
		}
		return
	}

	step := Step{Now: now, DT: dt, Rand: c.rng}
	for i := range c.entities {
		e := &c.entities[i]
		for j := range c.forces {
			b := &c.forces[j]
			if b.once && b.fired {
				continue
			}
			b.force.Apply(&e.Kinematics, step)
		}
		Integrate(&e.Transform, &e.Kinematics, dt)
	}

	// an impulse is spent once it reached a non-empty collection
	if len(c.entities) > 0 {
		for j := range c.forces {
			if c.forces[j].once {
				c.forces[j].fired = true
			}
		}
	}
}

// removeIf compacts the slice in place, keeping entities for which drop is
// false. Each element is visited exactly once.
func (c *Collection) removeIf(drop func(e *Entity) bool) int {
	kept := 0
	for i := range c.entities {
		if drop(&c.entities[i]) {
			continue
		}
		if kept != i {
			c.entities[kept] = c.entities[i]
		}
		kept++
	}
	removed := len(c.entities) - kept
	for i := kept; i < len(c.entities); i++ {
		c.entities[i] = Entity{}
	}
	c.entities = c.entities[:kept]
	return removed
}

// removeIndices drops the entities at the given sorted, distinct indices
func (c *Collection) removeIndices(idx []int) int {
	if len(idx) == 0 {
		return 0
	}
	next := 0
	i := -1
	return c.removeIf(func(*Entity) bool {
		i++
		if next < len(idx) && idx[next] == i {
			next++
			return true
		}
		return false
	})
}
