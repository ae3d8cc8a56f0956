package sim

import "time"

// Immortal marks an entity that never ages out
const Immortal time.Duration = -1

// DefaultStep is the conventional fixed simulation step (60 Hz)
const DefaultStep = 1.0 / 60.0

// Handle is an opaque visual or audio template owned by a renderer.
// The core never looks inside it.
type Handle any

// Kinematics is the physical state integrated each step.
// Mass must be > 0 and Damping in (0,1]; neither is checked here.
type Kinematics struct {
	Velocity        Vec3
	AngularVelocity float64 // degrees per second
	Forces          Vec3    // accumulated for the current step, cleared by Integrate
	Mass            float64
	Damping         float64
}

// DefaultKinematics is a unit mass with light drag
func DefaultKinematics() Kinematics {
	return Kinematics{Mass: 1, Damping: 0.99}
}

// Entity is one simulated point (particle, bullet, enemy shot)
type Entity struct {
	Transform
	Kinematics

	Lifespan time.Duration // Immortal or > 0
	Birth    time.Duration // simulation time at spawn
	Selected bool
	Visual   Handle
}

// NewEntity creates an immortal entity at pos with default kinematics
func NewEntity(pos Vec3) Entity {
	return Entity{
		Transform:  NewTransform(pos),
		Kinematics: DefaultKinematics(),
		Lifespan:   Immortal,
	}
}

// Age returns now - Birth, never negative
func (e *Entity) Age(now time.Duration) time.Duration {
	age := now - e.Birth
	if age < 0 {
		return 0
	}
	return age
}

// Expired reports whether the entity has outlived its lifespan.
// An age exactly equal to the lifespan is still alive.
func (e *Entity) Expired(now time.Duration) bool {
	return e.Lifespan != Immortal && e.Age(now) > e.Lifespan
}

// HasVisual reports whether a visual handle is attached
func (e *Entity) HasVisual() bool {
	return e.Visual != nil
}
