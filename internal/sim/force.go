package sim

import (
	"math"
	"math/rand"
	"time"
)

// Step carries the per-step context handed to forces
type Step struct {
	Now  time.Duration // simulation time of this step
	DT   float64       // fixed step in seconds
	Rand *rand.Rand    // nil falls back to the math/rand global source
}

func (s Step) float64() float64 {
	if s.Rand != nil {
		return s.Rand.Float64()
	}
	return rand.Float64()
}

// uniform samples [lo, hi)
func (s Step) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.float64()
}

// ForceKind identifies one of the fixed force variants
type ForceKind uint8

const (
	KindGravity ForceKind = iota
	KindTurbulence
	KindRadialImpulse
	KindCyclic
	KindThrust
)

func (k ForceKind) String() string {
	switch k {
	case KindGravity:
		return "gravity"
	case KindTurbulence:
		return "turbulence"
	case KindRadialImpulse:
		return "radial"
	case KindCyclic:
		return "cyclic"
	case KindThrust:
		return "thrust"
	default:
		return "unknown"
	}
}

// Impulse reports whether forces of this kind fire once per arming
// instead of every step
func (k ForceKind) Impulse() bool {
	return k == KindRadialImpulse
}

// Overwrites reports whether Apply replaces the accumulated force
// instead of adding to it
func (k ForceKind) Overwrites() bool {
	return k == KindThrust
}

// Force contributes to a body's accumulated force for one step.
// Implementations hold no per-entity state, so one instance can be shared by
// every member of a collection (or several collections).
type Force interface {
	Kind() ForceKind
	Apply(k *Kinematics, step Step)
}

// GravityForce adds G*mass every step. G is an acceleration and is used
// verbatim: the engine does not assume which way is down.
type GravityForce struct {
	G Vec3
}

// NewGravityForce creates a gravity force with acceleration g
func NewGravityForce(g Vec3) *GravityForce {
	return &GravityForce{G: g}
}

func (f *GravityForce) Kind() ForceKind { return KindGravity }

func (f *GravityForce) Apply(k *Kinematics, _ Step) {
	k.Forces = k.Forces.Add(f.G.Scale(k.Mass))
}

// Set replaces the acceleration vector
func (f *GravityForce) Set(g Vec3) {
	f.G = g
}

// SetMagnitude points gravity along -Y with magnitude m
func (f *GravityForce) SetMagnitude(m float64) {
	f.G = Vec3{0, -m, 0}
}

// TurbulenceForce adds a fresh random vector each step, every axis drawn
// independently from [Min, Max]. Nothing carries over between steps.
type TurbulenceForce struct {
	Min, Max Vec3
}

// NewTurbulenceForce creates a turbulence force over [min, max]
func NewTurbulenceForce(min, max Vec3) *TurbulenceForce {
	return &TurbulenceForce{Min: min, Max: max}
}

func (f *TurbulenceForce) Kind() ForceKind { return KindTurbulence }

func (f *TurbulenceForce) Apply(k *Kinematics, step Step) {
	k.Forces = k.Forces.Add(Vec3{
		step.uniform(f.Min.X, f.Max.X),
		step.uniform(f.Min.Y, f.Max.Y),
		step.uniform(f.Min.Z, f.Max.Z),
	})
}

// Set replaces both bounds
func (f *TurbulenceForce) Set(min, max Vec3) {
	f.Min, f.Max = min, max
}

// RadialImpulseForce pushes a body outward from its own origin in a random
// direction. Height limits the Y spread of that direction: small values
// flatten the blast into a disc, larger values make it spherical.
type RadialImpulseForce struct {
	Strength float64
	Height   float64
}

// NewRadialImpulseForce creates a radial impulse
func NewRadialImpulseForce(strength, height float64) *RadialImpulseForce {
	return &RadialImpulseForce{Strength: strength, Height: height}
}

func (f *RadialImpulseForce) Kind() ForceKind { return KindRadialImpulse }

func (f *RadialImpulseForce) Apply(k *Kinematics, step Step) {
	dir := Vec3{
		step.uniform(-1, 1),
		step.uniform(-f.Height, f.Height),
		step.uniform(-1, 1),
	}
	k.Forces = k.Forces.Add(dir.Normalize().Scale(f.Strength))
}

// Set updates strength and height together
func (f *RadialImpulseForce) Set(strength, height float64) {
	f.Strength, f.Height = strength, height
}

// SetHeight only changes the vertical spread
func (f *RadialImpulseForce) SetHeight(h float64) {
	f.Height = h
}

// CyclicForce pulses along Axis: Axis * Amplitude * sin(2π * Frequency * t)
type CyclicForce struct {
	Axis      Vec3
	Amplitude float64
	Frequency float64 // Hz
}

// NewCyclicForce creates a pulsing force
func NewCyclicForce(axis Vec3, amplitude, frequency float64) *CyclicForce {
	return &CyclicForce{Axis: axis, Amplitude: amplitude, Frequency: frequency}
}

func (f *CyclicForce) Kind() ForceKind { return KindCyclic }

func (f *CyclicForce) Apply(k *Kinematics, step Step) {
	t := step.Now.Seconds()
	mag := f.Amplitude * math.Sin(2*math.Pi*f.Frequency*t)
	k.Forces = k.Forces.Add(f.Axis.Normalize().Scale(mag))
}

// SetMagnitude changes the amplitude only
func (f *CyclicForce) SetMagnitude(a float64) {
	f.Amplitude = a
}

// ThrustForce replaces whatever force has accumulated with F. It is meant for
// discrete, player-triggered pushes, not ambient forces.
type ThrustForce struct {
	F         Vec3
	Magnitude float64
}

// NewThrustForce creates a thrust with the given magnitude and no direction yet
func NewThrustForce(magnitude float64) *ThrustForce {
	return &ThrustForce{Magnitude: magnitude}
}

func (f *ThrustForce) Kind() ForceKind { return KindThrust }

func (f *ThrustForce) Apply(k *Kinematics, _ Step) {
	k.Forces = f.F
}

// Set replaces the thrust vector
func (f *ThrustForce) Set(v Vec3) {
	f.F = v
}

// SetMagnitude changes the scalar used by Along
func (f *ThrustForce) SetMagnitude(m float64) {
	f.Magnitude = m
}

// Along points the thrust along dir (normalized) at the current magnitude
func (f *ThrustForce) Along(dir Vec3) {
	f.F = dir.Normalize().Scale(f.Magnitude)
}
