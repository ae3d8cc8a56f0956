package sim

import "math"

// Movement advances an emitter's own transform once per running update.
// Policies carry their own phase, so each emitter needs its own instance.
type Movement interface {
	Name() string
	Advance(t *Transform, body *Kinematics, dt float64)
}

// Stationary never moves
type Stationary struct{}

func (Stationary) Name() string { return "stationary" }
func (Stationary) Advance(*Transform, *Kinematics, float64) {}

// LinearPatrol walks along X at Speed units/s and turns around once the
// position crosses Min or Max.
type LinearPatrol struct {
	Speed    float64
	Min, Max float64
	Left     bool // current direction
}

// NewLinearPatrol patrols [min, max] starting in the given direction
func NewLinearPatrol(speed, min, max float64, left bool) *LinearPatrol {
	return &LinearPatrol{Speed: speed, Min: min, Max: max, Left: left}
}

func (p *LinearPatrol) Name() string { return "linear" }

func (p *LinearPatrol) Advance(t *Transform, _ *Kinematics, dt float64) {
	t.Position.X += p.step(dt)
	p.bounce(t.Position.X)
}

func (p *LinearPatrol) step(dt float64) float64 {
	if p.Left {
		return -p.Speed * dt
	}
	return p.Speed * dt
}

func (p *LinearPatrol) bounce(x float64) {
	switch {
	case x < p.Min:
		p.Left = false
	case x > p.Max:
		p.Left = true
	}
}

// CircularOrbit moves Speed units/s along a direction that turns Rate
// degrees per second, tracing a circle of radius Speed/Rate(rad).
type CircularOrbit struct {
	Speed float64
	Rate  float64 // degrees per second
	Theta float64 // degrees
}

// NewCircularOrbit creates an orbit starting at angle 0
func NewCircularOrbit(speed, rate float64) *CircularOrbit {
	return &CircularOrbit{Speed: speed, Rate: rate}
}

func (o *CircularOrbit) Name() string { return "circular" }

func (o *CircularOrbit) Advance(t *Transform, _ *Kinematics, dt float64) {
	s, c := math.Sincos(o.Theta * math.Pi / 180)
	t.Position.X += c * o.Speed * dt
	t.Position.Y += s * o.Speed * dt
	o.Theta = math.Mod(o.Theta+o.Rate*dt, 360)
}

// SineDrift patrols like LinearPatrol while bobbing along Y with a sine
type SineDrift struct {
	LinearPatrol
	Amplitude float64 // peak Y speed, units/s
	Rate      float64 // degrees per second
	Phase     float64 // degrees
}

// NewSineDrift creates a drifting patrol over [min, max]
func NewSineDrift(speed, min, max, amplitude, rate float64) *SineDrift {
	return &SineDrift{
		LinearPatrol: LinearPatrol{Speed: speed, Min: min, Max: max},
		Amplitude:    amplitude,
		Rate:         rate,
	}
}

func (d *SineDrift) Name() string { return "sine" }

func (d *SineDrift) Advance(t *Transform, body *Kinematics, dt float64) {
	t.Position.Y += math.Sin(d.Phase*math.Pi/180) * d.Amplitude * dt
	d.Phase = math.Mod(d.Phase+d.Rate*dt, 360)
	d.LinearPatrol.Advance(t, body, dt)
}

// Dynamic integrates the emitter's body, so forces applied through
// Emitter.ApplyForce (thrust, gravity) move the emitter itself.
type Dynamic struct{}

func (Dynamic) Name() string { return "dynamic" }

func (Dynamic) Advance(t *Transform, body *Kinematics, dt float64) {
	Integrate(t, body, dt)
}
