package sim

// Integrate advances one body by a fixed step of dt seconds.
//
// Velocity picks up the accumulated force first, position then moves with the
// new velocity, and damping is applied last so it compounds once per step.
// Forces are cleared for the next step. Mass <= 0 is a caller bug.
func Integrate(t *Transform, k *Kinematics, dt float64) {
	accel := k.Forces.Scale(1.0 / k.Mass)
	k.Velocity = k.Velocity.Add(accel.Scale(dt))
	t.Position = t.Position.Add(k.Velocity.Scale(dt))
	t.Rotation += k.AngularVelocity * dt

	k.Velocity = k.Velocity.Scale(k.Damping)
	k.AngularVelocity *= k.Damping

	k.Forces = Vec3{}
}

// Translate moves a body by its velocity without forces or damping.
// Used by kinematic collections (simple sprites).
func Translate(t *Transform, k *Kinematics, dt float64) {
	t.Position = t.Position.Add(k.Velocity.Scale(dt))
	t.Rotation += k.AngularVelocity * dt
	k.Forces = Vec3{}
}

// Integrate advances the entity by one physics step
func (e *Entity) Integrate(dt float64) {
	Integrate(&e.Transform, &e.Kinematics, dt)
}
