// Package sim is the entity simulation core: forces, fixed-step integration,
// emitter-controlled spawning, lifespan expiry and proximity pruning.
//
// Everything in this package is synchronous and single-threaded. Callers own
// the tick loop and pass the current simulation time into every Update.
package sim

import "math"

// Vec3 is a 3D vector in world units
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for building a Vec3
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// LenSq avoids the sqrt for comparisons
func (v Vec3) LenSq() float64 {
	return v.Dot(v)
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// Normalize returns the unit vector, or the zero vector for zero input
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	inv := 1.0 / l
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Dist returns the Euclidean distance between two points
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// IsZero reports whether all components are exactly zero
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// RotateZ rotates v by deg degrees about +Z
func (v Vec3) RotateZ(deg float64) Vec3 {
	rad := deg * math.Pi / 180
	s, c := math.Sincos(rad)
	return Vec3{v.X*c - v.Y*s, v.X*s + v.Y*c, v.Z}
}
