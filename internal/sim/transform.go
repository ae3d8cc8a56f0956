package sim

import "math"

// InitialHeading is the unrotated facing direction (screen-space up)
var InitialHeading = Vec3{0, -1, 0}

// Transform is position, spin about +Z in degrees, and non-uniform scale.
// Entities and emitters both carry one by value.
type Transform struct {
	Position Vec3
	Rotation float64 // degrees about +Z
	Scale    Vec3
}

// NewTransform returns an identity-scaled transform at pos
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Scale: Vec3{1, 1, 1}}
}

// SetPosition moves the transform
func (t *Transform) SetPosition(p Vec3) {
	t.Position = p
}

// SetRotation sets the spin angle in degrees
func (t *Transform) SetRotation(deg float64) {
	t.Rotation = deg
}

// Heading returns InitialHeading rotated by the current rotation
func (t Transform) Heading() Vec3 {
	return InitialHeading.RotateZ(t.Rotation).Normalize()
}

// Matrix composes translate * rotateZ * scale
func (t Transform) Matrix() Mat4 {
	return TranslateM(t.Position).Mul(RotateZM(t.Rotation)).Mul(ScaleM(t.Scale))
}

// Mat4 is a row-major 4x4 affine matrix
type Mat4 [16]float64

// Identity returns the identity matrix
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TranslateM builds a translation matrix
func TranslateM(p Vec3) Mat4 {
	m := Identity()
	m[3] = p.X
	m[7] = p.Y
	m[11] = p.Z
	return m
}

// RotateZM builds a rotation of deg degrees about +Z
func RotateZM(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	m := Identity()
	m[0], m[1] = c, -s
	m[4], m[5] = s, c
	return m
}

// ScaleM builds a non-uniform scale matrix
func ScaleM(s Vec3) Mat4 {
	m := Identity()
	m[0] = s.X
	m[5] = s.Y
	m[10] = s.Z
	return m
}

// Mul returns m * o
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// MulPoint transforms a point (w = 1)
func (m Mat4) MulPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// InverseMatrix undoes Matrix. Every scale component must be non-zero.
func (t Transform) InverseMatrix() Mat4 {
	inv := Vec3{1 / t.Scale.X, 1 / t.Scale.Y, 1 / t.Scale.Z}
	return ScaleM(inv).Mul(RotateZM(-t.Rotation)).Mul(TranslateM(t.Position.Scale(-1)))
}

// ToLocal maps a world point into the transform's own space
func (t Transform) ToLocal(p Vec3) Vec3 {
	return t.InverseMatrix().MulPoint(p)
}
