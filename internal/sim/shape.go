package sim

// Triangle is a shape in local space. It is placed, drawn and hit-tested
// through a Transform; only X and Y take part in containment.
type Triangle [3]Vec3

// EmitterTriangle is the emitter marker, tip along InitialHeading
var EmitterTriangle = Triangle{{0, -10, 0}, {7, 7, 0}, {-7, 7, 0}}

// World returns the vertices placed by t
func (tr Triangle) World(t Transform) Triangle {
	m := t.Matrix()
	for i := range tr {
		tr[i] = m.MulPoint(tr[i])
	}
	return tr
}

// Contains reports whether local point p is inside the triangle, edges included
func (tr Triangle) Contains(p Vec3) bool {
	d1 := edgeSide(p, tr[0], tr[1])
	d2 := edgeSide(p, tr[1], tr[2])
	d3 := edgeSide(p, tr[2], tr[0])
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// HitTest reports whether world point p falls inside the triangle placed by t
func (tr Triangle) HitTest(t Transform, p Vec3) bool {
	return tr.Contains(t.ToLocal(p))
}

func edgeSide(p, a, b Vec3) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}
