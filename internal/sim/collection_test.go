package sim

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func entityAt(x float64, birth, lifespan time.Duration) Entity {
	e := NewEntity(Vec3{x, 0, 0})
	e.Birth = birth
	e.Lifespan = lifespan
	return e
}

// TestLifespanBoundary covers equal, greater and immortal ages
func TestLifespanBoundary(t *testing.T) {
	lifespan := 100 * time.Millisecond

	tests := []struct {
		name     string
		now      time.Duration
		lifespan time.Duration
		kept     bool
	}{
		{"younger than lifespan", 50 * time.Millisecond, lifespan, true},
		{"age equals lifespan", lifespan, lifespan, true},
		{"one nanosecond over", lifespan + 1, lifespan, false},
		{"immortal", 24 * time.Hour, Immortal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection(Physics)
			c.Add(entityAt(0, 0, tt.lifespan))

			removed := c.RemoveExpired(tt.now)

			if tt.kept && (c.Len() != 1 || removed != 0) {
				t.Errorf("Expected entity kept, len=%d removed=%d", c.Len(), removed)
			}
			if !tt.kept && (c.Len() != 0 || removed != 1) {
				t.Errorf("Expected entity removed, len=%d removed=%d", c.Len(), removed)
			}
		})
	}
}

// TestRemoveExpiredMixed checks compaction keeps survivors in spawn order
func TestRemoveExpiredMixed(t *testing.T) {
	c := NewCollection(Physics)
	for i := 0; i < 10; i++ {
		life := 100 * time.Millisecond
		if i%3 == 0 {
			life = time.Second
		}
		c.Add(entityAt(float64(i), 0, life))
	}

	removed := c.RemoveExpired(500 * time.Millisecond)

	if removed != 6 {
		t.Errorf("Expected 6 removed, got %d", removed)
	}
	want := []float64{0, 3, 6, 9}
	if c.Len() != len(want) {
		t.Fatalf("Expected %d survivors, got %d", len(want), c.Len())
	}
	for i, x := range want {
		if c.At(i).Position.X != x {
			t.Errorf("Survivor %d: expected x=%v, got %v", i, x, c.At(i).Position.X)
		}
	}
}

// TestRemoveNear verifies strict distance and the returned count
func TestRemoveNear(t *testing.T) {
	tests := []struct {
		name    string
		xs      []float64
		dist    float64
		removed int
		left    int
	}{
		{"empty collection", nil, 1, 0, 0},
		{"exactly at distance is kept", []float64{1}, 1, 0, 1},
		{"inside is removed", []float64{0.5}, 1, 1, 0},
		{"mixed", []float64{0.5, 1, 2, -0.25}, 1, 2, 2},
		{"adjacent hits are not skipped", []float64{0, 0, 0, 5, 0}, 1, 4, 1},
		{"zero radius removes nothing", []float64{0, 0}, 0, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection(Kinematic)
			for _, x := range tt.xs {
				c.Add(entityAt(x, 0, Immortal))
			}

			n := c.RemoveNear(Vec3{}, tt.dist)

			if n != tt.removed {
				t.Errorf("Expected %d removed, got %d", tt.removed, n)
			}
			if c.Len() != tt.left {
				t.Errorf("Expected %d left, got %d", tt.left, c.Len())
			}
			c.Each(func(_ int, e *Entity) {
				if e.Position.Dist(Vec3{}) < tt.dist {
					t.Errorf("Entity at %+v should have been removed", e.Position)
				}
			})
		})
	}
}

// TestSelectMarksNearby selects within a strict radius and clears the rest
func TestSelectMarksNearby(t *testing.T) {
	c := NewCollection(Kinematic)
	for _, x := range []float64{0, 0.5, 1, 3} {
		c.Add(entityAt(x, 0, Immortal))
	}

	if n := c.Select(Vec3{}, 1); n != 2 {
		t.Errorf("Expected 2 selected, got %d", n)
	}
	want := []bool{true, true, false, false}
	for i, sel := range want {
		if c.At(i).Selected != sel {
			t.Errorf("Entity %d: expected selected=%v, got %v", i, sel, c.At(i).Selected)
		}
	}

	if n := c.Select(Vec3{3, 0, 0}, 0.1); n != 1 {
		t.Errorf("Expected 1 selected after moving, got %d", n)
	}
	if c.At(0).Selected || !c.At(3).Selected {
		t.Error("Expected the old selection cleared and the far entity selected")
	}

	if n := c.Select(Vec3{}, 0); n != 0 {
		t.Errorf("Expected zero radius to clear, got %d selected", n)
	}
}

// TestEmptyCollectionNoops runs every operation on an empty collection
func TestEmptyCollectionNoops(t *testing.T) {
	c := NewCollection(Physics)
	c.AddForce(NewGravityForce(Vec3{0, -9.8, 0}))

	c.Update(time.Second, DefaultStep)
	c.Clear()
	c.Rearm()

	if c.RemoveExpired(time.Hour) != 0 || c.RemoveNear(Vec3{}, 100) != 0 {
		t.Error("Empty collection removals should return 0")
	}
	if len(c.Positions()) != 0 || c.Len() != 0 {
		t.Error("Empty collection should stay empty")
	}
}

// TestUpdateExpiresThenIntegrates verifies both halves of Update
func TestUpdateExpiresThenIntegrates(t *testing.T) {
	c := NewCollection(Physics)
	c.AddForce(NewGravityForce(Vec3{0, 60, 0}))

	alive := entityAt(0, 0, time.Second)
	alive.Damping = 1
	c.Add(alive)
	c.Add(entityAt(1, 0, 10*time.Millisecond))

	c.Update(20*time.Millisecond, 1.0/60.0)

	if c.Len() != 1 {
		t.Fatalf("Expected 1 survivor, got %d", c.Len())
	}
	e := c.At(0)
	if !approx(e.Velocity.Y, 1) {
		t.Errorf("Expected vy=1 after one gravity step, got %f", e.Velocity.Y)
	}
	if !e.Forces.IsZero() {
		t.Error("Forces should be cleared after integration")
	}
}

// TestKinematicCollectionSkipsForces checks sprite-style translation
func TestKinematicCollectionSkipsForces(t *testing.T) {
	c := NewCollection(Kinematic)
	c.AddForce(NewGravityForce(Vec3{0, 1000, 0}))

	e := entityAt(0, 0, Immortal)
	e.Velocity = Vec3{10, 0, 0}
	c.Add(e)

	c.Update(0, 0.5)

	got := c.At(0)
	if !approxVec(got.Position, Vec3{5, 0, 0}) {
		t.Errorf("Expected (5,0,0), got %+v", got.Position)
	}
	if !approxVec(got.Velocity, Vec3{10, 0, 0}) {
		t.Errorf("Kinematic velocity should not change, got %+v", got.Velocity)
	}
}

// TestImpulseFiresOncePerArm checks radial bindings are apply-once
func TestImpulseFiresOncePerArm(t *testing.T) {
	c := NewCollection(Physics)
	c.SetRand(rand.New(rand.NewSource(1)))
	c.AddForce(NewRadialImpulseForce(60, 1))

	e := entityAt(0, 0, Immortal)
	e.Damping = 1
	c.Add(e)

	c.Update(0, 1.0/60.0)
	first := c.At(0).Velocity.Len()
	if math.Abs(first-1) > 1e-9 {
		t.Fatalf("Expected |v|=1 after impulse, got %f", first)
	}

	c.Update(Millis(16), 1.0/60.0)
	if got := c.At(0).Velocity.Len(); math.Abs(got-first) > 1e-9 {
		t.Errorf("Impulse fired twice: |v| %f -> %f", first, got)
	}

	c.Rearm()
	c.Update(Millis(33), 1.0/60.0)
	if got := c.At(0).Velocity.Len(); math.Abs(got-first) < 1e-6 {
		t.Error("Rearm should let the impulse fire again")
	}
}

// TestForceBindingOrder checks a thrust bound last wins
func TestForceBindingOrder(t *testing.T) {
	c := NewCollection(Physics)
	gravity := NewGravityForce(Vec3{0, 100, 0})
	thrust := NewThrustForce(1)
	thrust.Set(Vec3{60, 0, 0})
	c.AddForce(gravity)
	c.AddForce(thrust)

	e := entityAt(0, 0, Immortal)
	e.Damping = 1
	c.Add(e)
	c.Update(0, 1.0/60.0)

	if !approxVec(c.At(0).Velocity, Vec3{1, 0, 0}) {
		t.Errorf("Thrust should overwrite gravity, got %+v", c.At(0).Velocity)
	}

	if !c.RemoveForce(thrust) {
		t.Fatal("RemoveForce should find the bound thrust")
	}
	if c.RemoveForce(thrust) {
		t.Error("Second RemoveForce should report false")
	}
	if fs := c.Forces(); len(fs) != 1 || fs[0] != Force(gravity) {
		t.Errorf("Expected only gravity bound, got %v", fs)
	}
}

// TestCapDropsOldest keeps the newest entities in spawn order
func TestCapDropsOldest(t *testing.T) {
	c := NewCollection(Kinematic)
	for i := 0; i < 5; i++ {
		c.Add(entityAt(float64(i), 0, Immortal))
	}

	if n := c.Cap(0); n != 0 || c.Len() != 5 {
		t.Errorf("Cap(0) should be a no-op, dropped %d", n)
	}
	if n := c.Cap(10); n != 0 {
		t.Errorf("Cap above len should drop nothing, dropped %d", n)
	}
	if n := c.Cap(2); n != 3 {
		t.Errorf("Expected 3 dropped, got %d", n)
	}
	if c.Len() != 2 || c.At(0).Position.X != 3 || c.At(1).Position.X != 4 {
		t.Errorf("Expected entities at x=3,4, got %v", c.Positions())
	}
}
