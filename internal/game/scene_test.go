package game

import (
	"math/rand"
	"testing"

	"emitter-arena/internal/config"
	"emitter-arena/internal/sim"
)

// TestBuildShooterWorld checks roles, movement policies and templates
func TestBuildShooterWorld(t *testing.T) {
	w, err := BuildWorld(builtin(t, "shooter"), sim.DefaultStep, 5000, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	if w.Player() == nil || w.Player().Name != "gun" {
		t.Fatal("Expected gun as player")
	}
	if w.Effect() == nil || w.Effect().Emitter.Mode != sim.OneShotBurst {
		t.Fatal("Expected a burst effect emitter")
	}
	if len(w.Enemies()) != 4 || len(w.EnemyCollections()) != 4 {
		t.Fatalf("Expected 4 enemies, got %d", len(w.Enemies()))
	}

	movements := map[string]string{
		"patrol-left":  "linear",
		"patrol-right": "linear",
		"orbiter":      "circular",
		"drifter":      "sine",
		"gun":          "stationary",
	}
	for name, want := range movements {
		s, ok := w.Slot(name)
		if !ok {
			t.Fatalf("Missing slot %s", name)
		}
		if got := s.Emitter.Movement.Name(); got != want {
			t.Errorf("%s: expected %s movement, got %s", name, want, got)
		}
	}

	gun := w.Player().Emitter
	if !gun.Template.AlignHeading || gun.Template.Velocity != (sim.Vec3{X: 0, Y: -400, Z: 0}) {
		t.Errorf("Unexpected gun template %+v", gun.Template)
	}
	if gun.Template.Visual != "#81d4fa" || gun.Visual != "#4fc3f7" {
		t.Errorf("Expected color handles, got %v / %v", gun.Template.Visual, gun.Visual)
	}
	if gun.Collection().Mode() != sim.Kinematic {
		t.Error("Shots should use a kinematic collection")
	}

	patrol, _ := w.Slot("patrol-left")
	if !patrol.RandomRate() {
		t.Error("Enemies with a rate range should re-roll their rate")
	}
	if w.Effect().Emitter.Collection().Mode() != sim.Physics {
		t.Error("Explosion sparks should use physics")
	}
}

// TestBuildWorldSharesForces binds one force instance to every emitter naming it
func TestBuildWorldSharesForces(t *testing.T) {
	w, err := BuildWorld(builtin(t, "particles"), sim.DefaultStep, 5000, nil)
	if err != nil {
		t.Fatal(err)
	}

	gravity, ok := w.Force("gravity")
	if !ok {
		t.Fatal("Missing gravity force")
	}
	bound := 0
	for _, s := range w.Slots {
		for _, f := range s.Emitter.Collection().Forces() {
			if f == gravity {
				bound++
			}
		}
	}
	if bound != 3 {
		t.Errorf("Expected gravity bound to 3 emitters, got %d", bound)
	}

	want := []string{"blast", "gravity", "pulse", "ring", "soft-turbulence", "turbulence"}
	got := w.ForceNames()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Force %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if w.Player() != nil || len(w.Enemies()) != 0 {
		t.Error("Particle scene has no player or enemies")
	}
}

// TestBuildWorldCapsBurst clamps burst sizes to the configured limit
func TestBuildWorldCapsBurst(t *testing.T) {
	w, err := BuildWorld(builtin(t, "particles"), sim.DefaultStep, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := w.Slot("sphere-burst")
	if s.Emitter.BurstSize() != 100 {
		t.Errorf("Expected burst capped at 100, got %d", s.Emitter.BurstSize())
	}
}

// TestLifespanConversion maps -1 to immortal and ms to durations
func TestLifespanConversion(t *testing.T) {
	if lifespan(-1) != sim.Immortal {
		t.Error("Expected -1 to map to Immortal")
	}
	if lifespan(2500) != sim.Millis(2500) {
		t.Errorf("Expected 2.5s, got %v", lifespan(2500))
	}
	if _, err := newMovement(config.MovementSpec{Kind: "teleport"}); err == nil {
		t.Error("Expected error for unknown movement")
	}
}
