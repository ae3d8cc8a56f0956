package game

import (
	"testing"
	"time"

	"emitter-arena/internal/config"
)

func shooterRules() config.Rules {
	return config.Rules{HitRadius: 24, RoundSeconds: 120, Lives: 100, LifePenalty: 7}
}

// TestMatchCheck covers both game over conditions and their boundaries
func TestMatchCheck(t *testing.T) {
	tests := []struct {
		name       string
		playerHits int
		at         time.Duration
		wantOver   bool
		wantReason string
	}{
		{"fresh round", 0, time.Second, false, ""},
		{"exactly round length", 0, 120 * time.Second, false, ""},
		{"past round length", 0, 120*time.Second + 1, true, ReasonTime},
		{"lives above zero", 14, time.Second, false, ""},
		{"lives below zero", 15, time.Second, true, ReasonLives},
		{"lives win over time", 15, 200 * time.Second, true, ReasonLives},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatch(shooterRules())
			m.Start(0)
			m.TakeHits(tt.playerHits)

			if got := m.Check(tt.at); got != tt.wantOver {
				t.Errorf("Expected Check %v, got %v (lives %d)", tt.wantOver, got, m.Lives)
			}
			if m.Reason != tt.wantReason {
				t.Errorf("Expected reason %q, got %q", tt.wantReason, m.Reason)
			}
		})
	}
}

// TestMatchLivesZero ends the round when lives reach exactly zero
func TestMatchLivesZero(t *testing.T) {
	rules := shooterRules()
	rules.Lives = 14
	m := NewMatch(rules)
	m.Start(0)
	m.TakeHits(2)

	if !m.Check(time.Second) || m.Reason != ReasonLives {
		t.Errorf("Expected game over at 0 lives, got phase %s lives %d", m.Phase, m.Lives)
	}
}

// TestMatchClock checks elapsed and remaining time across phases
func TestMatchClock(t *testing.T) {
	m := NewMatch(shooterRules())
	if m.Elapsed(5*time.Second) != 0 || m.Phase != PhaseIdle {
		t.Error("Idle match should not run its clock")
	}

	m.Start(10 * time.Second)
	if r := m.Remaining(40 * time.Second); r != 90 {
		t.Errorf("Expected 90s remaining, got %v", r)
	}

	m.AddHits(3)
	m.Check(131 * time.Second)
	if m.Phase != PhaseOver || m.Score != 3 {
		t.Fatalf("Expected over with score 3, got %s/%d", m.Phase, m.Score)
	}
	if e := m.Elapsed(500 * time.Second); e != 121*time.Second {
		t.Errorf("Elapsed should freeze at game over, got %v", e)
	}
	if r := m.Remaining(500 * time.Second); r != 0 {
		t.Errorf("Expected 0 remaining, got %v", r)
	}
	if m.Check(600 * time.Second) {
		t.Error("Check should only report the transition once")
	}

	m.Start(600 * time.Second)
	if m.Score != 0 || m.Lives != 100 || m.Reason != "" {
		t.Errorf("Start should reset the round, got %+v", m)
	}
}
