package game

import (
	"time"

	"emitter-arena/internal/config"
	"emitter-arena/internal/sim"
)

// Phase is the round state of a shooter scene
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseOver:
		return "over"
	default:
		return "idle"
	}
}

// Game over reasons
const (
	ReasonTime  = "time"
	ReasonLives = "lives"
)

// Match tracks score, lives and the round clock
type Match struct {
	Rules   config.Rules
	Phase   Phase
	Score   int
	Lives   int
	Started time.Duration
	Ended   time.Duration
	Reason  string
}

// NewMatch creates an idle match
func NewMatch(rules config.Rules) *Match {
	return &Match{Rules: rules, Lives: rules.Lives}
}

// Start begins a fresh round at now
func (m *Match) Start(now time.Duration) {
	m.Phase = PhasePlaying
	m.Score = 0
	m.Lives = m.Rules.Lives
	m.Started = now
	m.Ended = 0
	m.Reason = ""
}

// Playing reports whether a round is in progress
func (m *Match) Playing() bool {
	return m.Phase == PhasePlaying
}

// Elapsed returns round time at now
func (m *Match) Elapsed(now time.Duration) time.Duration {
	switch m.Phase {
	case PhasePlaying:
		return now - m.Started
	case PhaseOver:
		return m.Ended - m.Started
	}
	return 0
}

// Remaining returns the seconds left in the round, or -1 for endless rounds
func (m *Match) Remaining(now time.Duration) float64 {
	if m.Rules.RoundSeconds <= 0 {
		return -1
	}
	left := m.Rules.RoundSeconds - m.Elapsed(now).Seconds()
	if left < 0 {
		return 0
	}
	return left
}

// AddHits scores removed enemy shots
func (m *Match) AddHits(n int) {
	m.Score += n
}

// TakeHits costs LifePenalty lives per enemy shot that reached the player
func (m *Match) TakeHits(n int) {
	m.Lives -= n * m.Rules.LifePenalty
}

// Check ends the round when time is up or lives are gone and reports whether
// it just ended
func (m *Match) Check(now time.Duration) bool {
	if m.Phase != PhasePlaying {
		return false
	}
	switch {
	case m.Lives <= 0:
		m.Reason = ReasonLives
	case m.Rules.RoundSeconds > 0 && m.Elapsed(now) > sim.Seconds(m.Rules.RoundSeconds):
		m.Reason = ReasonTime
	default:
		return false
	}
	m.Phase = PhaseOver
	m.Ended = now
	return true
}
