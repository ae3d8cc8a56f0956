package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown   EventType = iota
	EventTypeTick                // Tick boundary with RNG seed
	EventTypeBurst               // A one-shot emitter fired
	EventTypeHit                 // Player shots removed enemy shots
	EventTypePlayerHit           // Enemy shots reached the player
	EventTypeGameStart
	EventTypeGameOver
	EventTypeCommand // Driver command (start/stop/reset/set...)
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Simulation tick this occurred in
	Source    string    `json:"source"`    // Emitter or client name (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeBurst:
		return "burst"
	case EventTypeHit:
		return "hit"
	case EventTypePlayerHit:
		return "player_hit"
	case EventTypeGameStart:
		return "game_start"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	EntityCount int   `json:"entityCount"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// BurstPayload describes a fired one-shot emitter
type BurstPayload struct {
	Emitter string  `json:"emitter"`
	Count   int     `json:"count"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// HitPayload contains shot-vs-shot hit details
type HitPayload struct {
	Target  string  `json:"target"` // enemy emitter whose shot was removed
	Removed int     `json:"removed"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Score   int     `json:"score"`
}

// PlayerHitPayload contains enemy-shot-vs-player details
type PlayerHitPayload struct {
	Attacker string `json:"attacker"`
	Removed  int    `json:"removed"`
	Lives    int    `json:"lives"`
}

// GameOverPayload contains the final round result
type GameOverPayload struct {
	Reason  string  `json:"reason"` // "time" or "lives"
	Score   int     `json:"score"`
	Elapsed float64 `json:"elapsedSec"`
	Rank    int     `json:"rank"` // 1-based high score rank, 0 = not ranked
}

// CommandPayload records a driver command
type CommandPayload struct {
	Command string  `json:"command"`
	Target  string  `json:"target,omitempty"`
	Value   float64 `json:"value,omitempty"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
