package game

import (
	"sync/atomic"
	"time"
)

// EntitySnapshot is an immutable spawned entity for rendering
type EntitySnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rot"`
	Radius   float64 `json:"r"`
	Color    string  `json:"color"`
	Alpha    float64 `json:"alpha"` // 1 - age/lifespan, 1 for immortal entities
	Selected bool    `json:"sel,omitempty"`
}

// EmitterSnapshot is an immutable emitter for rendering and the API
type EmitterSnapshot struct {
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Mode     string  `json:"mode"`
	Movement string  `json:"movement"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Rate     float64 `json:"rate"`
	Running  bool    `json:"running"`
	Count    int     `json:"count"`
	Spawned  uint64  `json:"spawned"`
	Color    string  `json:"color"`
}

// HudSnapshot carries the round state drawn over the scene
type HudSnapshot struct {
	Phase     string  `json:"phase"`
	Score     int     `json:"score"`
	Lives     int     `json:"lives"`
	Remaining float64 `json:"remainingSec"` // -1 for endless rounds
	HighScore int     `json:"highScore"`
	Reason    string  `json:"reason,omitempty"`
}

// GameSnapshot is a complete immutable simulation state for rendering.
// Slices are pre-allocated and capped.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`
	RNGSeed    int64     `json:"rngSeed"`
	SimTime    float64   `json:"simTime"` // seconds

	Scene  string `json:"scene"`
	YUp    bool   `json:"yUp"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Emitters []EmitterSnapshot `json:"emitters"`
	Entities []EntitySnapshot  `json:"entities"`

	// EntityCount is the live total, which can exceed len(Entities)
	EntityCount int         `json:"entityCount"`
	Hud         HudSnapshot `json:"hud"`
}

// Clone returns a deep copy that stays valid after the pool reuses the slot
func (s *GameSnapshot) Clone() *GameSnapshot {
	c := *s
	c.Emitters = append([]EmitterSnapshot(nil), s.Emitters...)
	c.Entities = append([]EntitySnapshot(nil), s.Entities...)
	return &c
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure
// Uses triple buffering for lock-free producer/consumer
type SnapshotPool struct {
	snapshots   [3]GameSnapshot // Triple buffer
	maxEntities int
	writeIdx    uint32 // atomic - producer index
	readIdx     uint32 // atomic - consumer index
	sequence    uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(maxEntities, maxEmitters int) *SnapshotPool {
	pool := &SnapshotPool{maxEntities: maxEntities}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Emitters: make([]EmitterSnapshot, 0, maxEmitters),
			Entities: make([]EntitySnapshot, 0, maxEntities),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from tick)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Emitters = snap.Emitters[:0]
	snap.Entities = snap.Entities[:0]
	snap.EntityCount = 0
	snap.Hud = HudSnapshot{}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances read pointer
// Called after snapshot is fully populated
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// MaxEntities returns the per-frame entity cap
func (p *SnapshotPool) MaxEntities() int {
	return p.maxEntities
}
