// Package audio plays synthesized sound effects for simulation events.
package audio

import (
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"

	"emitter-arena/internal/config"
)

// maxActiveSounds limits concurrent effects so a hit storm stays audible
const maxActiveSounds = 8

// Mixer queues named effects onto the speaker
type Mixer struct {
	mu          sync.Mutex
	cfg         config.AudioConfig
	rate        beep.SampleRate
	mixer       *beep.Mixer
	initialized bool
	dropped     uint64
}

// NewMixer creates a mixer. Call Init before queueing sounds.
func NewMixer(cfg config.AudioConfig) *Mixer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = config.DefaultAudio().SampleRate
	}
	return &Mixer{
		cfg:   cfg,
		rate:  beep.SampleRate(cfg.SampleRate),
		mixer: &beep.Mixer{},
	}
}

// Init opens the speaker. Disabled configs are a no-op.
func (m *Mixer) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized || !m.cfg.Enabled {
		return nil
	}

	if err := speaker.Init(m.rate, m.rate.N(100*time.Millisecond)); err != nil {
		return errors.Wrap(err, "speaker init")
	}
	speaker.Play(m.mixer)
	m.initialized = true
	log.Printf("🔊 Audio: %d Hz, volume %.2f", m.cfg.SampleRate, m.cfg.Volume)
	return nil
}

// Queue plays a named effect. Unknown names and a full mixer drop the sound.
func (m *Mixer) Queue(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}

	s := Sound(name, m.rate, m.cfg.Volume)
	if s == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	if m.mixer.Len() >= maxActiveSounds {
		m.dropped++
		return
	}
	m.mixer.Add(s)
}

// Dropped returns how many effects were skipped because the mixer was full
func (m *Mixer) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close stops playback and releases the speaker
func (m *Mixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
}
