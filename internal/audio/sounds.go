package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Sound names understood by Mixer.Queue
const (
	SoundHit       = "hit"
	SoundPlayerHit = "player_hit"
	SoundGameOver  = "game_over"
	SoundStart     = "start"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
)

// oscillator generates a fixed-length raw wave
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator returns a streamer that ends after duration
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = 1
			if o.phase >= 0.5 {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope fades a stream in over attack and out over release
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope shapes s with a linear attack and release
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.position >= releaseStart && e.release > 0 {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// withVolume scales a stream linearly; log2(0) is -Inf so 0 means silent
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Sound builds a finite streamer for a named effect, nil for unknown names
func Sound(name string, rate beep.SampleRate, vol float64) beep.Streamer {
	var s beep.Streamer

	switch name {
	case SoundHit:
		// short bright blip
		d := 50 * time.Millisecond
		sine, err := generators.SineTone(rate, 880)
		if err != nil {
			return nil
		}
		s = NewEnvelope(beep.Take(rate.N(d), sine), d, 2*time.Millisecond, 30*time.Millisecond, rate)
	case SoundPlayerHit:
		d := 150 * time.Millisecond
		s = NewEnvelope(NewOscillator(110, d, WaveSaw, rate), d, 5*time.Millisecond, 80*time.Millisecond, rate)
	case SoundStart:
		d := 120 * time.Millisecond
		s = beep.Seq(
			NewEnvelope(NewOscillator(660, d, WaveSquare, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate),
			NewEnvelope(NewOscillator(990, d, WaveSquare, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate),
		)
	case SoundGameOver:
		d := 200 * time.Millisecond
		s = beep.Seq(
			NewEnvelope(NewOscillator(440, d, WaveSquare, rate), d, 5*time.Millisecond, 60*time.Millisecond, rate),
			NewEnvelope(NewOscillator(330, d, WaveSquare, rate), d, 5*time.Millisecond, 60*time.Millisecond, rate),
			NewEnvelope(NewOscillator(220, 2*d, WaveSquare, rate), 2*d, 5*time.Millisecond, 200*time.Millisecond, rate),
		)
	default:
		return nil
	}

	return withVolume(s, vol)
}
