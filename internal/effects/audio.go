package effects

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"trackerbot/internal/state"
	"trackerbot/internal/tracker"
)

const sampleRate = beep.SampleRate(44100)

// Audio plays procedural cues for bot sounds. Until Initialize succeeds every
// call is a no-op, which keeps headless hosts and tests silent.
type Audio struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	mixer       *beep.Mixer
	initialized bool
	played      map[string]int
}

var _ tracker.Effects = (*Audio)(nil)

func NewAudio() *Audio {
	return &Audio{
		rate:   sampleRate,
		mixer:  &beep.Mixer{},
		played: make(map[string]int),
	}
}

// Initialize opens the speaker and starts the mixer.
func (a *Audio) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if err := speaker.Init(a.rate, a.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(a.mixer)
	a.initialized = true
	return nil
}

// Cleanup silences every queued cue.
func (a *Audio) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return
	}
	speaker.Lock()
	a.mixer.Clear()
	speaker.Unlock()
	a.initialized = false
}

// Played reports how many times a cue has been started.
func (a *Audio) Played(cue string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.played[cue]
}

func (a *Audio) SpawnEffect(string, state.Vec2) {}

func (a *Audio) PlaySoundAt(cue string, _ state.Vec2) {
	a.play(cue)
}

func (a *Audio) PlaySoundAttached(cue string, _ string) {
	a.play(cue)
}

func (a *Audio) SetParameter(string, string, float64) {}

func (a *Audio) play(cue string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return
	}
	streamer := CueStreamer(cue, a.rate)
	if streamer == nil {
		return
	}
	a.played[cue]++
	speaker.Lock()
	a.mixer.Add(streamer)
	speaker.Unlock()
}

// CueStreamer builds the finite streamer for a named cue, or nil for cues
// without a sound.
func CueStreamer(cue string, rate beep.SampleRate) beep.Streamer {
	switch cue {
	case tracker.SoundSelfDestruct:
		return beep.Take(rate.N(600*time.Millisecond), newPulseGenerator(rate, 880, 8))
	case tracker.SoundExplosion:
		return beep.Take(rate.N(700*time.Millisecond), newBlastGenerator(rate, 0.7))
	default:
		return nil
	}
}

// pulseGenerator is a sine beep gated on and off at a fixed rate.
type pulseGenerator struct {
	sr    beep.SampleRate
	freq  float64
	pulse float64
	pos   int
}

func newPulseGenerator(sr beep.SampleRate, freq, pulsesPerSecond float64) *pulseGenerator {
	return &pulseGenerator{sr: sr, freq: freq, pulse: pulsesPerSecond}
}

func (g *pulseGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		sample := 0.0
		if math.Mod(t*g.pulse, 1) < 0.5 {
			sample = 0.25 * math.Sin(2*math.Pi*g.freq*t)
		}
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *pulseGenerator) Err() error {
	return nil
}

// blastGenerator is low-passed noise under an exponential decay.
type blastGenerator struct {
	sr    beep.SampleRate
	decay float64
	rng   *rand.Rand
	last  float64
	pos   int
}

func newBlastGenerator(sr beep.SampleRate, seconds float64) *blastGenerator {
	return &blastGenerator{
		sr:    sr,
		decay: seconds,
		rng:   rand.New(rand.NewPCG(0x7261636b, 0x626f6f6d)),
	}
}

func (g *blastGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		envelope := math.Exp(-5 * t / g.decay)
		g.last = 0.9*g.last + 0.1*(g.rng.Float64()*2-1)
		sample := g.last * envelope * 0.8
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *blastGenerator) Err() error {
	return nil
}
