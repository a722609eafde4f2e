package journal

import (
	"sync"
	"time"

	"trackerbot/internal/net/proto"
	"trackerbot/internal/telemetry"
)

// DefaultEffectCapacity bounds the effects staged between two frames.
const DefaultEffectCapacity = 1024

// Journal stages the cosmetic effects emitted during a tick and keeps a
// rolling buffer of recent frames so joining observers can be seeded with the
// latest state.
type Journal struct {
	mu             sync.RWMutex
	keyframes      []Keyframe
	maxFrames      int
	maxAge         time.Duration
	effects        []proto.EffectEvent
	effectCapacity int
	metrics        telemetry.Metrics
	now            func() time.Time
}

// New constructs a journal with storage for the configured number of
// keyframes and retention window.
func New(keyframeCapacity int, maxAge time.Duration) *Journal {
	if keyframeCapacity < 0 {
		keyframeCapacity = 0
	}
	if maxAge < 0 {
		maxAge = 0
	}
	return &Journal{
		keyframes:      make([]Keyframe, 0, keyframeCapacity),
		maxFrames:      keyframeCapacity,
		maxAge:         maxAge,
		effects:        make([]proto.EffectEvent, 0),
		effectCapacity: DefaultEffectCapacity,
		metrics:        telemetry.NopMetrics{},
		now:            time.Now,
	}
}

// AttachTelemetry routes staging drops to the provided metrics.
func (j *Journal) AttachTelemetry(m telemetry.Metrics) {
	if m == nil {
		m = telemetry.NopMetrics{}
	}
	j.mu.Lock()
	j.metrics = m
	j.mu.Unlock()
}

// RecordEffect stages an effect for the next frame. Effects past the staging
// capacity are dropped and counted.
func (j *Journal) RecordEffect(event proto.EffectEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.effectCapacity > 0 && len(j.effects) >= j.effectCapacity {
		j.metrics.Add(telemetry.MetricJournalDrops, 1)
		return
	}
	j.effects = append(j.effects, event)
}

// DrainEffects returns the staged effects and clears the staging buffer.
func (j *Journal) DrainEffects() []proto.EffectEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.effects) == 0 {
		return nil
	}
	drained := make([]proto.EffectEvent, len(j.effects))
	copy(drained, j.effects)
	j.effects = j.effects[:0]
	return drained
}

// RestoreEffects puts a drained batch back in front of anything staged since,
// so a failed broadcast can retry without losing events.
func (j *Journal) RestoreEffects(events []proto.EffectEvent) {
	if len(events) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	restored := make([]proto.EffectEvent, 0, len(events)+len(j.effects))
	restored = append(restored, events...)
	restored = append(restored, j.effects...)
	j.effects = restored
}

// RecordKeyframe stores a frame in the buffer enforcing retention limits by
// count and age.
func (j *Journal) RecordKeyframe(frame Keyframe) KeyframeRecordResult {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.maxFrames == 0 {
		j.keyframes = j.keyframes[:0]
		return KeyframeRecordResult{}
	}

	frame.RecordedAt = j.now()
	j.keyframes = append(j.keyframes, frame)

	cutoff := time.Time{}
	if j.maxAge > 0 {
		cutoff = frame.RecordedAt.Add(-j.maxAge)
	}

	evicted := make([]KeyframeEviction, 0)
	if !cutoff.IsZero() {
		idx := 0
		for idx < len(j.keyframes) {
			if !j.keyframes[idx].RecordedAt.Before(cutoff) {
				break
			}
			evicted = append(evicted, KeyframeEviction{
				Sequence: j.keyframes[idx].Sequence,
				Tick:     j.keyframes[idx].Tick,
				Reason:   EvictExpired,
			})
			idx++
		}
		if idx > 0 {
			copy(j.keyframes, j.keyframes[idx:])
			j.keyframes = j.keyframes[:len(j.keyframes)-idx]
		}
	}

	if len(j.keyframes) > j.maxFrames {
		overflow := len(j.keyframes) - j.maxFrames
		for i := 0; i < overflow; i++ {
			old := j.keyframes[i]
			evicted = append(evicted, KeyframeEviction{
				Sequence: old.Sequence,
				Tick:     old.Tick,
				Reason:   EvictCount,
			})
		}
		copy(j.keyframes, j.keyframes[overflow:])
		j.keyframes = j.keyframes[:len(j.keyframes)-overflow]
	}

	size := len(j.keyframes)
	result := KeyframeRecordResult{Size: size, Evicted: evicted}
	if size > 0 {
		result.OldestSequence = j.keyframes[0].Sequence
		result.NewestSequence = j.keyframes[size-1].Sequence
	}
	return result
}

// Latest returns the most recent keyframe.
func (j *Journal) Latest() (Keyframe, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1], true
}

// Keyframes exposes the buffer contents in chronological order. Callers
// receive a copy.
func (j *Journal) Keyframes() []Keyframe {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return nil
	}
	frames := make([]Keyframe, len(j.keyframes))
	copy(frames, j.keyframes)
	return frames
}

// KeyframeBySequence returns the keyframe matching the provided sequence.
func (j *Journal) KeyframeBySequence(sequence uint64) (Keyframe, bool) {
	if sequence == 0 {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, frame := range j.keyframes {
		if frame.Sequence == sequence {
			return frame, true
		}
	}
	return Keyframe{}, false
}

// KeyframeWindow reports the current retention window.
func (j *Journal) KeyframeWindow() (size int, oldest, newest uint64) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	size = len(j.keyframes)
	if size == 0 {
		return size, 0, 0
	}
	return size, j.keyframes[0].Sequence, j.keyframes[size-1].Sequence
}

// Keyframe is a broadcast frame retained for late joiners.
type Keyframe struct {
	Sequence   uint64
	Tick       uint64
	Frame      proto.Frame
	RecordedAt time.Time
}

// NewKeyframe wraps a broadcast frame.
func NewKeyframe(frame proto.Frame) Keyframe {
	return Keyframe{Sequence: frame.Sequence, Tick: frame.Tick, Frame: frame}
}

const (
	EvictExpired = "expired"
	EvictCount   = "count"
)

type KeyframeEviction struct {
	Sequence uint64
	Tick     uint64
	Reason   string
}

type KeyframeRecordResult struct {
	Size           int
	OldestSequence uint64
	NewestSequence uint64
	Evicted        []KeyframeEviction
}
