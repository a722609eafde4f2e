package effects

import (
	"testing"
	"time"

	"github.com/gopxl/beep"

	"trackerbot/internal/net/proto"
	"trackerbot/internal/state"
	"trackerbot/internal/tracker"
)

type sliceSink struct {
	events []proto.EffectEvent
}

func (s *sliceSink) RecordEffect(ev proto.EffectEvent) {
	s.events = append(s.events, ev)
}

func TestRecorderEmitsFrameEvents(t *testing.T) {
	sink := &sliceSink{}
	rec := NewRecorder(sink)

	rec.SpawnEffect(tracker.EffectExplosion, state.Vec2{X: 1, Y: 2})
	rec.PlaySoundAt(tracker.SoundExplosion, state.Vec2{X: 1, Y: 2})
	rec.PlaySoundAttached(tracker.SoundSelfDestruct, "bot-1")
	rec.SetParameter("bot-1", tracker.ParamPowerLevelAlpha, 0.5)

	if len(sink.events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(sink.events))
	}
	kinds := []string{proto.EffectKindSpawn, proto.EffectKindSound, proto.EffectKindSoundAttached, proto.EffectKindParameter}
	for i, kind := range kinds {
		if sink.events[i].Kind != kind {
			t.Fatalf("expected event %d kind %q, got %q", i, kind, sink.events[i].Kind)
		}
	}
	if sink.events[0].Position.X != 1 || sink.events[0].Position.Y != 2 {
		t.Fatalf("unexpected spawn position: %+v", sink.events[0].Position)
	}
	if sink.events[3].Value != 0.5 || sink.events[3].ActorID != "bot-1" {
		t.Fatalf("unexpected parameter event: %+v", sink.events[3])
	}

	var nilRecorder *Recorder
	nilRecorder.SpawnEffect(tracker.EffectExplosion, state.Vec2{})
	NewRecorder(nil).PlaySoundAttached(tracker.SoundSelfDestruct, "bot-1")
}

func TestFanoutAndReplay(t *testing.T) {
	first := &sliceSink{}
	second := &sliceSink{}
	fan := Fanout{NewRecorder(first), nil, NewRecorder(second)}

	fan.PlaySoundAttached(tracker.SoundSelfDestruct, "bot-9")
	fan.SetParameter("bot-9", tracker.ParamPowerLevelAlpha, 1)

	if len(first.events) != 2 || len(second.events) != 2 {
		t.Fatalf("expected both sinks to receive 2 events, got %d/%d", len(first.events), len(second.events))
	}

	replayed := &sliceSink{}
	Replay(first.events, NewRecorder(replayed))
	if len(replayed.events) != 1 {
		t.Fatalf("expected parameter events to be skipped on replay, got %d events", len(replayed.events))
	}
	if replayed.events[0].ActorID != "bot-9" {
		t.Fatalf("expected attached cue for bot-9, got %+v", replayed.events[0])
	}
}

func TestCueStreamerIsFiniteAndBounded(t *testing.T) {
	rate := beep.SampleRate(8000)
	for _, cue := range []string{tracker.SoundSelfDestruct, tracker.SoundExplosion} {
		t.Run(cue, func(t *testing.T) {
			streamer := CueStreamer(cue, rate)
			if streamer == nil {
				t.Fatalf("expected a streamer for %q", cue)
			}
			buf := make([][2]float64, 512)
			total := 0
			for {
				n, ok := streamer.Stream(buf)
				for i := 0; i < n; i++ {
					if buf[i][0] < -1 || buf[i][0] > 1 {
						t.Fatalf("sample %d out of range: %f", total+i, buf[i][0])
					}
				}
				total += n
				if !ok || n == 0 {
					break
				}
				if total > rate.N(5*time.Second) {
					t.Fatalf("expected cue to end")
				}
			}
			if total == 0 {
				t.Fatalf("expected samples for %q", cue)
			}
		})
	}
	if CueStreamer("unknown", rate) != nil {
		t.Fatalf("expected nil streamer for unknown cue")
	}
}

func TestAudioSilentUntilInitialized(t *testing.T) {
	audio := NewAudio()
	audio.PlaySoundAttached(tracker.SoundSelfDestruct, "bot-1")
	audio.PlaySoundAt(tracker.SoundExplosion, state.Vec2{})
	if audio.Played(tracker.SoundSelfDestruct) != 0 || audio.mixer.Len() != 0 {
		t.Fatalf("expected uninitialized audio to stay silent")
	}
	audio.Cleanup()
}
