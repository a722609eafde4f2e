// Package effects turns the cosmetic calls a tracker bot makes into frame
// events, audible cues, or both.
package effects

import (
	"trackerbot/internal/net/proto"
	"trackerbot/internal/state"
	"trackerbot/internal/tracker"
)

// Sink receives effect events. The frame journal is the usual sink.
type Sink interface {
	RecordEffect(proto.EffectEvent)
}

// Recorder converts effect calls into proto effect events.
type Recorder struct {
	sink Sink
}

var _ tracker.Effects = (*Recorder)(nil)

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) SpawnEffect(kind string, at state.Vec2) {
	r.record(proto.EffectEvent{
		Kind:     proto.EffectKindSpawn,
		Name:     kind,
		Position: proto.Point{X: at.X, Y: at.Y},
	})
}

func (r *Recorder) PlaySoundAt(cue string, at state.Vec2) {
	r.record(proto.EffectEvent{
		Kind:     proto.EffectKindSound,
		Name:     cue,
		Position: proto.Point{X: at.X, Y: at.Y},
	})
}

func (r *Recorder) PlaySoundAttached(cue string, actorID string) {
	r.record(proto.EffectEvent{
		Kind:    proto.EffectKindSoundAttached,
		Name:    cue,
		ActorID: actorID,
	})
}

func (r *Recorder) SetParameter(actorID, name string, value float64) {
	r.record(proto.EffectEvent{
		Kind:    proto.EffectKindParameter,
		Name:    name,
		ActorID: actorID,
		Value:   value,
	})
}

func (r *Recorder) record(event proto.EffectEvent) {
	if r == nil || r.sink == nil {
		return
	}
	r.sink.RecordEffect(event)
}

// Fanout forwards every call to each wrapped player in order.
type Fanout []tracker.Effects

var _ tracker.Effects = Fanout(nil)

func (f Fanout) SpawnEffect(kind string, at state.Vec2) {
	for _, e := range f {
		if e != nil {
			e.SpawnEffect(kind, at)
		}
	}
}

func (f Fanout) PlaySoundAt(cue string, at state.Vec2) {
	for _, e := range f {
		if e != nil {
			e.PlaySoundAt(cue, at)
		}
	}
}

func (f Fanout) PlaySoundAttached(cue string, actorID string) {
	for _, e := range f {
		if e != nil {
			e.PlaySoundAttached(cue, actorID)
		}
	}
}

func (f Fanout) SetParameter(actorID, name string, value float64) {
	for _, e := range f {
		if e != nil {
			e.SetParameter(actorID, name, value)
		}
	}
}

// Replay feeds frame effects back into a player, as an observer does when a
// frame arrives. Parameter events are skipped because replicas derive them
// from their own bots.
func Replay(events []proto.EffectEvent, player tracker.Effects) {
	if player == nil {
		return
	}
	for _, ev := range events {
		switch ev.Kind {
		case proto.EffectKindSpawn:
			player.SpawnEffect(ev.Name, ev.Position.Vec2())
		case proto.EffectKindSound:
			player.PlaySoundAt(ev.Name, ev.Position.Vec2())
		case proto.EffectKindSoundAttached:
			player.PlaySoundAttached(ev.Name, ev.ActorID)
		}
	}
}
