package world

import (
	"time"

	"trackerbot/internal/tracker"
)

// ActorView is the replicated view of one actor.
type ActorView struct {
	ID        string
	Kind      string
	Position  Vec2
	Velocity  Vec2
	Health    float64
	MaxHealth float64
	Hidden    bool
	Bot       *tracker.ReplicatedState
}

const (
	KindBot    = "bot"
	KindPlayer = "player"
	KindProp   = "prop"
)

// Snapshot is the state of the arena after a step.
type Snapshot struct {
	Tick   uint64
	Time   time.Duration
	Actors []ActorView
}

func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:   w.tick,
		Time:   w.timers.Now(),
		Actors: make([]ActorView, 0, len(w.order)),
	}
	for _, id := range w.order {
		actor := w.actors[id]
		view := ActorView{
			ID:        actor.id,
			Kind:      kindOf(actor.class),
			Position:  actor.pos,
			Velocity:  actor.vel,
			Health:    actor.health.Health,
			MaxHealth: actor.health.MaxHealth,
			Hidden:    actor.hidden,
		}
		if actor.bot != nil {
			replicated := actor.bot.Snapshot()
			view.Bot = &replicated
		}
		snap.Actors = append(snap.Actors, view)
	}
	return snap
}

func kindOf(class tracker.ActorClass) string {
	switch {
	case class.Matches(tracker.ClassTrackerBot):
		return KindBot
	case class.Matches(tracker.ClassCharacter):
		return KindPlayer
	default:
		return KindProp
	}
}
