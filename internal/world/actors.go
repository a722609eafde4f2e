package world

import "trackerbot/internal/tracker"

const (
	TeamBots    = "bots"
	TeamPlayers = "players"
	TeamNeutral = "neutral"
)

type actorState struct {
	id        string
	class     tracker.ActorClass
	team      string
	pos       Vec2
	vel       Vec2
	accel     Vec2
	mass      float64
	health    HealthState
	hidden    bool
	collision bool
	// intent is the normalized move direction for players.
	intent Vec2
	bot    *tracker.Bot
	// overlapping tracks actors currently inside a bot's overlap sphere.
	overlapping map[string]struct{}
}

func (a *actorState) view() tracker.Actor {
	return tracker.Actor{ID: a.id, Class: a.class, Position: a.pos}
}

func (a *actorState) damageable() bool {
	return a.collision && a.health.MaxHealth > 0
}

// botBody exposes a bot's own actor as its physics body.
type botBody struct {
	world *World
	id    string
}

func (b botBody) actor() *actorState {
	return b.world.actors[b.id]
}

func (b botBody) Position() Vec2 {
	if actor := b.actor(); actor != nil {
		return actor.pos
	}
	return Vec2{}
}

// AddForce accumulates acceleration for the next integration. With
// velocityChange the force is applied as an acceleration regardless of mass.
func (b botBody) AddForce(force Vec2, velocityChange bool) {
	actor := b.actor()
	if actor == nil {
		return
	}
	if velocityChange || actor.mass <= 0 {
		actor.accel = actor.accel.Add(force)
		return
	}
	actor.accel = actor.accel.Add(force.Scale(1 / actor.mass))
}

func (b botBody) HideMesh() {
	if actor := b.actor(); actor != nil {
		actor.hidden = true
	}
}

func (b botBody) DisableCollision() {
	if actor := b.actor(); actor != nil {
		actor.collision = false
		actor.vel = Vec2{}
		actor.accel = Vec2{}
	}
}
