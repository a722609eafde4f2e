package world

import (
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/logging"
	"trackerbot/logging/combat"
	"trackerbot/logging/lifecycle"
)

// FindPath implements tracker.Navigator. Corners inside the bots' arrival
// radius are skipped; the body slides along the obstacle toward the next one.
func (w *World) FindPath(from, to Vec2) []Vec2 {
	return trimNear(w.nav.findPath(from, to), w.cfg.Tracker.ArrivalDistance)
}

// QueryNearby implements tracker.SpatialQuery. Actors without collision are
// invisible to overlap queries.
func (w *World) QueryNearby(origin Vec2, radius float64, filter tracker.ActorClass) []tracker.Actor {
	var out []tracker.Actor
	for _, id := range w.index.Candidates(origin, radius) {
		actor, ok := w.actors[id]
		if !ok || !actor.collision || !actor.class.Matches(filter) {
			continue
		}
		if origin.Dist(actor.pos) <= radius {
			out = append(out, actor.view())
		}
	}
	return out
}

// Actors implements tracker.Population: every pawn in spawn order.
func (w *World) Actors() []tracker.Actor {
	out := make([]tracker.Actor, 0, len(w.order))
	for _, id := range w.order {
		actor := w.actors[id]
		if actor.class.Matches(tracker.ClassPawn) {
			out = append(out, actor.view())
		}
	}
	return out
}

// IsFriendly reports whether both actors exist and share a team.
func (w *World) IsFriendly(a, b string) bool {
	left, ok := w.actors[a]
	if !ok {
		return false
	}
	right, ok := w.actors[b]
	if !ok {
		return false
	}
	return left.team == right.team
}

// CurrentHealth is zero for unknown actors.
func (w *World) CurrentHealth(id string) float64 {
	if actor, ok := w.actors[id]; ok {
		return actor.health.Health
	}
	return 0
}

// ApplyDamage implements tracker.Damage. Bots learn about the change through
// the health notification queue.
func (w *World) ApplyDamage(target string, amount float64, instigator, cause string) {
	actor, ok := w.actors[target]
	if !ok || amount <= 0 || actor.health.MaxHealth <= 0 {
		return
	}
	w.damage(actor, amount, instigator, cause)
}

// ApplyRadialDamage deals full damage to every damageable actor within
// radius of origin.
func (w *World) ApplyRadialDamage(origin Vec2, amount, radius float64, excluded []string, instigator, cause string) {
	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}

	var hits []*actorState
	for _, id := range w.order {
		actor := w.actors[id]
		if _, excluded := skip[id]; excluded || !actor.damageable() {
			continue
		}
		if origin.Dist(actor.pos) <= radius {
			hits = append(hits, actor)
		}
	}

	targets := make([]logging.EntityRef, 0, len(hits))
	for _, actor := range hits {
		targets = append(targets, entityRef(actor))
	}
	combat.RadialDamage(w.ctx, w.deps.Publisher, w.tick, logging.BotRef(instigator), targets, combat.RadialDamagePayload{
		Cause:   cause,
		Amount:  amount,
		Radius:  radius,
		OriginX: origin.X,
		OriginY: origin.Y,
	}, nil)

	for _, actor := range hits {
		w.damage(actor, amount, instigator, cause)
	}
}

func (w *World) damage(actor *actorState, amount float64, instigator, cause string) {
	before := actor.health.Health
	if !SetActorHealth(&actor.health, before-amount) {
		return
	}
	after := actor.health.Health

	combat.Damage(w.ctx, w.deps.Publisher, w.tick, logging.BotRef(instigator), entityRef(actor), combat.DamagePayload{
		Cause:        cause,
		Amount:       amount,
		TargetHealth: after,
	}, nil)
	if before > 0 && after <= 0 {
		actor.intent = Vec2{}
		combat.Defeat(w.ctx, w.deps.Publisher, w.tick, logging.BotRef(instigator), entityRef(actor), combat.DefeatPayload{Cause: cause}, nil)
	}
	if actor.bot != nil {
		w.pending = append(w.pending, healthNotice{id: actor.id, health: after, delta: after - before, cause: cause})
	}
}

// flushHealth delivers queued notifications, including ones raised while
// delivering, until the queue drains.
func (w *World) flushHealth() {
	for len(w.pending) > 0 {
		notice := w.pending[0]
		w.pending = w.pending[1:]
		actor, ok := w.actors[notice.id]
		if !ok || actor.bot == nil {
			continue
		}
		actor.bot.HandleHealthChanged(notice.health, notice.delta, notice.cause)
	}
	w.pending = nil
}

// Destroy implements tracker.Remover.
func (w *World) Destroy(id string) {
	w.remove(id, "lifespan_expired")
}

func (w *World) remove(id, reason string) {
	actor, ok := w.actors[id]
	if !ok {
		return
	}
	delete(w.actors, id)
	w.index.Remove(id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	for _, other := range w.actors {
		delete(other.overlapping, id)
	}
	if actor.bot == nil {
		return
	}
	actor.bot.EndPlay()
	w.deps.Metrics.Add(telemetry.MetricBotsRemoved, 1)
	lifecycle.BotRemoved(w.ctx, w.deps.Publisher, w.tick, logging.BotRef(id), lifecycle.BotRemovedPayload{Reason: reason}, nil)
}

// RemoveActor drops an actor immediately, e.g. when a player disconnects.
func (w *World) RemoveActor(id string) {
	w.remove(id, "removed")
}

// detectOverlaps raises begin-overlap events for characters entering a live
// bot's overlap sphere.
func (w *World) detectOverlaps() {
	for _, id := range w.snapshotOrder() {
		actor, ok := w.actors[id]
		if !ok || actor.bot == nil || !actor.collision {
			continue
		}
		radius := actor.bot.Config().OverlapRadius
		current := make(map[string]struct{})
		for _, other := range w.QueryNearby(actor.pos, radius, tracker.ClassPawn) {
			if other.ID == id {
				continue
			}
			current[other.ID] = struct{}{}
			if _, already := actor.overlapping[other.ID]; already {
				continue
			}
			actor.bot.HandleOverlap(other)
		}
		actor.overlapping = current
	}
}

func entityRef(actor *actorState) logging.EntityRef {
	switch {
	case actor.class.Matches(tracker.ClassTrackerBot):
		return logging.BotRef(actor.id)
	case actor.class.Matches(tracker.ClassCharacter):
		return logging.PlayerRef(actor.id)
	default:
		return logging.EntityRef{ID: actor.id, Kind: logging.EntityKindWorld}
	}
}
