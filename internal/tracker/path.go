package tracker

import (
	"trackerbot/internal/state"
	"trackerbot/internal/telemetry"
	"trackerbot/logging/tracker"
)

const waypointMarkerRadius = 20.0

// nextWaypoint selects a target, asks for a path and returns the first point
// past the start. Without a target or a usable path the bot holds position.
// Every call re-arms the periodic refresh.
func (b *Bot) nextWaypoint() state.Vec2 {
	b.armRefresh()

	origin := b.deps.Body.Position()
	target, ok := b.selectTarget(b.deps.Population.Actors())
	if !ok {
		b.targetID = ""
		return origin
	}
	b.targetID = target.ID

	b.deps.Metrics.Add(telemetry.MetricPathRequests, 1)
	path := b.deps.Navigator.FindPath(origin, target.Position)
	next := origin
	if len(path) > 1 {
		next = path[1]
	}
	tracker.WaypointUpdated(b.ctx, b.deps.Publisher, b.tick(), b.ref(), tracker.WaypointUpdatedPayload{
		TargetID:   target.ID,
		WaypointX:  next.X,
		WaypointY:  next.Y,
		PathLength: len(path),
	}, nil)
	return next
}

func (b *Bot) armRefresh() {
	if b.refreshTimer != 0 {
		b.deps.Timers.Cancel(b.refreshTimer)
	}
	b.refreshTimer = b.deps.Timers.SetTimer(b.cfg.PathRefreshDelay, b.guarded(b.refreshPath))
}

func (b *Bot) refreshPath() {
	b.refreshTimer = 0
	b.waypoint = b.nextWaypoint()
}

func (b *Bot) followPath() {
	pos := b.deps.Body.Position()
	if pos.Dist(b.waypoint) <= b.cfg.ArrivalDistance {
		b.waypoint = b.nextWaypoint()
		b.lastForce = state.Vec2{}
		b.deps.Debug.DrawText(pos, "Target Location", DebugWhite, 0)
	} else {
		force := b.waypoint.Sub(pos).Normalize().Scale(b.cfg.MovementForce)
		b.lastForce = force
		b.deps.Body.AddForce(force, b.cfg.UseVelocityChange)
		b.deps.Debug.DrawArrow(pos, pos.Add(force), DebugGreen)
	}
	b.deps.Debug.DrawSphere(b.waypoint, waypointMarkerRadius, DebugYellow, 0)
}
