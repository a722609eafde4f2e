// Package tracker publishes the gameplay events of rolling tracker bots.
package tracker

import (
	"context"

	"trackerbot/logging"
)

const (
	// EventWaypointUpdated is emitted each time a bot recomputes its path.
	EventWaypointUpdated logging.EventType = "tracker.waypoint_updated"
	// EventPowerLevelChanged is emitted when the count of nearby peers changes the power level.
	EventPowerLevelChanged logging.EventType = "tracker.power_level_changed"
	// EventSelfDestructStarted is emitted once when a bot begins arming.
	EventSelfDestructStarted logging.EventType = "tracker.self_destruct_started"
	// EventHealthChanged is emitted on every health change reported to a bot.
	EventHealthChanged logging.EventType = "tracker.health_changed"
	// EventDetonated is emitted once when a bot explodes.
	EventDetonated logging.EventType = "tracker.detonated"
)

type WaypointUpdatedPayload struct {
	TargetID   string  `json:"targetId,omitempty"`
	WaypointX  float64 `json:"waypointX"`
	WaypointY  float64 `json:"waypointY"`
	PathLength int     `json:"pathLength"`
}

type PowerLevelChangedPayload struct {
	Previous int     `json:"previous"`
	Current  int     `json:"current"`
	Alpha    float64 `json:"alpha"`
}

type SelfDestructStartedPayload struct {
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

type HealthChangedPayload struct {
	Health float64 `json:"health"`
	Delta  float64 `json:"delta"`
	Cause  string  `json:"cause,omitempty"`
}

type DetonatedPayload struct {
	Damage     float64 `json:"damage"`
	Radius     float64 `json:"radius"`
	PowerLevel int     `json:"powerLevel"`
	Authority  bool    `json:"authority"`
}

func WaypointUpdated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WaypointUpdatedPayload, extra map[string]any) {
	publish(ctx, pub, EventWaypointUpdated, logging.SeverityDebug, tick, actor, payload, extra)
}

func PowerLevelChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PowerLevelChangedPayload, extra map[string]any) {
	publish(ctx, pub, EventPowerLevelChanged, logging.SeverityInfo, tick, actor, payload, extra)
}

func SelfDestructStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SelfDestructStartedPayload, extra map[string]any) {
	publish(ctx, pub, EventSelfDestructStarted, logging.SeverityInfo, tick, actor, payload, extra)
}

func HealthChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HealthChangedPayload, extra map[string]any) {
	publish(ctx, pub, EventHealthChanged, logging.SeverityInfo, tick, actor, payload, extra)
}

func Detonated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DetonatedPayload, extra map[string]any) {
	publish(ctx, pub, EventDetonated, logging.SeverityWarn, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	})
}
