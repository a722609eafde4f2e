package combat

import (
	"context"

	"trackerbot/logging"
)

const (
	// EventDamage is emitted whenever an actor loses health.
	EventDamage logging.EventType = "combat.damage"
	// EventRadialDamage is emitted once per blast with every actor it reached.
	EventRadialDamage logging.EventType = "combat.radial_damage"
	// EventDefeat is emitted when an actor's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
)

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	Cause        string  `json:"cause,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

// RadialDamagePayload describes a blast centred on an origin.
type RadialDamagePayload struct {
	Cause   string  `json:"cause,omitempty"`
	Amount  float64 `json:"amount"`
	Radius  float64 `json:"radius"`
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
}

type DefeatPayload struct {
	Cause string `json:"cause,omitempty"`
}

func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

// RadialDamage publishes the blast together with the actors it hit.
func RadialDamage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload RadialDamagePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventRadialDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DefeatPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryCombat
	pub.Publish(ctx, event)
}
