package lifecycle

import (
	"context"

	"trackerbot/logging"
)

const (
	// EventBotSpawned is emitted when the host adds a tracker bot to the arena.
	EventBotSpawned logging.EventType = "lifecycle.bot_spawned"
	// EventBotRemoved is emitted when a bot leaves the arena, usually after its lifespan expires.
	EventBotRemoved logging.EventType = "lifecycle.bot_removed"
	// EventObserverJoined is emitted when a websocket observer subscribes to frames.
	EventObserverJoined logging.EventType = "lifecycle.observer_joined"
	// EventObserverLeft is emitted when an observer disconnects.
	EventObserverLeft logging.EventType = "lifecycle.observer_left"
)

type BotSpawnedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
	Team   string  `json:"team,omitempty"`
}

type BotRemovedPayload struct {
	Reason string `json:"reason"`
}

type ObserverJoinedPayload struct {
	Remote   string `json:"remote,omitempty"`
	Encoding string `json:"encoding"`
}

type ObserverLeftPayload struct {
	Reason string `json:"reason"`
}

func BotSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BotSpawnedPayload, extra map[string]any) {
	publish(ctx, pub, EventBotSpawned, tick, actor, payload, extra)
}

func BotRemoved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BotRemovedPayload, extra map[string]any) {
	publish(ctx, pub, EventBotRemoved, tick, actor, payload, extra)
}

func ObserverJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ObserverJoinedPayload, extra map[string]any) {
	publish(ctx, pub, EventObserverJoined, tick, actor, payload, extra)
}

func ObserverLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ObserverLeftPayload, extra map[string]any) {
	publish(ctx, pub, EventObserverLeft, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
