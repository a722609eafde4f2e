package tracker

import (
	"strconv"

	"trackerbot/logging/tracker"
)

// ClampPowerLevel bounds a peer count to [0, MaxPowerLevel].
func ClampPowerLevel(peers int) int {
	if peers < 0 {
		return 0
	}
	if peers > MaxPowerLevel {
		return MaxPowerLevel
	}
	return peers
}

func (b *Bot) checkNearbyBots() {
	origin := b.deps.Body.Position()
	nearby := b.deps.Spatial.QueryNearby(origin, b.cfg.PowerRadius, ClassPawn|ClassPhysicsBody)
	b.deps.Debug.DrawSphere(origin, b.cfg.PowerRadius, DebugWhite, b.cfg.PowerCheckInterval)

	peers := 0
	for _, actor := range nearby {
		if actor.ID != b.id && actor.Class.Matches(ClassTrackerBot) {
			peers++
		}
	}
	b.setPowerLevel(ClampPowerLevel(peers))
}

func (b *Bot) setPowerLevel(level int) {
	previous := b.powerLevel
	b.powerLevel = level
	b.deps.Effects.SetParameter(b.id, ParamPowerLevelAlpha, b.PowerAlpha())
	b.deps.Debug.DrawText(b.deps.Body.Position(), strconv.Itoa(level), DebugWhite, b.cfg.PowerCheckInterval)
	if previous == level {
		return
	}
	tracker.PowerLevelChanged(b.ctx, b.deps.Publisher, b.tick(), b.ref(), tracker.PowerLevelChangedPayload{
		Previous: previous,
		Current:  level,
		Alpha:    b.PowerAlpha(),
	}, nil)
}
