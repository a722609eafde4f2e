package tracker

import "trackerbot/internal/state"

// ReplicatedState is the slice of authority state mirrored onto replicas.
type ReplicatedState struct {
	Waypoint            state.Vec2
	PowerLevel          int
	Health              float64
	SelfDestructStarted bool
	Exploded            bool
}

// Snapshot captures the state a replica needs to mirror this bot.
func (b *Bot) Snapshot() ReplicatedState {
	return ReplicatedState{
		Waypoint:            b.waypoint,
		PowerLevel:          b.powerLevel,
		Health:              b.health,
		SelfDestructStarted: b.started,
		Exploded:            b.exploded,
	}
}

// ApplyReplicatedState mirrors authority state onto a replica and runs the
// cosmetic reactions it implies. The authority ignores it.
func (b *Bot) ApplyReplicatedState(s ReplicatedState) {
	if b.role == RoleAuthority || b.exploded {
		return
	}
	b.waypoint = s.Waypoint
	if level := ClampPowerLevel(s.PowerLevel); level != b.powerLevel {
		b.setPowerLevel(level)
	}
	if s.SelfDestructStarted && !b.started {
		b.started = true
		if !b.cueLatched {
			b.cueLatched = true
			b.deps.Effects.PlaySoundAttached(SoundSelfDestruct, b.id)
		}
	}
	if s.Health != b.health || s.Exploded {
		health := s.Health
		if s.Exploded && health > 0 {
			health = 0
		}
		b.HandleHealthChanged(health, health-b.health, "")
	}
}
