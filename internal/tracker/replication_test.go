package tracker

import (
	"strings"
	"testing"
	"time"

	"trackerbot/internal/state"
)

func TestReplicaEntryPointsAreSilentNoOps(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleReplica, DefaultConfig())
	host.actors = []Actor{character("player-1", 900, 0)}
	host.health["player-1"] = 100
	host.nearby = []Actor{peerBot("peer", 10, 0)}

	bot.BeginPlay()
	bot.Step()
	host.timers.Advance(10 * time.Second)

	if host.navCalls != 0 {
		t.Fatalf("expected replica not to request paths, got %d", host.navCalls)
	}
	if host.timers.Pending() != 0 {
		t.Fatalf("expected replica to arm no timers, got %d", host.timers.Pending())
	}
	if len(host.forces) != 0 {
		t.Fatalf("expected replica not to move, got %d forces", len(host.forces))
	}
	if bot.PowerLevel() != 0 {
		t.Fatalf("expected replica power level untouched, got %d", bot.PowerLevel())
	}
}

func TestReplicaOverlapOnlyPlaysCue(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleReplica, DefaultConfig())

	bot.HandleOverlap(character("player-1", 0, 0))
	bot.HandleOverlap(character("player-1", 0, 0))
	host.timers.Advance(time.Second)

	if len(host.damage) != 0 {
		t.Fatalf("expected replica never to apply self damage, got %d", len(host.damage))
	}
	if bot.SelfDestructStarted() {
		t.Fatalf("expected replica arming state to come only from replication")
	}
	if len(host.sounds) != 1 || host.sounds[0] != SoundSelfDestruct {
		t.Fatalf("expected a single self destruct cue, got %v", host.sounds)
	}
}

func TestReplicaDetonationIsCosmetic(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleReplica, DefaultConfig())

	bot.HandleHealthChanged(0, -20, "")
	bot.HandleHealthChanged(0, 0, "")

	if !bot.Exploded() {
		t.Fatalf("expected replica to mark itself exploded")
	}
	if len(host.effects) != 1 || !host.hidden || !host.collisionOff {
		t.Fatalf("expected cosmetic explosion once, got effects=%v hidden=%v", host.effects, host.hidden)
	}
	if len(host.radial) != 0 {
		t.Fatalf("expected no radial damage from a replica, got %d", len(host.radial))
	}
	if host.timers.Pending() != 0 || len(host.destroyed) != 0 {
		t.Fatalf("expected replica not to schedule its own removal")
	}
}

func TestApplyReplicatedStateMirrorsAuthority(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleReplica, DefaultConfig())

	bot.ApplyReplicatedState(ReplicatedState{Waypoint: state.Vec2{X: 5, Y: 6}, PowerLevel: 9, Health: 100})
	if bot.PowerLevel() != MaxPowerLevel {
		t.Fatalf("expected replicated power clamped to %d, got %d", MaxPowerLevel, bot.PowerLevel())
	}
	if bot.Waypoint() != (state.Vec2{X: 5, Y: 6}) {
		t.Fatalf("expected replicated waypoint, got %+v", bot.Waypoint())
	}
	if host.params[ParamPowerLevelAlpha] != 1 {
		t.Fatalf("expected alpha parameter 1, got %v", host.params[ParamPowerLevelAlpha])
	}

	bot.ApplyReplicatedState(ReplicatedState{PowerLevel: 4, Health: 80, SelfDestructStarted: true})
	bot.ApplyReplicatedState(ReplicatedState{PowerLevel: 4, Health: 60, SelfDestructStarted: true})
	if !bot.SelfDestructStarted() || len(host.sounds) != 1 {
		t.Fatalf("expected one cue for replicated arming, got %v", host.sounds)
	}

	bot.ApplyReplicatedState(ReplicatedState{PowerLevel: 4, Health: 0, SelfDestructStarted: true, Exploded: true})
	if !bot.Exploded() || len(host.effects) != 1 {
		t.Fatalf("expected cosmetic explosion, got exploded=%v effects=%v", bot.Exploded(), host.effects)
	}
	if len(host.radial) != 0 {
		t.Fatalf("expected no blast on the replica")
	}
}

func TestApplyReplicatedStateIgnoredByAuthority(t *testing.T) {
	bot, _, _ := newTestBot(t, RoleAuthority, DefaultConfig())
	bot.ApplyReplicatedState(ReplicatedState{PowerLevel: 3, Health: 0, Exploded: true})
	if bot.PowerLevel() != 0 || bot.Exploded() {
		t.Fatalf("expected authority to ignore replicated state")
	}
}

func TestSnapshotReflectsAuthorityState(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleAuthority, DefaultConfig())
	host.health["bot-1"] = 1000
	bot.BeginPlay()
	bot.HandleOverlap(character("player-1", 0, 0))

	snap := bot.Snapshot()
	if !snap.SelfDestructStarted || snap.Exploded {
		t.Fatalf("expected armed snapshot, got %+v", snap)
	}
	if snap.Health != 980 {
		t.Fatalf("expected health 980, got %v", snap.Health)
	}
}

func TestNewValidatesCollaborators(t *testing.T) {
	if _, err := New("bot", RoleReplica, DefaultConfig(), Deps{}); err == nil {
		t.Fatalf("expected missing body to be rejected")
	}

	host := newFakeHost()
	if _, err := New("bot", RoleReplica, DefaultConfig(), Deps{Body: host}); err != nil {
		t.Fatalf("expected replica with only a body to construct, got %v", err)
	}

	_, err := New("bot", RoleAuthority, DefaultConfig(), Deps{Body: host, Timers: host.timers})
	if err == nil {
		t.Fatalf("expected authority without collaborators to be rejected")
	}
	if !strings.Contains(err.Error(), "navigator") {
		t.Fatalf("expected error to name the navigator, got %v", err)
	}
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{ExplosionDamage: -1, SelfDamage: -1, SelfDamageInterval: -time.Second}.Normalized()
	def := DefaultConfig()
	if cfg != def {
		t.Fatalf("expected zero config to normalize to defaults, got %+v", cfg)
	}
	custom := Config{ExplosionDamage: 0, MovementForce: 50}.Normalized()
	if custom.ExplosionDamage != 0 || custom.MovementForce != 50 {
		t.Fatalf("expected explicit values preserved, got %+v", custom)
	}
}
