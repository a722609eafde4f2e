package tracker

import (
	"testing"
	"time"

	"trackerbot/internal/state"
	"trackerbot/logging/tracker"
)

func TestExplosionDamageScalesWithPower(t *testing.T) {
	tests := []struct {
		base  float64
		power int
		want  float64
	}{
		{base: 40, power: 0, want: 40},
		{base: 40, power: 2, want: 120},
		{base: 40, power: 3, want: 160},
		{base: 40, power: 4, want: 200},
	}
	for _, tc := range tests {
		if got := ExplosionDamage(tc.base, tc.power); got != tc.want {
			t.Fatalf("expected %v for base %v power %d, got %v", tc.want, tc.base, tc.power, got)
		}
	}
}

func TestOverlapSelfDamageCadence(t *testing.T) {
	bot, host, mem := newTestBot(t, RoleAuthority, DefaultConfig())
	host.health["bot-1"] = 60
	bot.BeginPlay()

	bot.HandleOverlap(character("player-1", 50, 0))
	host.timers.Advance(time.Second)

	var selfHits []time.Duration
	for _, call := range host.damage {
		if call.target == "bot-1" {
			if call.amount != DefaultSelfDamage {
				t.Fatalf("expected self damage %v, got %v", DefaultSelfDamage, call.amount)
			}
			selfHits = append(selfHits, call.at)
		}
	}
	want := []time.Duration{0, 250 * time.Millisecond, 500 * time.Millisecond}
	if len(selfHits) != len(want) {
		t.Fatalf("expected %d self hits, got %v", len(want), selfHits)
	}
	for i := range want {
		if selfHits[i] != want[i] {
			t.Fatalf("expected hit %d at %v, got %v", i, want[i], selfHits[i])
		}
	}
	if !bot.Exploded() {
		t.Fatalf("expected bot to explode once health reached zero")
	}
	if got := len(mem.EventsOfType(tracker.EventSelfDestructStarted)); got != 1 {
		t.Fatalf("expected 1 self destruct event, got %d", got)
	}
	if got := len(mem.EventsOfType(tracker.EventHealthChanged)); got != 3 {
		t.Fatalf("expected 3 health events, got %d", got)
	}
}

func TestOverlapArmsAtMostOnce(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleAuthority, DefaultConfig())
	host.health["bot-1"] = 1000
	bot.BeginPlay()

	bot.HandleOverlap(character("player-1", 0, 0))
	bot.HandleOverlap(character("player-2", 0, 0))
	host.timers.Advance(250 * time.Millisecond)

	if !bot.SelfDestructStarted() {
		t.Fatalf("expected self destruction to have started")
	}
	if len(host.damage) != 2 {
		t.Fatalf("expected 2 self hits from a single timer, got %d", len(host.damage))
	}
	cues := 0
	for _, cue := range host.sounds {
		if cue == SoundSelfDestruct {
			cues++
		}
	}
	if cues != 1 {
		t.Fatalf("expected 1 self destruct cue, got %d", cues)
	}
}

func TestOverlapIgnoresFriendliesAndNonCharacters(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleAuthority, DefaultConfig())
	host.friendly["ally"] = true
	bot.BeginPlay()

	bot.HandleOverlap(character("ally", 0, 0))
	bot.HandleOverlap(peerBot("bot-2", 0, 0))
	bot.HandleOverlap(Actor{ID: "crate", Class: ClassPhysicsBody})

	if bot.SelfDestructStarted() {
		t.Fatalf("expected bot to stay idle")
	}
	if len(host.damage) != 0 {
		t.Fatalf("expected no self damage, got %d", len(host.damage))
	}
}

func TestDetonationAppliesScaledRadialDamageOnce(t *testing.T) {
	bot, host, mem := newTestBot(t, RoleAuthority, DefaultConfig())
	host.pos = state.Vec2{X: 30, Y: 40}
	host.nearby = []Actor{peerBot("a", 0, 0), peerBot("b", 0, 0), peerBot("c", 0, 0)}
	bot.BeginPlay()
	host.timers.Advance(time.Second)
	if bot.PowerLevel() != 3 {
		t.Fatalf("expected power level 3, got %d", bot.PowerLevel())
	}

	bot.HandleHealthChanged(0, -100, "test")
	bot.HandleHealthChanged(0, 0, "test")
	bot.HandleHealthChanged(-20, -20, "test")

	if len(host.radial) != 1 {
		t.Fatalf("expected 1 radial damage call, got %d", len(host.radial))
	}
	blast := host.radial[0]
	if blast.amount != 160 {
		t.Fatalf("expected 160 radial damage, got %v", blast.amount)
	}
	if blast.radius != DefaultExplosionRadius || blast.origin != host.pos {
		t.Fatalf("expected blast at %+v r=%v, got %+v r=%v", host.pos, DefaultExplosionRadius, blast.origin, blast.radius)
	}
	if len(blast.excluded) != 1 || blast.excluded[0] != "bot-1" {
		t.Fatalf("expected bot to exclude itself, got %v", blast.excluded)
	}
	if !host.hidden || !host.collisionOff {
		t.Fatalf("expected mesh hidden and collision disabled")
	}
	if len(host.effects) != 1 || host.effects[0] != EffectExplosion {
		t.Fatalf("expected one explosion effect, got %v", host.effects)
	}
	if got := len(mem.EventsOfType(tracker.EventDetonated)); got != 1 {
		t.Fatalf("expected 1 detonation event, got %d", got)
	}

	host.timers.Advance(1900 * time.Millisecond)
	if len(host.destroyed) != 0 {
		t.Fatalf("expected bot to linger until lifespan, got %v", host.destroyed)
	}
	host.timers.Advance(100 * time.Millisecond)
	if len(host.destroyed) != 1 || host.destroyed[0] != "bot-1" {
		t.Fatalf("expected bot removed after 2s, got %v", host.destroyed)
	}
	if host.timers.Pending() != 0 {
		t.Fatalf("expected every timer released, got %d", host.timers.Pending())
	}
}

func TestExplodedBotIsInert(t *testing.T) {
	bot, host, mem := newTestBot(t, RoleAuthority, DefaultConfig())
	host.actors = []Actor{character("player-1", 800, 0)}
	host.health["player-1"] = 100
	bot.BeginPlay()
	bot.HandleHealthChanged(0, -100, "test")

	waypoint := bot.Waypoint()
	calls := host.navCalls
	bot.Step()
	bot.HandleOverlap(character("player-1", 0, 0))
	bot.damageSelf()
	bot.HandleHealthChanged(-20, -20, "test")
	host.nearby = []Actor{peerBot("peer", 0, 0)}
	host.timers.Advance(10 * time.Second)

	if len(host.forces) != 0 {
		t.Fatalf("expected no movement after exploding, got %d forces", len(host.forces))
	}
	if len(host.damage) != 0 {
		t.Fatalf("expected no self damage after exploding, got %d", len(host.damage))
	}
	if bot.SelfDestructStarted() {
		t.Fatalf("expected overlap to be ignored after exploding")
	}
	if bot.Waypoint() != waypoint || host.navCalls != calls {
		t.Fatalf("expected path state frozen after exploding")
	}
	if bot.PowerLevel() != 0 {
		t.Fatalf("expected power level frozen at 0, got %d", bot.PowerLevel())
	}
	if len(host.radial) != 1 {
		t.Fatalf("expected exactly one blast, got %d", len(host.radial))
	}	if bot.Health() != 0 {
		t.Fatalf("expected health frozen at 0, got %v", bot.Health())
	}
	if got := len(mem.EventsOfType(tracker.EventHealthChanged)); got != 1 {
		t.Fatalf("expected only the fatal health event, got %d", got)
	}
}

func TestScenarioContactToRemoval(t *testing.T) {
	bot, host, _ := newTestBot(t, RoleAuthority, DefaultConfig())
	host.health["bot-1"] = 60
	host.nearby = []Actor{peerBot("a", 0, 0), peerBot("b", 0, 0), peerBot("c", 0, 0)}
	bot.BeginPlay()
	host.timers.Advance(time.Second)

	bot.HandleOverlap(character("player-1", 10, 0))
	host.timers.Advance(500 * time.Millisecond)
	if !bot.Exploded() {
		t.Fatalf("expected explosion after three self hits")
	}
	if len(host.radial) != 1 || host.radial[0].amount != 160 {
		t.Fatalf("expected single 160 blast, got %+v", host.radial)
	}
	host.timers.Advance(2 * time.Second)
	if len(host.destroyed) != 1 {
		t.Fatalf("expected removal two seconds after detonation, got %v", host.destroyed)
	}
}
