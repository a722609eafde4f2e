package tracker

import (
	"time"

	"trackerbot/internal/state"
)

// Role says whether this copy of a bot owns canonical state.
type Role uint8

const (
	RoleAuthority Role = iota
	RoleReplica
)

func (r Role) String() string {
	if r == RoleReplica {
		return "replica"
	}
	return "authority"
}

// ActorClass is a bitmask used both to classify actors and to filter spatial
// queries.
type ActorClass uint8

const (
	ClassCharacter ActorClass = 1 << iota
	ClassTrackerBot
	ClassPhysicsBody

	// ClassPawn matches anything that can be possessed: characters and bots.
	ClassPawn = ClassCharacter | ClassTrackerBot
)

// Matches reports whether the class shares at least one bit with filter.
func (c ActorClass) Matches(filter ActorClass) bool {
	return c&filter != 0
}

// Actor is a read-only view of another entity. Holding one does not keep the
// entity alive.
type Actor struct {
	ID       string
	Class    ActorClass
	Position state.Vec2
}

type Navigator interface {
	// FindPath returns the route from one point to another including the
	// start. Fewer than two points means no usable path.
	FindPath(from, to state.Vec2) []state.Vec2
}

type SpatialQuery interface {
	QueryNearby(origin state.Vec2, radius float64, filter ActorClass) []Actor
}

// Population enumerates every live actor in a stable host-defined order.
type Population interface {
	Actors() []Actor
}

type Identity interface {
	IsFriendly(a, b string) bool
	CurrentHealth(id string) float64
}

type Damage interface {
	ApplyDamage(target string, amount float64, instigator, cause string)
	ApplyRadialDamage(origin state.Vec2, amount, radius float64, excluded []string, instigator, cause string)
}

// Effect and sound identifiers understood by effect players.
const (
	EffectExplosion   = "explosion"
	SoundSelfDestruct = "self_destruct"
	SoundExplosion    = "explosion"

	ParamPowerLevelAlpha     = "PowerLevelAlpha"
	ParamLastTimeDamageTaken = "LastTimeDamageTaken"
)

// Effects plays purely cosmetic output. Every role may call it.
type Effects interface {
	SpawnEffect(kind string, at state.Vec2)
	PlaySoundAt(cue string, at state.Vec2)
	PlaySoundAttached(cue string, actorID string)
	SetParameter(actorID, name string, value float64)
}

// TimerHandle identifies a scheduled callback. The zero handle is never issued.
type TimerHandle uint64

type Timers interface {
	SetTimer(delay time.Duration, fn func()) TimerHandle
	SetRepeating(period time.Duration, fn func()) TimerHandle
	Cancel(handle TimerHandle)
	Now() time.Duration
}

// Body is the physical representation of the bot itself.
type Body interface {
	Position() state.Vec2
	AddForce(force state.Vec2, velocityChange bool)
	HideMesh()
	DisableCollision()
}

type Remover interface {
	Destroy(id string)
}

type DebugColor string

const (
	DebugYellow DebugColor = "yellow"
	DebugGreen  DebugColor = "green"
	DebugWhite  DebugColor = "white"
	DebugRed    DebugColor = "red"
)

// DebugDrawer receives diagnostic shapes when debug drawing is enabled.
type DebugDrawer interface {
	DrawSphere(center state.Vec2, radius float64, color DebugColor, ttl time.Duration)
	DrawArrow(from, to state.Vec2, color DebugColor)
	DrawText(at state.Vec2, text string, color DebugColor, ttl time.Duration)
}

type nopEffects struct{}

func (nopEffects) SpawnEffect(string, state.Vec2)       {}
func (nopEffects) PlaySoundAt(string, state.Vec2)       {}
func (nopEffects) PlaySoundAttached(string, string)     {}
func (nopEffects) SetParameter(string, string, float64) {}

type nopDebug struct{}

func (nopDebug) DrawSphere(state.Vec2, float64, DebugColor, time.Duration) {}
func (nopDebug) DrawArrow(state.Vec2, state.Vec2, DebugColor)              {}
func (nopDebug) DrawText(state.Vec2, string, DebugColor, time.Duration)    {}
