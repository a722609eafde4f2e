// Package tracker implements the rolling tracker bot: it chases the nearest
// hostile, grows stronger next to its peers and blows itself up on contact.
//
// Every collaborator is injected through Deps so the bot can run inside the
// arena host, inside an observer replica, or against test fakes.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"trackerbot/internal/state"
	"trackerbot/internal/telemetry"
	"trackerbot/logging"
)

// Deps bundles the capabilities a bot consumes. Replicas only need Body; the
// authority needs everything except Effects, Debug, Publisher, Metrics and
// Tick, which fall back to no-ops.
type Deps struct {
	Body       Body
	Timers     Timers
	Navigator  Navigator
	Spatial    SpatialQuery
	Population Population
	Identity   Identity
	Damage     Damage
	Remover    Remover
	Effects    Effects
	Debug      DebugDrawer
	Publisher  logging.Publisher
	Metrics    telemetry.Metrics
	// Tick reports the host simulation tick stamped on published events.
	Tick func() uint64
}

var errMissingBody = errors.New("tracker: body is required")

// Bot is one tracker bot. It is not safe for concurrent use: the host calls
// every entry point from its simulation goroutine.
type Bot struct {
	id   string
	role Role
	cfg  Config
	deps Deps
	ctx  context.Context

	waypoint   state.Vec2
	targetID   string
	powerLevel int
	lastForce  state.Vec2

	started  bool
	exploded bool
	// cueLatched keeps a replica from replaying the self-destruct cue.
	cueLatched bool

	health         float64
	lastDamageTime float64

	refreshTimer    TimerHandle
	powerTimer      TimerHandle
	selfDamageTimer TimerHandle
	lifespanTimer   TimerHandle
}

// New builds a bot. Config values are normalized rather than rejected.
func New(id string, role Role, cfg Config, deps Deps) (*Bot, error) {
	if deps.Body == nil {
		return nil, errMissingBody
	}
	if role == RoleAuthority {
		if err := deps.validateAuthority(); err != nil {
			return nil, fmt.Errorf("tracker: bot %s: %w", id, err)
		}
	}
	if deps.Effects == nil {
		deps.Effects = nopEffects{}
	}
	if deps.Debug == nil || !cfg.DebugDraw {
		deps.Debug = nopDebug{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	return &Bot{
		id:   id,
		role: role,
		cfg:  cfg.Normalized(),
		deps: deps,
		ctx:  context.Background(),
	}, nil
}

func (d Deps) validateAuthority() error {
	missing := make([]string, 0, 7)
	if d.Timers == nil {
		missing = append(missing, "timers")
	}
	if d.Navigator == nil {
		missing = append(missing, "navigator")
	}
	if d.Spatial == nil {
		missing = append(missing, "spatial query")
	}
	if d.Population == nil {
		missing = append(missing, "population")
	}
	if d.Identity == nil {
		missing = append(missing, "identity")
	}
	if d.Damage == nil {
		missing = append(missing, "damage")
	}
	if d.Remover == nil {
		missing = append(missing, "remover")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing collaborators %v", missing)
	}
	return nil
}

// BeginPlay computes the first waypoint and starts the power-level monitor.
func (b *Bot) BeginPlay() {
	if b.deps.Identity != nil {
		b.health = b.deps.Identity.CurrentHealth(b.id)
	}
	if !b.authoritative() {
		return
	}
	b.waypoint = b.nextWaypoint()
	b.powerTimer = b.deps.Timers.SetRepeating(b.cfg.PowerCheckInterval, b.guarded(b.checkNearbyBots))
}

// Step runs one simulation step: re-path on arrival, otherwise push toward the
// waypoint.
func (b *Bot) Step() {
	if !b.authoritative() {
		return
	}
	b.followPath()
}

// EndPlay cancels every outstanding timer. Hosts call it when the bot is
// removed for any reason.
func (b *Bot) EndPlay() {
	if b.deps.Timers == nil {
		return
	}
	for _, handle := range []*TimerHandle{&b.refreshTimer, &b.powerTimer, &b.selfDamageTimer, &b.lifespanTimer} {
		if *handle != 0 {
			b.deps.Timers.Cancel(*handle)
			*handle = 0
		}
	}
}

// authoritative is the single gate for state mutation. Replicas and exploded
// bots fall through silently.
func (b *Bot) authoritative() bool {
	return b.role == RoleAuthority && !b.exploded
}

// guarded wraps a timer callback in the authority gate.
func (b *Bot) guarded(fn func()) func() {
	return func() {
		if !b.authoritative() {
			return
		}
		fn()
	}
}

func (b *Bot) tick() uint64 {
	if b.deps.Tick == nil {
		return 0
	}
	return b.deps.Tick()
}

func (b *Bot) ref() logging.EntityRef {
	return logging.BotRef(b.id)
}

// ID is the host-assigned entity id.
func (b *Bot) ID() string { return b.id }

// Role reports whether this copy is the authority or a replica.
func (b *Bot) Role() Role { return b.role }

// Config is the normalized tuning the bot runs with.
func (b *Bot) Config() Config { return b.cfg }

// Position reads the body's current location.
func (b *Bot) Position() state.Vec2 { return b.deps.Body.Position() }

// Waypoint is the point the bot is currently steering toward.
func (b *Bot) Waypoint() state.Vec2 { return b.waypoint }

// PowerLevel is the last clamped count of nearby peers.
func (b *Bot) PowerLevel() int { return b.powerLevel }

// Exploded reports whether the bot has detonated.
func (b *Bot) Exploded() bool { return b.exploded }

// Health is the last value delivered by the health notification.
func (b *Bot) Health() float64 { return b.health }

// LastForce is the impulse applied on the most recent step.
func (b *Bot) LastForce() state.Vec2 { return b.lastForce }

// SelfDestructStarted reports whether arming has begun. On a replica it
// reflects the replicated flag.
func (b *Bot) SelfDestructStarted() bool { return b.started }

// Target returns the id of the hostile the current path leads to.
func (b *Bot) Target() (string, bool) {
	return b.targetID, b.targetID != ""
}

// PowerAlpha is the power level normalized to [0, 1].
func (b *Bot) PowerAlpha() float64 {
	return float64(b.powerLevel) / float64(MaxPowerLevel)
}

// LastDamageTime is the host time, in seconds, of the most recent health change.
func (b *Bot) LastDamageTime() float64 { return b.lastDamageTime }
