// Package world hosts the authoritative arena: it owns every actor and
// provides the navigation, spatial, health, damage, timer and removal
// services tracker bots consume.
package world

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/logging"
	"trackerbot/logging/lifecycle"
)

// Deps carries optional outputs. Nil fields fall back to no-ops.
type Deps struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
	Effects   tracker.Effects
	Debug     tracker.DebugDrawer
	// NewID issues bot ids; defaults to random UUIDs.
	NewID func() string
}

type healthNotice struct {
	id     string
	health float64
	delta  float64
	cause  string
}

// World is single-threaded: the simulation loop is the only caller.
type World struct {
	cfg       Config
	deps      Deps
	ctx       context.Context
	timers    *Scheduler
	nav       *navGrid
	index     *SpatialIndex
	obstacles []Obstacle
	rng       *rand.Rand

	actors map[string]*actorState
	order  []string

	pending []healthNotice
	tick    uint64

	playerSeq int
	propSeq   int
}

func New(cfg Config, deps Deps) *World {
	cfg = cfg.normalized()
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	w := &World{
		cfg:    cfg,
		deps:   deps,
		ctx:    context.Background(),
		timers: NewScheduler(),
		index:  NewSpatialIndex(cfg.SpatialCellSize),
		rng:    NewDeterministicRNG(cfg.Seed, "spawn"),
		actors: make(map[string]*actorState),
	}
	w.timers.afterFire = w.flushHealth
	if cfg.Obstacles {
		w.obstacles = GenerateObstacles(NewDeterministicRNG(cfg.Seed, "obstacles"), cfg.ObstacleCount, cfg.Width, cfg.Height)
	}
	w.nav = newNavGrid(w.obstacles, cfg.Width, cfg.Height)
	return w
}

// Populate spawns the configured number of players, props and bots at seeded
// positions.
func (w *World) Populate() error {
	for i := 0; i < w.cfg.PlayerCount; i++ {
		w.AddPlayer(randomOpenPosition(w.rng, w.cfg.Width, w.cfg.Height, w.obstacles))
	}
	for i := 0; i < w.cfg.PropCount; i++ {
		w.AddProp(randomOpenPosition(w.rng, w.cfg.Width, w.cfg.Height, w.obstacles))
	}
	for i := 0; i < w.cfg.BotCount; i++ {
		if _, err := w.SpawnBot(randomOpenPosition(w.rng, w.cfg.Width, w.cfg.Height, w.obstacles)); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) Config() Config                 { return w.cfg }
func (w *World) Tick() uint64                   { return w.tick }
func (w *World) Now() time.Duration             { return w.timers.Now() }
func (w *World) Timers() *Scheduler             { return w.timers }
func (w *World) Obstacles() []Obstacle          { return append([]Obstacle(nil), w.obstacles...) }
func (w *World) Dimensions() (float64, float64) { return w.cfg.Width, w.cfg.Height }

func (w *World) insert(actor *actorState) {
	actor.pos = clampToBounds(actor.pos, w.cfg.Width, w.cfg.Height)
	w.actors[actor.id] = actor
	w.order = append(w.order, actor.id)
	w.index.Upsert(actor.id, actor.pos)
}

// SpawnBot adds an authoritative tracker bot and starts it.
func (w *World) SpawnBot(pos Vec2) (string, error) {
	id := w.deps.NewID()
	actor := &actorState{
		id:          id,
		class:       tracker.ClassTrackerBot,
		team:        TeamBots,
		pos:         pos,
		mass:        w.cfg.BotMass,
		health:      HealthState{Health: w.cfg.BotHealth, MaxHealth: w.cfg.BotHealth},
		collision:   true,
		overlapping: make(map[string]struct{}),
	}
	bot, err := tracker.New(id, tracker.RoleAuthority, w.cfg.Tracker, tracker.Deps{
		Body:       botBody{world: w, id: id},
		Timers:     w.timers,
		Navigator:  w,
		Spatial:    w,
		Population: w,
		Identity:   w,
		Damage:     w,
		Remover:    w,
		Effects:    w.deps.Effects,
		Debug:      w.deps.Debug,
		Publisher:  w.deps.Publisher,
		Metrics:    w.deps.Metrics,
		Tick:       w.Tick,
	})
	if err != nil {
		return "", fmt.Errorf("spawn bot: %w", err)
	}
	actor.bot = bot
	w.insert(actor)
	bot.BeginPlay()

	w.deps.Metrics.Add(telemetry.MetricBotsSpawned, 1)
	lifecycle.BotSpawned(w.ctx, w.deps.Publisher, w.tick, logging.BotRef(id), lifecycle.BotSpawnedPayload{
		SpawnX: actor.pos.X,
		SpawnY: actor.pos.Y,
		Team:   actor.team,
	}, nil)
	return id, nil
}

func (w *World) AddPlayer(pos Vec2) string {
	w.playerSeq++
	id := fmt.Sprintf("player-%d", w.playerSeq)
	w.insert(&actorState{
		id:        id,
		class:     tracker.ClassCharacter,
		team:      TeamPlayers,
		pos:       pos,
		health:    HealthState{Health: w.cfg.PlayerHealth, MaxHealth: w.cfg.PlayerHealth},
		collision: true,
	})
	return id
}

// AddProp adds an inert physics body. Props count for spatial queries but
// never take damage.
func (w *World) AddProp(pos Vec2) string {
	w.propSeq++
	id := fmt.Sprintf("prop-%d", w.propSeq)
	w.insert(&actorState{
		id:        id,
		class:     tracker.ClassPhysicsBody,
		team:      TeamNeutral,
		pos:       pos,
		collision: true,
	})
	return id
}

// SetPlayerIntent sets a player's movement direction. Returns false for
// unknown or dead players.
func (w *World) SetPlayerIntent(id string, dx, dy float64) bool {
	actor, ok := w.actors[id]
	if !ok || !actor.class.Matches(tracker.ClassCharacter) || !actor.health.Alive() {
		return false
	}
	actor.intent = Vec2{X: dx, Y: dy}.Normalize()
	return true
}

// Bot returns the controller for a live bot.
func (w *World) Bot(id string) (*tracker.Bot, bool) {
	actor, ok := w.actors[id]
	if !ok || actor.bot == nil {
		return nil, false
	}
	return actor.bot, true
}

// Step advances the arena by dt: timers, bot steering, integration, overlap
// detection, then queued health notifications.
func (w *World) Step(dt time.Duration) {
	w.tick++
	w.timers.Advance(dt)
	w.flushHealth()

	for _, id := range w.snapshotOrder() {
		if actor, ok := w.actors[id]; ok && actor.bot != nil {
			actor.bot.Step()
		}
	}

	w.integrate(dt.Seconds())
	w.detectOverlaps()
	w.flushHealth()

	w.deps.Metrics.Store(telemetry.MetricBotsLive, uint64(w.liveBots()))
}

func (w *World) snapshotOrder() []string {
	return append([]string(nil), w.order...)
}

func (w *World) integrate(dt float64) {
	if dt <= 0 {
		return
	}
	damping := math.Exp(-w.cfg.LinearDamping * dt)
	for _, id := range w.order {
		actor := w.actors[id]
		switch {
		case actor.class.Matches(tracker.ClassCharacter):
			if !actor.health.Alive() {
				continue
			}
			actor.vel = actor.intent.Scale(w.cfg.PlayerSpeed)
		case actor.class.Matches(tracker.ClassTrackerBot):
			if !actor.collision {
				continue
			}
			actor.vel = actor.vel.Add(actor.accel.Scale(dt)).Scale(damping)
			if speed := actor.vel.Len(); speed > w.cfg.MaxSpeed {
				actor.vel = actor.vel.Scale(w.cfg.MaxSpeed / speed)
			}
			actor.accel = Vec2{}
		default:
			continue
		}

		next, ok := w.slide(actor, dt)
		if !ok {
			continue
		}
		actor.pos = next
		w.index.Upsert(actor.id, actor.pos)
	}
}

// slide moves an actor by its velocity. A blocked move falls back to the
// free axis and zeroes the blocked component, so bodies glide along walls.
func (w *World) slide(actor *actorState, dt float64) (Vec2, bool) {
	delta := actor.vel.Scale(dt)
	next := clampToBounds(actor.pos.Add(delta), w.cfg.Width, w.cfg.Height)
	if !blockedByObstacle(next, w.obstacles) {
		return next, true
	}
	if delta.X != 0 {
		next = clampToBounds(actor.pos.Add(Vec2{X: delta.X}), w.cfg.Width, w.cfg.Height)
		if !blockedByObstacle(next, w.obstacles) {
			actor.vel.Y = 0
			return next, true
		}
	}
	if delta.Y != 0 {
		next = clampToBounds(actor.pos.Add(Vec2{Y: delta.Y}), w.cfg.Width, w.cfg.Height)
		if !blockedByObstacle(next, w.obstacles) {
			actor.vel.X = 0
			return next, true
		}
	}
	actor.vel = Vec2{}
	return actor.pos, false
}

func (w *World) liveBots() int {
	count := 0
	for _, actor := range w.actors {
		if actor.bot != nil && !actor.bot.Exploded() {
			count++
		}
	}
	return count
}
