// Package replica mirrors streamed frames onto replica-role tracker bots so an
// observer runs the same cosmetic reactions the authority does.
package replica

import (
	"fmt"
	"sort"
	"time"

	"trackerbot/internal/net/proto"
	"trackerbot/internal/state"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/internal/world"
	"trackerbot/logging"
)

// Deps bundles the observer-side collaborators.
type Deps struct {
	Effects   tracker.Effects
	Debug     tracker.DebugDrawer
	Publisher logging.Publisher
	Logger    telemetry.Logger
}

type body struct {
	pos       state.Vec2
	hidden    bool
	collision bool
}

func (b *body) Position() state.Vec2      { return b.pos }
func (b *body) AddForce(state.Vec2, bool) {}
func (b *body) HideMesh()                 { b.hidden = true }
func (b *body) DisableCollision()         { b.collision = false }

type mirrored struct {
	bot  *tracker.Bot
	body *body
}

// Mirror owns the replica bots for one observer. It is not safe for
// concurrent use.
type Mirror struct {
	cfg     tracker.Config
	deps    Deps
	timers  *world.Scheduler
	bots    map[string]*mirrored
	lastSeq uint64
	tick    uint64
}

func NewMirror(cfg tracker.Config, deps Deps) *Mirror {
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	return &Mirror{
		cfg:    cfg.Normalized(),
		deps:   deps,
		timers: world.NewScheduler(),
		bots:   make(map[string]*mirrored),
	}
}

// Apply mirrors one frame. Frames older than the last applied one are skipped
// unless flagged as a resync. It reports whether the frame was applied.
func (m *Mirror) Apply(frame proto.Frame) (bool, error) {
	if frame.Sequence <= m.lastSeq && !frame.Resync {
		return false, nil
	}
	m.lastSeq = frame.Sequence
	m.tick = frame.Tick

	if at := time.Duration(frame.TimeMillis) * time.Millisecond; at > m.timers.Now() {
		m.timers.Advance(at - m.timers.Now())
	}

	seen := make(map[string]struct{}, len(frame.Bots))
	for _, bf := range frame.Bots {
		seen[bf.ID] = struct{}{}
		entry, ok := m.bots[bf.ID]
		if !ok {
			created, err := m.spawn(bf)
			if err != nil {
				return true, err
			}
			entry = created
		}
		entry.body.pos = bf.Position.Vec2()
		entry.bot.ApplyReplicatedState(bf.ReplicatedState())
	}

	for id, entry := range m.bots {
		if _, ok := seen[id]; ok {
			continue
		}
		entry.bot.EndPlay()
		delete(m.bots, id)
	}
	return true, nil
}

func (m *Mirror) spawn(bf proto.BotFrame) (*mirrored, error) {
	b := &body{pos: bf.Position.Vec2(), collision: true}
	bot, err := tracker.New(bf.ID, tracker.RoleReplica, m.cfg, tracker.Deps{
		Body:      b,
		Timers:    m.timers,
		Effects:   m.deps.Effects,
		Debug:     m.deps.Debug,
		Publisher: m.deps.Publisher,
		Tick:      func() uint64 { return m.tick },
	})
	if err != nil {
		return nil, fmt.Errorf("mirror bot %s: %w", bf.ID, err)
	}
	bot.BeginPlay()
	entry := &mirrored{bot: bot, body: b}
	m.bots[bf.ID] = entry
	m.deps.Logger.Printf("[replica] mirroring bot %s", bf.ID)
	return entry, nil
}

// Bot returns the replica for id.
func (m *Mirror) Bot(id string) (*tracker.Bot, bool) {
	entry, ok := m.bots[id]
	if !ok {
		return nil, false
	}
	return entry.bot, true
}

// IDs lists mirrored bots in sorted order.
func (m *Mirror) IDs() []string {
	ids := make([]string, 0, len(m.bots))
	for id := range m.bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Mirror) Len() int {
	return len(m.bots)
}

// LastSequence is the sequence of the last applied frame.
func (m *Mirror) LastSequence() uint64 {
	return m.lastSeq
}

// Now is the observer's simulated clock, driven by frame times.
func (m *Mirror) Now() time.Duration {
	return m.timers.Now()
}
