package tracker

import (
	"sort"
	"testing"
	"time"

	"trackerbot/internal/state"
	"trackerbot/logging/sinks"
)

type fakeTimer struct {
	handle TimerHandle
	due    time.Duration
	period time.Duration
	fn     func()
}

// fakeTimers is a manually advanced scheduler.
type fakeTimers struct {
	now    time.Duration
	next   TimerHandle
	timers map[TimerHandle]*fakeTimer
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{timers: make(map[TimerHandle]*fakeTimer)}
}

func (f *fakeTimers) SetTimer(delay time.Duration, fn func()) TimerHandle {
	return f.add(delay, 0, fn)
}

func (f *fakeTimers) SetRepeating(period time.Duration, fn func()) TimerHandle {
	return f.add(period, period, fn)
}

func (f *fakeTimers) add(delay, period time.Duration, fn func()) TimerHandle {
	f.next++
	f.timers[f.next] = &fakeTimer{handle: f.next, due: f.now + delay, period: period, fn: fn}
	return f.next
}

func (f *fakeTimers) Cancel(handle TimerHandle) {
	delete(f.timers, handle)
}

func (f *fakeTimers) Now() time.Duration { return f.now }

func (f *fakeTimers) Pending() int { return len(f.timers) }

func (f *fakeTimers) Advance(d time.Duration) {
	end := f.now + d
	for {
		due := f.dueTimers(end)
		if len(due) == 0 {
			break
		}
		timer := due[0]
		f.now = timer.due
		if timer.period > 0 {
			timer.due += timer.period
		} else {
			delete(f.timers, timer.handle)
		}
		timer.fn()
	}
	f.now = end
}

func (f *fakeTimers) dueTimers(end time.Duration) []*fakeTimer {
	var due []*fakeTimer
	for _, timer := range f.timers {
		if timer.due <= end {
			due = append(due, timer)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due == due[j].due {
			return due[i].handle < due[j].handle
		}
		return due[i].due < due[j].due
	})
	return due
}

type forceCall struct {
	force          state.Vec2
	velocityChange bool
}

type damageCall struct {
	target string
	amount float64
	cause  string
	at     time.Duration
}

type radialCall struct {
	origin   state.Vec2
	amount   float64
	radius   float64
	excluded []string
}

// fakeHost plays every collaborator role for a single bot.
type fakeHost struct {
	timers   *fakeTimers
	bot      *Bot
	pos      state.Vec2
	actors   []Actor
	nearby   []Actor
	friendly map[string]bool
	health   map[string]float64
	path     func(from, to state.Vec2) []state.Vec2

	navCalls     int
	forces       []forceCall
	damage       []damageCall
	radial       []radialCall
	destroyed    []string
	effects      []string
	sounds       []string
	params       map[string]float64
	hidden       bool
	collisionOff bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		timers:   newFakeTimers(),
		friendly: make(map[string]bool),
		health:   make(map[string]float64),
		params:   make(map[string]float64),
	}
}

func (h *fakeHost) Position() state.Vec2 { return h.pos }

func (h *fakeHost) AddForce(force state.Vec2, velocityChange bool) {
	h.forces = append(h.forces, forceCall{force: force, velocityChange: velocityChange})
}

func (h *fakeHost) HideMesh()         { h.hidden = true }
func (h *fakeHost) DisableCollision() { h.collisionOff = true }

func (h *fakeHost) FindPath(from, to state.Vec2) []state.Vec2 {
	h.navCalls++
	if h.path == nil {
		return []state.Vec2{from, to}
	}
	return h.path(from, to)
}

func (h *fakeHost) QueryNearby(origin state.Vec2, radius float64, filter ActorClass) []Actor {
	var out []Actor
	for _, actor := range h.nearby {
		if actor.Class.Matches(filter) && origin.Dist(actor.Position) <= radius {
			out = append(out, actor)
		}
	}
	return out
}

func (h *fakeHost) Actors() []Actor { return h.actors }

func (h *fakeHost) IsFriendly(a, b string) bool { return h.friendly[b] }

func (h *fakeHost) CurrentHealth(id string) float64 { return h.health[id] }

func (h *fakeHost) ApplyDamage(target string, amount float64, instigator, cause string) {
	h.damage = append(h.damage, damageCall{target: target, amount: amount, cause: cause, at: h.timers.now})
	h.health[target] -= amount
	if h.bot != nil && target == h.bot.ID() {
		h.bot.HandleHealthChanged(h.health[target], -amount, cause)
	}
}

func (h *fakeHost) ApplyRadialDamage(origin state.Vec2, amount, radius float64, excluded []string, instigator, cause string) {
	h.radial = append(h.radial, radialCall{origin: origin, amount: amount, radius: radius, excluded: excluded})
}

func (h *fakeHost) Destroy(id string) { h.destroyed = append(h.destroyed, id) }

func (h *fakeHost) SpawnEffect(kind string, at state.Vec2) { h.effects = append(h.effects, kind) }

func (h *fakeHost) PlaySoundAt(cue string, at state.Vec2) { h.sounds = append(h.sounds, cue) }

func (h *fakeHost) PlaySoundAttached(cue string, actorID string) {
	h.sounds = append(h.sounds, cue)
}

func (h *fakeHost) SetParameter(actorID, name string, value float64) { h.params[name] = value }

func (h *fakeHost) deps(pub *sinks.MemorySink) Deps {
	return Deps{
		Body:       h,
		Timers:     h.timers,
		Navigator:  h,
		Spatial:    h,
		Population: h,
		Identity:   h,
		Damage:     h,
		Remover:    h,
		Effects:    h,
		Publisher:  pub,
	}
}

func newTestBot(t *testing.T, role Role, cfg Config) (*Bot, *fakeHost, *sinks.MemorySink) {
	t.Helper()
	host := newFakeHost()
	host.health["bot-1"] = 100
	mem := sinks.NewMemorySink()
	bot, err := New("bot-1", role, cfg, host.deps(mem))
	if err != nil {
		t.Fatalf("expected bot to construct, got %v", err)
	}
	host.bot = bot
	return bot, host, mem
}

func character(id string, x, y float64) Actor {
	return Actor{ID: id, Class: ClassCharacter, Position: state.Vec2{X: x, Y: y}}
}

func peerBot(id string, x, y float64) Actor {
	return Actor{ID: id, Class: ClassTrackerBot, Position: state.Vec2{X: x, Y: y}}
}
