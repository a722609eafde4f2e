package sim

import (
	"context"
	"sync"
	"time"

	"trackerbot/internal/telemetry"
	"trackerbot/internal/world"
	"trackerbot/logging"
	"trackerbot/logging/simulation"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-actor
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
)

const (
	DefaultTickRate        = 30
	DefaultCatchupMaxTicks = 3
	DefaultCommandCapacity = 1024
	DefaultPerActorLimit   = 16
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int `json:"tickRate" yaml:"tickRate" jsonschema:"minimum=1"`
	CatchupMaxTicks int `json:"catchupMaxTicks" yaml:"catchupMaxTicks" jsonschema:"minimum=1"`
	CommandCapacity int `json:"commandCapacity" yaml:"commandCapacity" jsonschema:"minimum=1"`
	PerActorLimit   int `json:"perActorLimit" yaml:"perActorLimit" jsonschema:"minimum=0"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickRate:        DefaultTickRate,
		CatchupMaxTicks: DefaultCatchupMaxTicks,
		CommandCapacity: DefaultCommandCapacity,
		PerActorLimit:   DefaultPerActorLimit,
	}
}

func (c LoopConfig) Normalized() LoopConfig {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.CatchupMaxTicks < 1 {
		c.CatchupMaxTicks = DefaultCatchupMaxTicks
	}
	if c.CommandCapacity < 1 {
		c.CommandCapacity = DefaultCommandCapacity
	}
	if c.PerActorLimit < 0 {
		c.PerActorLimit = 0
	}
	return c
}

// Deps carries shared infrastructure for the loop.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

// LoopHooks lets the owner observe the loop without subclassing it.
type LoopHooks struct {
	AfterStep     func(LoopStepResult)
	OnCommandDrop func(reason string, cmd Command)
}

type LoopStepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        time.Duration
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	Snapshot     world.Snapshot
	Commands     []Command
}

// Loop coordinates command ingestion and the fixed-timestep simulation runner.
type Loop struct {
	engine Engine
	buffer *CommandBuffer
	hooks  LoopHooks
	config LoopConfig
	deps   Deps
	ctx    context.Context

	queueMu       sync.Mutex
	perActorCount map[string]int
	dropCounts    map[string]uint64

	tick          uint64
	overrunStreak uint64
}

func NewLoop(engine Engine, cfg LoopConfig, deps Deps, hooks LoopHooks) *Loop {
	cfg = cfg.Normalized()
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = logging.SystemClock{}
	}
	return &Loop{
		engine:        engine,
		buffer:        NewCommandBuffer(cfg.CommandCapacity, deps.Metrics),
		hooks:         hooks,
		config:        cfg,
		deps:          deps,
		ctx:           context.Background(),
		perActorCount: make(map[string]int),
		dropCounts:    make(map[string]uint64),
	}
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	return l.buffer.Len()
}

// Enqueue stages a command, enforcing per-actor throttling and capacity limits.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	reason := ""
	var dropCount uint64
	l.queueMu.Lock()
	if l.config.PerActorLimit > 0 && cmd.ActorID != "" {
		count := l.perActorCount[cmd.ActorID]
		if count >= l.config.PerActorLimit {
			reason = CommandRejectQueueLimit
			dropCount = l.incrementDropLocked(cmd.ActorID)
		} else {
			l.perActorCount[cmd.ActorID] = count + 1
		}
	}
	if reason == "" && !l.buffer.Push(cmd) {
		reason = CommandRejectQueueFull
		dropCount = l.incrementDropLocked(cmd.ActorID)
	}
	l.queueMu.Unlock()

	if reason != "" {
		l.reportDrop(reason, cmd, dropCount)
		return false, reason
	}
	return true, ""
}

// Advance executes a single simulation step using the staged commands.
func (l *Loop) Advance(now time.Time, dt time.Duration) LoopStepResult {
	commands := l.drainCommands()
	if err := l.engine.Apply(commands); err != nil && l.deps.Logger != nil {
		l.deps.Logger.Printf("[sim] rejected commands: %v", err)
	}
	l.engine.Step(dt)
	l.tick++
	return LoopStepResult{
		Tick:     l.tick,
		Now:      now,
		Delta:    dt,
		Snapshot: l.engine.Snapshot(),
		Commands: commands,
	}
}

// Run drives the fixed-timestep loop until ctx is cancelled. Late ticks
// replay at most CatchupMaxTicks worth of time.
func (l *Loop) Run(ctx context.Context) {
	budget := time.Second / time.Duration(l.config.TickRate)
	maxDt := budget * time.Duration(l.config.CatchupMaxTicks)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	clock := l.deps.Clock
	last := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last)
			clamped := false
			if dt <= 0 {
				dt = budget
			} else if dt > maxDt {
				dropped := int((dt - maxDt) / budget)
				dt = maxDt
				clamped = true
				simulation.CatchUpClamped(l.ctx, l.deps.Publisher, l.tick, simulation.CatchUpClampedPayload{
					DroppedTicks: dropped,
					MaxTicks:     l.config.CatchupMaxTicks,
				}, nil)
			}
			last = now

			start := clock.Now()
			result := l.Advance(now, dt)
			result.Duration = clock.Now().Sub(start)
			result.Budget = budget
			result.ClampedDelta = clamped
			l.checkBudget(result)

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) checkBudget(result LoopStepResult) {
	if result.Budget <= 0 || result.Duration <= result.Budget {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	l.deps.Metrics.Add(telemetry.MetricTickOverruns, 1)
	simulation.TickBudgetOverrun(l.ctx, l.deps.Publisher, result.Tick, simulation.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.overrunStreak,
	}, nil)
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		l.perActorCount = make(map[string]int)
	}
	return commands
}

func (l *Loop) incrementDropLocked(actorID string) uint64 {
	if actorID == "" {
		return 0
	}
	count := l.dropCounts[actorID] + 1
	l.dropCounts[actorID] = count
	return count
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	l.deps.Metrics.Add(telemetry.MetricCommandsRejected, 1)
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	// Log on powers of two so a flooding client cannot flood the log too.
	if count > 0 && count&(count-1) == 0 && l.deps.Logger != nil {
		l.deps.Logger.Printf(
			"[backpressure] dropping command actor=%s type=%s count=%d limit=%d",
			cmd.ActorID,
			cmd.Type,
			count,
			l.config.PerActorLimit,
		)
	}
}
