package sim

import (
	"errors"
	"fmt"
	"time"

	"trackerbot/internal/world"
)

// Engine is the surface the loop drives.
type Engine interface {
	Apply([]Command) error
	Step(dt time.Duration)
	Snapshot() world.Snapshot
}

// WorldEngine adapts the arena to the loop.
type WorldEngine struct {
	World *world.World
}

func NewWorldEngine(w *world.World) *WorldEngine {
	return &WorldEngine{World: w}
}

// Apply executes commands in order. Invalid commands are skipped and reported
// together.
func (e *WorldEngine) Apply(cmds []Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := e.apply(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *WorldEngine) apply(cmd Command) error {
	switch cmd.Type {
	case CommandMove:
		if cmd.Move == nil {
			return fmt.Errorf("move for %s: missing payload", cmd.ActorID)
		}
		if !e.World.SetPlayerIntent(cmd.ActorID, cmd.Move.DX, cmd.Move.DY) {
			return fmt.Errorf("move for %s: no live player", cmd.ActorID)
		}
	case CommandSpawnBot:
		if cmd.SpawnBot == nil {
			return errors.New("spawn bot: missing payload")
		}
		if _, err := e.World.SpawnBot(world.Vec2{X: cmd.SpawnBot.X, Y: cmd.SpawnBot.Y}); err != nil {
			return err
		}
	case CommandRemove:
		e.World.RemoveActor(cmd.ActorID)
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
	return nil
}

func (e *WorldEngine) Step(dt time.Duration) {
	e.World.Step(dt)
}

func (e *WorldEngine) Snapshot() world.Snapshot {
	return e.World.Snapshot()
}
