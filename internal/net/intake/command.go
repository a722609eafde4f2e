package intake

import (
	"time"

	"trackerbot/internal/net/proto"
	"trackerbot/internal/sim"
)

// Rejection reasons returned to observers alongside the sim queue reasons.
const (
	RejectInvalidCommand = "invalid_command"
	RejectNoPlayer       = "no_player"
	RejectUnknownActor   = "unknown_actor"
)

// CommandSink accepts commands for the next tick. sim.Loop satisfies it.
type CommandSink interface {
	Enqueue(cmd sim.Command) (bool, string)
}

type CommandContext struct {
	Sink      CommandSink
	HasPlayer func(string) bool
	Now       func() time.Time
}

// StageClientCommand validates an observer message, stamps it with the
// steering player and issue time, and hands it to the sink.
func StageClientCommand(ctx CommandContext, playerID string, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, RejectInvalidCommand
	}

	switch command.Type {
	case sim.CommandMove:
		if command.Move == nil {
			return zero, false, RejectInvalidCommand
		}
		if playerID == "" {
			return zero, false, RejectNoPlayer
		}
		if ctx.HasPlayer != nil && !ctx.HasPlayer(playerID) {
			return zero, false, RejectUnknownActor
		}
		command.ActorID = playerID
	case sim.CommandSpawnBot:
		if command.SpawnBot == nil {
			return zero, false, RejectInvalidCommand
		}
	default:
		return zero, false, RejectInvalidCommand
	}

	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ctx.Sink == nil {
		return zero, false, sim.CommandRejectQueueFull
	}
	if ok, reason := ctx.Sink.Enqueue(command); !ok {
		return zero, false, reason
	}

	return command, true, ""
}
