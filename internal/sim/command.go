package sim

import "time"

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandMove     CommandType = "Move"
	CommandSpawnBot CommandType = "SpawnBot"
	CommandRemove   CommandType = "Remove"
)

// MoveCommand carries the desired movement direction for a player.
type MoveCommand struct {
	DX float64 `json:"dx" msgpack:"dx"`
	DY float64 `json:"dy" msgpack:"dy"`
}

// SpawnBotCommand drops a new tracker bot at a position.
type SpawnBotCommand struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	ActorID  string           `json:"actorId"`
	Type     CommandType      `json:"type"`
	IssuedAt time.Time        `json:"issuedAt"`
	Move     *MoveCommand     `json:"move,omitempty"`
	SpawnBot *SpawnBotCommand `json:"spawnBot,omitempty"`
}
