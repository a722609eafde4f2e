package proto

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"trackerbot/internal/sim"
	"trackerbot/internal/state"
	"trackerbot/internal/tracker"
	"trackerbot/internal/world"
)

const (
	// Version tracks the wire-protocol revision expected by observers.
	Version = 1

	typeFrame     = "frame"
	typeHeartbeat = "heartbeat"
	typeReject    = "commandReject"
)

// Client message type identifiers.
const (
	TypeInput     = "input"
	TypeSpawn     = "spawn"
	TypeHeartbeat = "heartbeat"
)

// Outbound message type identifiers.
const (
	TypeFrame         = typeFrame
	TypeCommandReject = typeReject
)

// Encoding selects how frames are serialised for one observer.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding maps a query value onto a supported encoding. Unknown values
// fall back to JSON.
func ParseEncoding(value string) Encoding {
	if Encoding(value) == EncodingMsgpack {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// Point is a wire-friendly position.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func pointOf(v state.Vec2) Point {
	return Point{X: v.X, Y: v.Y}
}

// Vec2 converts the point back into simulation space.
func (p Point) Vec2() state.Vec2 {
	return state.Vec2{X: p.X, Y: p.Y}
}

// BotFrame carries one tracker bot's replicated state.
type BotFrame struct {
	ID                  string  `json:"id" msgpack:"id"`
	Position            Point   `json:"pos" msgpack:"pos"`
	Health              float64 `json:"health" msgpack:"health"`
	MaxHealth           float64 `json:"maxHealth" msgpack:"maxHealth"`
	Hidden              bool    `json:"hidden,omitempty" msgpack:"hidden,omitempty"`
	Waypoint            Point   `json:"waypoint" msgpack:"waypoint"`
	PowerLevel          int     `json:"power" msgpack:"power"`
	SelfDestructStarted bool    `json:"selfDestruct,omitempty" msgpack:"selfDestruct,omitempty"`
	Exploded            bool    `json:"exploded,omitempty" msgpack:"exploded,omitempty"`
}

// ReplicatedState converts the frame into the state a replica bot mirrors.
func (b BotFrame) ReplicatedState() tracker.ReplicatedState {
	return tracker.ReplicatedState{
		Waypoint:            b.Waypoint.Vec2(),
		PowerLevel:          b.PowerLevel,
		Health:              b.Health,
		SelfDestructStarted: b.SelfDestructStarted,
		Exploded:            b.Exploded,
	}
}

// ActorFrame carries a player or prop.
type ActorFrame struct {
	ID        string  `json:"id" msgpack:"id"`
	Position  Point   `json:"pos" msgpack:"pos"`
	Velocity  Point   `json:"vel" msgpack:"vel"`
	Health    float64 `json:"health" msgpack:"health"`
	MaxHealth float64 `json:"maxHealth" msgpack:"maxHealth"`
}

// Effect kinds carried in frames.
const (
	EffectKindSpawn         = "effect"
	EffectKindSound         = "sound"
	EffectKindSoundAttached = "sound_attached"
	EffectKindParameter     = "param"
)

// EffectEvent is one cosmetic event emitted during a tick.
type EffectEvent struct {
	Kind     string  `json:"kind" msgpack:"kind"`
	Name     string  `json:"name" msgpack:"name"`
	ActorID  string  `json:"actorId,omitempty" msgpack:"actorId,omitempty"`
	Position Point   `json:"pos" msgpack:"pos"`
	Value    float64 `json:"value,omitempty" msgpack:"value,omitempty"`
}

// Frame is the per-tick replication payload streamed to observers.
type Frame struct {
	Ver        int           `json:"ver" msgpack:"ver"`
	Type       string        `json:"type" msgpack:"type"`
	Sequence   uint64        `json:"sequence" msgpack:"sequence"`
	Tick       uint64        `json:"t" msgpack:"t"`
	TimeMillis int64         `json:"time" msgpack:"time"`
	Bots       []BotFrame    `json:"bots" msgpack:"bots"`
	Players    []ActorFrame  `json:"players" msgpack:"players"`
	Props      []ActorFrame  `json:"props,omitempty" msgpack:"props,omitempty"`
	Effects    []EffectEvent `json:"effects,omitempty" msgpack:"effects,omitempty"`
	// Resync marks a frame replayed from the journal for a joining observer.
	Resync bool `json:"resync,omitempty" msgpack:"resync,omitempty"`
}

// FrameFromSnapshot renders an arena snapshot plus the effects emitted while
// producing it.
func FrameFromSnapshot(seq uint64, snap world.Snapshot, effects []EffectEvent) Frame {
	frame := Frame{
		Ver:        Version,
		Type:       TypeFrame,
		Sequence:   seq,
		Tick:       snap.Tick,
		TimeMillis: snap.Time.Milliseconds(),
		Bots:       make([]BotFrame, 0),
		Players:    make([]ActorFrame, 0),
	}
	if len(effects) > 0 {
		frame.Effects = append([]EffectEvent(nil), effects...)
	}
	for _, actor := range snap.Actors {
		switch actor.Kind {
		case world.KindBot:
			bot := BotFrame{
				ID:        actor.ID,
				Position:  pointOf(actor.Position),
				Health:    actor.Health,
				MaxHealth: actor.MaxHealth,
				Hidden:    actor.Hidden,
			}
			if actor.Bot != nil {
				bot.Waypoint = pointOf(actor.Bot.Waypoint)
				bot.PowerLevel = actor.Bot.PowerLevel
				bot.SelfDestructStarted = actor.Bot.SelfDestructStarted
				bot.Exploded = actor.Bot.Exploded
			}
			frame.Bots = append(frame.Bots, bot)
		case world.KindPlayer:
			frame.Players = append(frame.Players, actorFrame(actor))
		default:
			frame.Props = append(frame.Props, actorFrame(actor))
		}
	}
	return frame
}

func actorFrame(actor world.ActorView) ActorFrame {
	return ActorFrame{
		ID:        actor.ID,
		Position:  pointOf(actor.Position),
		Velocity:  pointOf(actor.Velocity),
		Health:    actor.Health,
		MaxHealth: actor.MaxHealth,
	}
}

// EncodeFrame renders a frame in the requested encoding.
func EncodeFrame(frame Frame, enc Encoding) ([]byte, error) {
	frame.Ver = Version
	if frame.Type == "" {
		frame.Type = TypeFrame
	}
	if enc == EncodingMsgpack {
		return msgpack.Marshal(frame)
	}
	return json.Marshal(frame)
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(payload []byte, enc Encoding) (Frame, error) {
	var frame Frame
	var err error
	if enc == EncodingMsgpack {
		err = msgpack.Unmarshal(payload, &frame)
	} else {
		err = json.Unmarshal(payload, &frame)
	}
	if err != nil {
		return frame, err
	}
	if frame.Ver != Version {
		return frame, fmt.Errorf("unsupported frame protocol version %d", frame.Ver)
	}
	if frame.Type != TypeFrame {
		return frame, fmt.Errorf("unexpected message type %q", frame.Type)
	}
	return frame, nil
}

// ClientMessage captures an inbound websocket message from an observer.
type ClientMessage struct {
	Ver    int     `json:"ver,omitempty"`
	Type   string  `json:"type"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	SentAt int64   `json:"sentAt"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// EncodeClientMessage renders an observer message, stamping the protocol
// version.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	msg.Ver = Version
	return json.Marshal(msg)
}

// ClientCommand captures the simulation command carried by a websocket
// message. The hub stamps the actor id and issue time.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeInput:
		if !finite(msg.DX) || !finite(msg.DY) {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandMove,
			Move: &sim.MoveCommand{DX: msg.DX, DY: msg.DY},
		}, true
	case TypeSpawn:
		if !finite(msg.X) || !finite(msg.Y) {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:     sim.CommandSpawnBot,
			SpawnBot: &sim.SpawnBotCommand{X: msg.X, Y: msg.Y},
		}, true
	default:
		return sim.Command{}, false
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Heartbeat echoes timing metadata back to the observer.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// CommandReject notifies the observer that a command was refused.
type CommandReject struct {
	Reason string
	Retry  bool
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
	}{
		Ver:    Version,
		Type:   typeReject,
		Reason: msg.Reason,
		Retry:  msg.Retry,
	}
	return json.Marshal(frame)
}

// ServerReply is any text message from the host other than a frame.
type ServerReply struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime,omitempty"`
	ClientTime int64  `json:"clientTime,omitempty"`
	RTTMillis  int64  `json:"rtt,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Retry      bool   `json:"retry,omitempty"`
}

// PeekType reads the type of a JSON message without decoding the rest.
func PeekType(payload []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", err
	}
	return envelope.Type, nil
}

func DecodeServerReply(payload []byte) (ServerReply, error) {
	var reply ServerReply
	if err := json.Unmarshal(payload, &reply); err != nil {
		return reply, err
	}
	if reply.Ver != Version {
		return reply, fmt.Errorf("unsupported reply protocol version %d", reply.Ver)
	}
	return reply, nil
}
