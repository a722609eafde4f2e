package proto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"trackerbot/internal/sim"
	"trackerbot/internal/tracker"
	"trackerbot/internal/world"
)

func sampleSnapshot() world.Snapshot {
	return world.Snapshot{
		Tick: 42,
		Time: 1500 * time.Millisecond,
		Actors: []world.ActorView{
			{
				ID:        "bot-a",
				Kind:      world.KindBot,
				Position:  world.Vec2{X: 10, Y: 20},
				Health:    60,
				MaxHealth: 100,
				Bot: &tracker.ReplicatedState{
					Waypoint:            world.Vec2{X: 30, Y: 40},
					PowerLevel:          2,
					Health:              60,
					SelfDestructStarted: true,
				},
			},
			{
				ID:        "player-1",
				Kind:      world.KindPlayer,
				Position:  world.Vec2{X: 100, Y: 100},
				Velocity:  world.Vec2{X: 1, Y: 0},
				Health:    200,
				MaxHealth: 200,
			},
			{ID: "prop-1", Kind: world.KindProp, Position: world.Vec2{X: 5, Y: 5}},
		},
	}
}

func TestFrameFromSnapshot(t *testing.T) {
	effects := []EffectEvent{{Kind: EffectKindSoundAttached, Name: tracker.SoundSelfDestruct, ActorID: "bot-a"}}
	frame := FrameFromSnapshot(7, sampleSnapshot(), effects)

	if frame.Sequence != 7 || frame.Tick != 42 {
		t.Fatalf("expected sequence 7 tick 42, got %d/%d", frame.Sequence, frame.Tick)
	}
	if frame.TimeMillis != 1500 {
		t.Fatalf("expected time 1500ms, got %d", frame.TimeMillis)
	}
	if len(frame.Bots) != 1 || len(frame.Players) != 1 || len(frame.Props) != 1 {
		t.Fatalf("expected 1 bot, 1 player, 1 prop, got %d/%d/%d", len(frame.Bots), len(frame.Players), len(frame.Props))
	}
	bot := frame.Bots[0]
	if bot.PowerLevel != 2 || !bot.SelfDestructStarted || bot.Waypoint.X != 30 {
		t.Fatalf("unexpected bot frame: %+v", bot)
	}
	if len(frame.Effects) != 1 {
		t.Fatalf("expected one effect, got %d", len(frame.Effects))
	}
	effects[0].Name = "mutated"
	if frame.Effects[0].Name != tracker.SoundSelfDestruct {
		t.Fatalf("expected frame effects to be copied")
	}

	replicated := bot.ReplicatedState()
	if replicated.Waypoint.Y != 40 || replicated.Health != 60 {
		t.Fatalf("unexpected replicated state: %+v", replicated)
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	frame := FrameFromSnapshot(3, sampleSnapshot(), nil)

	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(string(enc), func(t *testing.T) {
			data, err := EncodeFrame(frame, enc)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			decoded, err := DecodeFrame(data, enc)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if decoded.Sequence != 3 || len(decoded.Bots) != 1 {
				t.Fatalf("unexpected decoded frame: %+v", decoded)
			}
			if decoded.Bots[0].Waypoint != frame.Bots[0].Waypoint {
				t.Fatalf("expected waypoint %+v, got %+v", frame.Bots[0].Waypoint, decoded.Bots[0].Waypoint)
			}
		})
	}

	t.Run("json layout", func(t *testing.T) {
		data, err := EncodeFrame(frame, EncodingJSON)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("expected valid json: %v", err)
		}
		if raw["type"] != TypeFrame {
			t.Fatalf("expected type %q, got %v", TypeFrame, raw["type"])
		}
		if raw["t"] != float64(42) {
			t.Fatalf("expected tick 42, got %v", raw["t"])
		}
	})

	t.Run("wrong version", func(t *testing.T) {
		if _, err := DecodeFrame([]byte(`{"ver":9,"type":"frame"}`), EncodingJSON); err == nil {
			t.Fatalf("expected version mismatch error")
		}
	})
}

func TestParseEncoding(t *testing.T) {
	if ParseEncoding("msgpack") != EncodingMsgpack {
		t.Fatalf("expected msgpack encoding")
	}
	if ParseEncoding("") != EncodingJSON || ParseEncoding("xml") != EncodingJSON {
		t.Fatalf("expected json fallback")
	}
}

func TestClientCommand(t *testing.T) {
	t.Run("move command", func(t *testing.T) {
		cmd, ok := ClientCommand(ClientMessage{Type: TypeInput, DX: 1.5, DY: -0.25})
		if !ok {
			t.Fatalf("expected move command to be recognized")
		}
		if cmd.Type != sim.CommandMove || cmd.Move == nil {
			t.Fatalf("expected move command, got %+v", cmd)
		}
		if cmd.Move.DX != 1.5 || cmd.Move.DY != -0.25 {
			t.Fatalf("unexpected move vector: %+v", cmd.Move)
		}
	})

	t.Run("spawn command", func(t *testing.T) {
		cmd, ok := ClientCommand(ClientMessage{Type: TypeSpawn, X: 12.5, Y: 4})
		if !ok {
			t.Fatalf("expected spawn command to be recognized")
		}
		if cmd.Type != sim.CommandSpawnBot || cmd.SpawnBot == nil {
			t.Fatalf("expected spawn command, got %+v", cmd)
		}
		if cmd.SpawnBot.X != 12.5 || cmd.SpawnBot.Y != 4 {
			t.Fatalf("unexpected spawn payload: %+v", cmd.SpawnBot)
		}
	})

	t.Run("non finite move", func(t *testing.T) {
		if _, ok := ClientCommand(ClientMessage{Type: TypeInput, DX: math.NaN()}); ok {
			t.Fatalf("expected NaN input to be rejected")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, ok := ClientCommand(ClientMessage{Type: TypeHeartbeat}); ok {
			t.Fatalf("expected heartbeat not to produce a command")
		}
	})
}

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"input","dx":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Ver != Version {
		t.Fatalf("expected default version %d, got %d", Version, msg.Ver)
	}
	if _, err := DecodeClientMessage([]byte(`{"ver":2,"type":"input"}`)); err == nil {
		t.Fatalf("expected unsupported version error")
	}
	if _, err := DecodeClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEncodeHeartbeatAndReject(t *testing.T) {
	data, err := EncodeHeartbeat(Heartbeat{ServerTime: 10, ClientTime: 4, RTTMillis: 6})
	if err != nil {
		t.Fatalf("encode heartbeat failed: %v", err)
	}
	var hb map[string]any
	if err := json.Unmarshal(data, &hb); err != nil {
		t.Fatalf("invalid heartbeat json: %v", err)
	}
	if hb["type"] != "heartbeat" || hb["rtt"] != float64(6) {
		t.Fatalf("unexpected heartbeat payload: %v", hb)
	}

	data, err = EncodeCommandReject(CommandReject{Reason: "queue_limit", Retry: true})
	if err != nil {
		t.Fatalf("encode reject failed: %v", err)
	}
	var reject map[string]any
	if err := json.Unmarshal(data, &reject); err != nil {
		t.Fatalf("invalid reject json: %v", err)
	}
	if reject["reason"] != "queue_limit" || reject["retry"] != true {
		t.Fatalf("unexpected reject payload: %v", reject)
	}
}

func TestServerRepliesRoundTrip(t *testing.T) {
	data, err := EncodeHeartbeat(Heartbeat{ServerTime: 10, ClientTime: 4, RTTMillis: 6})
	if err != nil {
		t.Fatalf("encode heartbeat failed: %v", err)
	}
	kind, err := PeekType(data)
	if err != nil || kind != TypeHeartbeat {
		t.Fatalf("expected heartbeat type, got %q (%v)", kind, err)
	}
	reply, err := DecodeServerReply(data)
	if err != nil {
		t.Fatalf("decode heartbeat failed: %v", err)
	}
	if reply.RTTMillis != 6 || reply.ClientTime != 4 {
		t.Fatalf("unexpected heartbeat reply: %+v", reply)
	}

	data, err = EncodeCommandReject(CommandReject{Reason: "no_player"})
	if err != nil {
		t.Fatalf("encode reject failed: %v", err)
	}
	reply, err = DecodeServerReply(data)
	if err != nil {
		t.Fatalf("decode reject failed: %v", err)
	}
	if reply.Type != TypeCommandReject || reply.Reason != "no_player" || reply.Retry {
		t.Fatalf("unexpected reject reply: %+v", reply)
	}

	if _, err := DecodeServerReply([]byte(`{"ver":3,"type":"heartbeat"}`)); err == nil {
		t.Fatalf("expected unsupported version error")
	}
}

func TestEncodeClientMessageStampsVersion(t *testing.T) {
	data, err := EncodeClientMessage(ClientMessage{Type: TypeSpawn, X: 1, Y: 2})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	msg, err := DecodeClientMessage(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if msg.Ver != Version || msg.Type != TypeSpawn || msg.X != 1 || msg.Y != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
