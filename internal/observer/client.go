// Package observer is the websocket client side of the host: it follows the
// frame stream, mirrors bots onto replicas and can steer a player.
package observer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trackerbot/internal/effects"
	"trackerbot/internal/net/proto"
	"trackerbot/internal/replica"
	"trackerbot/internal/state"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/tracker"
	"trackerbot/logging"
)

const (
	DefaultHeartbeatInterval = 2 * time.Second
	writeWait                = 5 * time.Second
)

type Config struct {
	URL               string
	Encoding          proto.Encoding
	PlayerID          string
	HeartbeatInterval time.Duration
	// Mirror runs replica bots. Without it frame effects are replayed as-is.
	Mirror  bool
	Tracker tracker.Config
}

func (c Config) normalized() Config {
	if c.Encoding != proto.EncodingMsgpack {
		c.Encoding = proto.EncodingJSON
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	c.Tracker = c.Tracker.Normalized()
	return c
}

// View is a debug screen. *debugdraw.Renderer satisfies it.
type View interface {
	tracker.DebugDrawer
	Plot(at state.Vec2, glyph rune, color tracker.DebugColor)
	Render()
}

type Deps struct {
	Effects   tracker.Effects
	View      View
	Logger    telemetry.Logger
	Publisher logging.Publisher
	// OnFrame runs on the Run goroutine after each applied frame.
	OnFrame func(proto.Frame)
}

type Stats struct {
	Frames       uint64
	Skipped      uint64
	LastSequence uint64
	LastTick     uint64
	RTT          time.Duration
	Rejects      uint64
	LastReject   string
}

// Client follows one host. Run owns the read side and the mirror.
type Client struct {
	cfg    Config
	deps   Deps
	conn   *websocket.Conn
	mirror *replica.Mirror

	writeMu sync.Mutex

	mu    sync.Mutex
	stats Stats
}

// Dial connects to the host's /ws endpoint.
func Dial(ctx context.Context, cfg Config, deps Deps) (*Client, error) {
	cfg = cfg.normalized()
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}

	target, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("observer: invalid url %q: %w", cfg.URL, err)
	}
	query := target.Query()
	query.Set("encoding", string(cfg.Encoding))
	if cfg.PlayerID != "" {
		query.Set("player", cfg.PlayerID)
	}
	target.RawQuery = query.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("observer: dial %s: %w", target.Redacted(), err)
	}

	c := &Client{cfg: cfg, deps: deps, conn: conn}
	if cfg.Mirror {
		mirrorDeps := replica.Deps{
			Effects:   deps.Effects,
			Publisher: deps.Publisher,
			Logger:    deps.Logger,
		}
		if deps.View != nil {
			mirrorDeps.Debug = deps.View
		}
		c.mirror = replica.NewMirror(cfg.Tracker, mirrorDeps)
	}
	return c, nil
}

// Run reads until ctx is done or the connection fails. A cancelled context
// is not an error.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()
	go c.heartbeatLoop(ctx)

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("observer: read: %w", err)
		}
		if err := c.handle(messageType, payload); err != nil {
			c.deps.Logger.Printf("[observer] %v", err)
		}
	}
}

func (c *Client) handle(messageType int, payload []byte) error {
	if messageType == websocket.BinaryMessage {
		frame, err := proto.DecodeFrame(payload, proto.EncodingMsgpack)
		if err != nil {
			return fmt.Errorf("discarding binary frame: %w", err)
		}
		c.handleFrame(frame)
		return nil
	}

	kind, err := proto.PeekType(payload)
	if err != nil {
		return fmt.Errorf("discarding malformed message: %w", err)
	}
	switch kind {
	case proto.TypeFrame:
		frame, err := proto.DecodeFrame(payload, proto.EncodingJSON)
		if err != nil {
			return fmt.Errorf("discarding frame: %w", err)
		}
		c.handleFrame(frame)
	case proto.TypeHeartbeat:
		reply, err := proto.DecodeServerReply(payload)
		if err != nil {
			return fmt.Errorf("discarding heartbeat: %w", err)
		}
		c.mu.Lock()
		c.stats.RTT = time.Duration(reply.RTTMillis) * time.Millisecond
		c.mu.Unlock()
	case proto.TypeCommandReject:
		reply, err := proto.DecodeServerReply(payload)
		if err != nil {
			return fmt.Errorf("discarding reject: %w", err)
		}
		c.mu.Lock()
		c.stats.Rejects++
		c.stats.LastReject = reply.Reason
		c.mu.Unlock()
		c.deps.Logger.Printf("[observer] command rejected: %s (retry=%v)", reply.Reason, reply.Retry)
	default:
		return fmt.Errorf("unknown message type %q", kind)
	}
	return nil
}

func (c *Client) handleFrame(frame proto.Frame) {
	applied := true
	if c.mirror != nil {
		var err error
		applied, err = c.mirror.Apply(frame)
		if err != nil {
			c.deps.Logger.Printf("[observer] frame %d: %v", frame.Sequence, err)
		}
	} else {
		c.mu.Lock()
		last := c.stats.LastSequence
		c.mu.Unlock()
		if frame.Sequence <= last && !frame.Resync {
			applied = false
		} else if !frame.Resync {
			// A resync frame repeats effects that already played.
			effects.Replay(frame.Effects, c.deps.Effects)
		}
	}

	c.mu.Lock()
	if !applied {
		c.stats.Skipped++
		c.mu.Unlock()
		return
	}
	c.stats.Frames++
	c.stats.LastSequence = frame.Sequence
	c.stats.LastTick = frame.Tick
	c.mu.Unlock()

	if c.deps.View != nil {
		plotFrame(c.deps.View, frame)
		c.deps.View.Render()
	}
	if c.deps.OnFrame != nil {
		c.deps.OnFrame(frame)
	}
}

func plotFrame(view View, frame proto.Frame) {
	for _, prop := range frame.Props {
		view.Plot(prop.Position.Vec2(), '#', tracker.DebugWhite)
	}
	for _, player := range frame.Players {
		view.Plot(player.Position.Vec2(), '@', tracker.DebugGreen)
	}
	for _, bot := range frame.Bots {
		if bot.Hidden {
			continue
		}
		view.Plot(bot.Position.Vec2(), 'B', tracker.DebugRed)
	}
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := c.Send(proto.ClientMessage{Type: proto.TypeHeartbeat, SentAt: now.UnixMilli()}); err != nil {
				c.deps.Logger.Printf("[observer] heartbeat failed: %v", err)
				return
			}
		}
	}
}

var errNoPlayer = errors.New("observer: no player to steer")

// Move steers the configured player.
func (c *Client) Move(dx, dy float64) error {
	if c.cfg.PlayerID == "" {
		return errNoPlayer
	}
	return c.Send(proto.ClientMessage{Type: proto.TypeInput, DX: dx, DY: dy})
}

// Spawn asks the host to drop a bot at (x, y).
func (c *Client) Spawn(x, y float64) error {
	return c.Send(proto.ClientMessage{Type: proto.TypeSpawn, X: x, Y: y})
}

func (c *Client) Send(msg proto.ClientMessage) error {
	data, err := proto.EncodeClientMessage(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Mirror is only safe to use from OnFrame. It is nil when mirroring is off.
func (c *Client) Mirror() *replica.Mirror {
	return c.mirror
}

// Now is the observer's simulated clock.
func (c *Client) Now() time.Duration {
	if c.mirror == nil {
		return 0
	}
	return c.mirror.Now()
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	return c.conn.Close()
}
