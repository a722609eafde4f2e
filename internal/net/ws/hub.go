package ws

import (
	"context"
	"errors"
	nethttp "net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trackerbot/internal/journal"
	"trackerbot/internal/net/intake"
	"trackerbot/internal/net/proto"
	"trackerbot/internal/sim"
	"trackerbot/internal/telemetry"
	"trackerbot/internal/world"
	"trackerbot/logging"
	"trackerbot/logging/lifecycle"
)

const (
	DefaultSendQueue = 64
	DefaultWriteWait = 5 * time.Second
)

const (
	leftClosed   = "closed"
	leftShutdown = "shutdown"
)

type Config struct {
	SendQueue int
	WriteWait time.Duration
}

func (c Config) normalized() Config {
	if c.SendQueue <= 0 {
		c.SendQueue = DefaultSendQueue
	}
	if c.WriteWait <= 0 {
		c.WriteWait = DefaultWriteWait
	}
	return c
}

type Deps struct {
	Journal   *journal.Journal
	Commands  intake.CommandSink
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

// Hub streams replication frames to websocket observers and forwards their
// commands to the simulation.
type Hub struct {
	cfg      Config
	deps     Deps
	upgrader websocket.Upgrader
	ctx      context.Context

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	seq  atomic.Uint64
	tick atomic.Uint64
}

func NewHub(cfg Config, deps Deps) *Hub {
	if deps.Journal == nil {
		deps.Journal = journal.New(1, 0)
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	return &Hub{
		cfg:  cfg.normalized(),
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		ctx:      context.Background(),
		sessions: make(map[string]*session),
	}
}

// Handle upgrades the request and serves the observer until it disconnects.
// Query parameters: encoding=json|msgpack, player=<id> to steer a player.
func (h *Hub) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	enc := proto.ParseEncoding(r.URL.Query().Get("encoding"))
	playerID := r.URL.Query().Get("player")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Printf("[ws] upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	sess := newSession(uuid.NewString(), playerID, r.RemoteAddr, enc, conn, h.cfg.SendQueue)
	// The seed frame is queued before registering so it precedes broadcasts.
	if latest, ok := h.deps.Journal.Latest(); ok {
		frame := latest.Frame
		frame.Resync = true
		h.sendFrame(sess, frame)
	}
	if !h.register(sess) {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}
	go sess.writeLoop(h.cfg.WriteWait)

	reason := h.readLoop(sess)
	h.unregister(sess, reason)
}

func (h *Hub) register(sess *session) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.sessions[sess.id] = sess
	count := len(h.sessions)
	h.mu.Unlock()

	h.deps.Metrics.Store(telemetry.MetricObservers, uint64(count))
	lifecycle.ObserverJoined(h.ctx, h.deps.Publisher, h.tick.Load(), observerRef(sess.id), lifecycle.ObserverJoinedPayload{
		Remote:   sess.remote,
		Encoding: string(sess.encoding),
	}, map[string]any{"player": sess.playerID})
	h.deps.Logger.Printf("[ws] observer %s joined from %s (%s)", sess.id, sess.remote, sess.encoding)
	return true
}

func (h *Hub) unregister(sess *session, reason string) {
	h.mu.Lock()
	_, ok := h.sessions[sess.id]
	delete(h.sessions, sess.id)
	count := len(h.sessions)
	h.mu.Unlock()

	sess.close()
	if !ok {
		return
	}
	h.deps.Metrics.Store(telemetry.MetricObservers, uint64(count))
	lifecycle.ObserverLeft(h.ctx, h.deps.Publisher, h.tick.Load(), observerRef(sess.id), lifecycle.ObserverLeftPayload{
		Reason: reason,
	}, nil)
	h.deps.Logger.Printf("[ws] observer %s left: %s", sess.id, reason)
}

func (h *Hub) readLoop(sess *session) string {
	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-sess.done:
				return leftShutdown
			default:
			}
			return leftClosed
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.deps.Logger.Printf("[ws] discarding malformed message from %s: %v", sess.id, err)
			continue
		}

		switch msg.Type {
		case proto.TypeHeartbeat:
			now := time.Now()
			rtt := sess.recordHeartbeat(now, msg.SentAt)
			data, err := proto.EncodeHeartbeat(proto.Heartbeat{
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})
			if err == nil {
				sess.enqueue(outbound{messageType: websocket.TextMessage, data: data})
			}
		case proto.TypeInput, proto.TypeSpawn:
			h.handleCommand(sess, msg)
		default:
			h.deps.Logger.Printf("[ws] unknown message type %q from %s", msg.Type, sess.id)
		}
	}
}

func (h *Hub) handleCommand(sess *session, msg proto.ClientMessage) {
	ctx := intake.CommandContext{
		Sink:      h.deps.Commands,
		HasPlayer: h.hasPlayer,
	}
	if _, ok, reason := intake.StageClientCommand(ctx, sess.playerID, msg); !ok {
		h.reject(sess, reason, reason == sim.CommandRejectQueueLimit)
	}
}

// hasPlayer checks the latest journaled frame. Before the first frame every
// id is accepted and the simulation rejects unknown actors itself.
func (h *Hub) hasPlayer(id string) bool {
	latest, ok := h.deps.Journal.Latest()
	if !ok {
		return true
	}
	for _, player := range latest.Frame.Players {
		if player.ID == id {
			return true
		}
	}
	return false
}

func (h *Hub) reject(sess *session, reason string, retry bool) {
	h.deps.Metrics.Add(telemetry.MetricCommandsRejected, 1)
	data, err := proto.EncodeCommandReject(proto.CommandReject{Reason: reason, Retry: retry})
	if err != nil {
		return
	}
	sess.enqueue(outbound{messageType: websocket.TextMessage, data: data})
}

// PublishSnapshot turns a simulation snapshot plus the effects staged since
// the previous call into the next frame, journals it and broadcasts it.
func (h *Hub) PublishSnapshot(snap world.Snapshot) proto.Frame {
	seq := h.seq.Add(1)
	h.tick.Store(snap.Tick)
	frame := proto.FrameFromSnapshot(seq, snap, h.deps.Journal.DrainEffects())
	h.deps.Journal.RecordKeyframe(journal.NewKeyframe(frame))
	h.Broadcast(frame)
	return frame
}

// Broadcast sends a frame to every observer. Each encoding is rendered once.
func (h *Hub) Broadcast(frame proto.Frame) {
	h.mu.RLock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		sessions = append(sessions, sess)
	}
	h.mu.RUnlock()
	if len(sessions) == 0 {
		return
	}

	encoded := make(map[proto.Encoding][]byte, 2)
	for _, sess := range sessions {
		if sess.takeResync() {
			resync := frame
			resync.Resync = true
			h.deps.Metrics.Add(telemetry.MetricObserverResyncs, 1)
			h.sendFrame(sess, resync)
			continue
		}
		data, ok := encoded[sess.encoding]
		if !ok {
			var err error
			data, err = proto.EncodeFrame(frame, sess.encoding)
			if err != nil {
				h.deps.Logger.Printf("[ws] failed to encode frame %d as %s: %v", frame.Sequence, sess.encoding, err)
				continue
			}
			encoded[sess.encoding] = data
		}
		h.deliver(sess, frame.Sequence, data)
	}
}

func (h *Hub) sendFrame(sess *session, frame proto.Frame) {
	data, err := proto.EncodeFrame(frame, sess.encoding)
	if err != nil {
		h.deps.Logger.Printf("[ws] failed to encode frame %d for %s: %v", frame.Sequence, sess.id, err)
		return
	}
	h.deliver(sess, frame.Sequence, data)
}

func (h *Hub) deliver(sess *session, sequence uint64, data []byte) {
	delivered := sess.enqueue(outbound{messageType: sess.frameMessageType(), data: data})
	if delivered {
		h.deps.Metrics.Add(telemetry.MetricFramesBroadcast, 1)
	} else {
		h.deps.Metrics.Add(telemetry.MetricFramesDropped, 1)
	}
	sess.noteFrame(sequence, delivered)
}

// ObserverInfo summarises one connection for diagnostics.
type ObserverInfo struct {
	ID            string `json:"id"`
	PlayerID      string `json:"player,omitempty"`
	Encoding      string `json:"encoding"`
	Remote        string `json:"remote"`
	QueuedFrames  int    `json:"queued"`
	LastHeartbeat int64  `json:"lastHeartbeat,omitempty"`
	RTTMillis     int64  `json:"rttMillis,omitempty"`
}

// Observers lists connected observers ordered by id.
func (h *Hub) Observers() []ObserverInfo {
	h.mu.RLock()
	infos := make([]ObserverInfo, 0, len(h.sessions))
	for _, sess := range h.sessions {
		last, rtt := sess.heartbeat()
		info := ObserverInfo{
			ID:           sess.id,
			PlayerID:     sess.playerID,
			Encoding:     string(sess.encoding),
			Remote:       sess.remote,
			QueuedFrames: len(sess.send),
			RTTMillis:    rtt.Milliseconds(),
		}
		if !last.IsZero() {
			info.LastHeartbeat = last.UnixMilli()
		}
		infos = append(infos, info)
	}
	h.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// LastSequence is the sequence of the most recent frame.
func (h *Hub) LastSequence() uint64 {
	return h.seq.Load()
}

var errHubClosed = errors.New("ws: hub closed")

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHubClosed
	}
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		sessions = append(sessions, sess)
	}
	h.mu.Unlock()

	for _, sess := range sessions {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
		sess.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		sess.close()
	}
	return nil
}

func observerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindObserver}
}
