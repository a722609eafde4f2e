package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trackerbot/internal/journal"
	"trackerbot/internal/net/proto"
)

// session is one connected observer. Frames are queued on send and written
// by writeLoop so a slow socket never blocks the broadcaster.
type session struct {
	id       string
	playerID string
	remote   string
	encoding proto.Encoding
	conn     *websocket.Conn

	send chan outbound
	done chan struct{}
	once sync.Once

	// mu guards the delivery policy and heartbeat bookkeeping.
	mu            sync.Mutex
	policy        *journal.LossPolicy
	resync        bool
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

type outbound struct {
	messageType int
	data        []byte
}

func newSession(id, playerID, remote string, enc proto.Encoding, conn *websocket.Conn, queue int) *session {
	return &session{
		id:       id,
		playerID: playerID,
		remote:   remote,
		encoding: enc,
		conn:     conn,
		send:     make(chan outbound, queue),
		done:     make(chan struct{}),
		policy:   journal.NewLossPolicy(),
	}
}

func (s *session) frameMessageType() int {
	if s.encoding == proto.EncodingMsgpack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// enqueue queues a message without blocking. It reports false when the queue
// is full or the session is closing.
func (s *session) enqueue(msg outbound) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// noteFrame records a delivery attempt and reports whether the observer
// should receive a resync frame next.
func (s *session) noteFrame(sequence uint64, delivered bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delivered {
		s.policy.Delivered()
	} else {
		s.policy.Dropped(sequence, "queue_full")
	}
	if _, ok := s.policy.Due(); ok {
		s.resync = true
	}
	return s.resync
}

func (s *session) takeResync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.resync
	s.resync = false
	return pending
}

func (s *session) recordHeartbeat(now time.Time, sentAt int64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = now
	if sentAt > 0 {
		s.lastRTT = now.Sub(time.UnixMilli(sentAt))
	}
	return s.lastRTT
}

func (s *session) heartbeat() (time.Time, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat, s.lastRTT
}

func (s *session) writeLoop(writeWait time.Duration) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(msg.messageType, msg.data); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
