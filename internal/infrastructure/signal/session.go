package signal

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Session is one connected viewer. Only its write pump writes to conn.
type Session struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, buffer int, limiter *rate.Limiter) *Session {
	return &Session{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, buffer),
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

// offer enqueues a frame without blocking. It reports false when the
// session is closed or its buffer is full.
func (s *Session) offer(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// deliver enqueues a frame, waiting up to timeout for buffer space.
func (s *Session) deliver(frame []byte, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.send <- frame:
		return true
	case <-s.done:
		return false
	case <-timer.C:
		return false
	}
}

func (s *Session) allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writePump drains the send buffer and keeps the connection alive with
// pings until the session closes or a write fails.
func (s *Session) writePump(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
