// Package ws adapts websocket connections to the notification hub and
// serves the realtime channels.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"coursereg_backend/internals/features/realtime/hub"
)

// frameWriter is the part of *websocket.Conn the adapter needs.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var ErrSocketClosed = errors.New("socket closed")

// Socket is a hub.Conn over one websocket. Writes are serialised and always
// carry a deadline.
type Socket struct {
	id      string
	w       frameWriter
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

var _ hub.Conn = (*Socket)(nil)

func NewSocket(w frameWriter, timeout time.Duration) *Socket {
	if timeout <= 0 {
		timeout = hub.DefaultSendTimeout
	}
	return &Socket{id: uuid.NewString(), w: w, timeout: timeout}
}

func (s *Socket) ID() string { return s.id }

func (s *Socket) Send(ctx context.Context, n hub.Notification) error {
	b, err := sonic.Marshal(n)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(s.timeout)
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSocketClosed
	}
	if err := s.w.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.w.WriteMessage(websocket.TextMessage, b)
}

// Close is safe to call from the read loop and from a failed broadcast.
func (s *Socket) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.w.Close()
	})
	return err
}
