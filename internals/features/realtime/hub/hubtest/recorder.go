// Package hubtest provides test doubles for the notification hub.
package hubtest

import (
	"context"
	"sync"

	"coursereg_backend/internals/features/realtime/hub"
)

type Call struct {
	Channel string // class, class_notice, staff, user
	ID      uint
	N       hub.Notification
}

// Recorder is a synchronous hub.Notifier that remembers every call.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *Recorder) ToClass(classID uint, n hub.Notification) {
	r.add(Call{Channel: "class", ID: classID, N: n})
}

func (r *Recorder) ToClassNotices(classID uint, n hub.Notification) {
	r.add(Call{Channel: "class_notice", ID: classID, N: n})
}

func (r *Recorder) ToStaff(n hub.Notification) { r.add(Call{Channel: "staff", N: n}) }

func (r *Recorder) ToUser(userID uint, n hub.Notification) {
	r.add(Call{Channel: "user", ID: userID, N: n})
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Types lists the notification types sent on channel, in order.
func (r *Recorder) Types(channel string) []string {
	out := make([]string, 0)
	for _, c := range r.Calls() {
		if c.Channel == channel {
			out = append(out, c.N.Type)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Conn is an in-memory hub.Conn. Set Fail to make every Send error.
type Conn struct {
	Name string
	Fail error

	mu     sync.Mutex
	sent   []hub.Notification
	closed bool
}

func (c *Conn) ID() string { return c.Name }

func (c *Conn) Send(_ context.Context, n hub.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) Sent() []hub.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hub.Notification(nil), c.sent...)
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
