package hub

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coursereg_backend/internals/constants"
)

const (
	DefaultSendTimeout = 5 * time.Second
	DefaultFanoutLimit = 32
)

type Options struct {
	SendTimeout time.Duration
	FanoutLimit int
	Logger      *zap.Logger
}

// Hub owns the four subscriber registries. Delivery is best-effort: a
// connection whose send fails is dropped from all of them.
type Hub struct {
	Classes      *Registry[uint]
	ClassNotices *Registry[uint]
	Staff        *Registry[constants.Role]
	Users        *Registry[uint]

	sendTimeout time.Duration
	fanoutLimit int
	log         *zap.Logger
}

func New(opts Options) *Hub {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.FanoutLimit <= 0 {
		opts.FanoutLimit = DefaultFanoutLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Hub{
		Classes:      NewRegistry[uint](),
		ClassNotices: NewRegistry[uint](),
		Staff:        NewRegistry[constants.Role](),
		Users:        NewRegistry[uint](),
		sendTimeout:  opts.SendTimeout,
		fanoutLimit:  opts.FanoutLimit,
		log:          opts.Logger.Named("hub"),
	}
}

func (h *Hub) ToClass(ctx context.Context, classID uint, n Notification) int {
	return h.broadcast(ctx, "class", h.Classes.Snapshot(classID), n)
}

func (h *Hub) ToClassNotices(ctx context.Context, classID uint, n Notification) int {
	return h.broadcast(ctx, "class_notice", h.ClassNotices.Snapshot(classID), n)
}

// ToStaff sends once per connection even if it is subscribed under both roles.
func (h *Hub) ToStaff(ctx context.Context, n Notification) int {
	seen := make(map[Conn]struct{})
	conns := make([]Conn, 0)
	for _, role := range []constants.Role{constants.RoleAdmin, constants.RoleTeacher} {
		for _, c := range h.Staff.Snapshot(role) {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			conns = append(conns, c)
		}
	}
	return h.broadcast(ctx, "staff", conns, n)
}

func (h *Hub) ToUser(ctx context.Context, userID uint, n Notification) int {
	return h.broadcast(ctx, "user", h.Users.Snapshot(userID), n)
}

// SendTo writes directly to one connection, e.g. a pong.
func (h *Hub) SendTo(ctx context.Context, c Conn, n Notification) bool {
	return h.broadcast(ctx, "direct", []Conn{c}, n) == 1
}

// Drop removes c from every registry and closes it.
func (h *Hub) Drop(c Conn) {
	removed := h.Classes.RemoveConn(c) +
		h.ClassNotices.RemoveConn(c) +
		h.Staff.RemoveConn(c) +
		h.Users.RemoveConn(c)
	if err := c.Close(); err != nil {
		h.log.Debug("close after drop", zap.String("conn", c.ID()), zap.Error(err))
	}
	h.log.Debug("connection dropped", zap.String("conn", c.ID()), zap.Int("subscriptions", removed))
}

func (h *Hub) broadcast(ctx context.Context, channel string, conns []Conn, n Notification) int {
	if len(conns) == 0 {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var delivered atomic.Int64
	var g errgroup.Group
	g.SetLimit(h.fanoutLimit)
	for _, c := range conns {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()
			if err := c.Send(sctx, n); err != nil {
				h.log.Warn("send failed, dropping connection",
					zap.String("channel", channel),
					zap.String("type", n.Type),
					zap.String("conn", c.ID()),
					zap.Error(err),
				)
				h.Drop(c)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load())
}
