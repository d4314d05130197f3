package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Notifier is what business services see. Calls never block and never fail.
type Notifier interface {
	ToClass(classID uint, n Notification)
	ToClassNotices(classID uint, n Notification)
	ToStaff(n Notification)
	ToUser(userID uint, n Notification)
}

type target int

const (
	targetClass target = iota
	targetClassNotices
	targetStaff
	targetUser
)

type event struct {
	target target
	id     uint
	n      Notification
}

// DefaultShards is how many delivery goroutines a Dispatcher runs.
const DefaultShards = 8

// Dispatcher queues notifications and delivers them on a fixed set of
// goroutines. Events for the same target key always land on the same shard,
// so a connection (subscribed under one key) sees them in emit order, and a
// stalled subscriber only delays its own key. A full shard drops the event.
type Dispatcher struct {
	hub    *Hub
	log    *zap.Logger
	shards []chan event
	wg     sync.WaitGroup
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher buffers size events per shard.
func NewDispatcher(h *Hub, size int, log *zap.Logger) *Dispatcher {
	return NewShardedDispatcher(h, DefaultShards, size, log)
}

func NewShardedDispatcher(h *Hub, shards, size int, log *zap.Logger) *Dispatcher {
	if shards <= 0 {
		shards = DefaultShards
	}
	if size <= 0 {
		size = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		hub:    h,
		log:    log.Named("dispatcher"),
		shards: make([]chan event, shards),
		done:   make(chan struct{}),
	}
	for i := range d.shards {
		q := make(chan event, size)
		d.shards[i] = q
		d.wg.Add(1)
		go d.run(q)
	}
	go func() {
		d.wg.Wait()
		close(d.done)
	}()
	return d
}

func (d *Dispatcher) ToClass(classID uint, n Notification) {
	d.emit(event{target: targetClass, id: classID, n: n})
}

func (d *Dispatcher) ToClassNotices(classID uint, n Notification) {
	d.emit(event{target: targetClassNotices, id: classID, n: n})
}

func (d *Dispatcher) ToStaff(n Notification) {
	d.emit(event{target: targetStaff, n: n})
}

func (d *Dispatcher) ToUser(userID uint, n Notification) {
	d.emit(event{target: targetUser, id: userID, n: n})
}

func (d *Dispatcher) emit(ev event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher closed, notification dropped", zap.String("type", ev.n.Type))
		return
	}
	select {
	case d.shards[d.shardOf(ev)] <- ev:
	default:
		d.log.Warn("notification queue full, dropped", zap.String("type", ev.n.Type), zap.Uint("id", ev.id))
	}
}

func (d *Dispatcher) shardOf(ev event) int {
	return int((uint64(ev.target)*31 + uint64(ev.id)) % uint64(len(d.shards)))
}

func (d *Dispatcher) run(q chan event) {
	defer d.wg.Done()
	for ev := range q {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev event) {
	ctx := context.Background()
	var n int
	switch ev.target {
	case targetClass:
		n = d.hub.ToClass(ctx, ev.id, ev.n)
	case targetClassNotices:
		n = d.hub.ToClassNotices(ctx, ev.id, ev.n)
	case targetStaff:
		n = d.hub.ToStaff(ctx, ev.n)
	case targetUser:
		n = d.hub.ToUser(ctx, ev.id, ev.n)
	}
	d.log.Debug("notification delivered", zap.String("type", ev.n.Type), zap.Uint("id", ev.id), zap.Int("receivers", n))
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.shards {
			close(q)
		}
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
