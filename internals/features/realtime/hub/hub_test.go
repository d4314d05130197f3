package hub_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereg_backend/internals/constants"
	"coursereg_backend/internals/features/realtime/hub"
	"coursereg_backend/internals/features/realtime/hub/hubtest"
)

func TestFailedSendRemovesConnEverywhere(t *testing.T) {
	h := hub.New(hub.Options{SendTimeout: time.Second})
	bad := &hubtest.Conn{Name: "bad", Fail: errors.New("broken pipe")}
	good := &hubtest.Conn{Name: "good"}

	h.Classes.Add(1, bad)
	h.Classes.Add(1, good)
	h.ClassNotices.Add(1, bad)
	h.Staff.Add(constants.RoleTeacher, bad)
	h.Users.Add(9, bad)

	n := h.ToClass(context.Background(), 1, hub.NewNotification(hub.TypeClassCount, "", nil))
	assert.Equal(t, 1, n)

	assert.Equal(t, 1, h.Classes.Len(1))
	assert.Equal(t, 0, h.ClassNotices.Len(1))
	assert.Equal(t, 0, h.Staff.Len(constants.RoleTeacher))
	assert.Equal(t, 0, h.Users.Len(9))
	assert.True(t, bad.Closed())
	assert.False(t, good.Closed())
	assert.Len(t, good.Sent(), 1)
}

func TestToStaffDeduplicates(t *testing.T) {
	h := hub.New(hub.Options{})
	both := &hubtest.Conn{Name: "both"}
	teacher := &hubtest.Conn{Name: "teacher"}
	h.Staff.Add(constants.RoleAdmin, both)
	h.Staff.Add(constants.RoleTeacher, both)
	h.Staff.Add(constants.RoleTeacher, teacher)

	n := h.ToStaff(context.Background(), hub.NewNotification(hub.TypeNewRegistration, "x", nil))
	assert.Equal(t, 2, n)
	assert.Len(t, both.Sent(), 1)
	assert.Len(t, teacher.Sent(), 1)
}

func TestToUserOnlyReachesThatUser(t *testing.T) {
	h := hub.New(hub.Options{})
	u1 := &hubtest.Conn{Name: "u1"}
	u2 := &hubtest.Conn{Name: "u2"}
	h.Users.Add(1, u1)
	h.Users.Add(2, u2)

	h.ToUser(context.Background(), 1, hub.NewNotification(hub.TypeScheduleChanged, "moved", nil))
	assert.Len(t, u1.Sent(), 1)
	assert.Empty(t, u2.Sent())
	assert.Equal(t, 0, h.ToUser(context.Background(), 3, hub.NewNotification("x", "", nil)))
}

type slowConn struct{ hubtest.Conn }

func (s *slowConn) Send(ctx context.Context, n hub.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSendTimeoutIsBounded(t *testing.T) {
	h := hub.New(hub.Options{SendTimeout: 30 * time.Millisecond})
	slow := &slowConn{Conn: hubtest.Conn{Name: "slow"}}
	h.Classes.Add(5, slow)

	start := time.Now()
	n := h.ToClass(context.Background(), 5, hub.NewNotification("x", "", nil))
	assert.Equal(t, 0, n)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, h.Classes.Len(5))
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := hub.NewRegistry[uint]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &hubtest.Conn{Name: "c"}
			r.Add(uint(i%3), c)
			_ = r.Snapshot(uint(i % 3))
			r.RemoveConn(c)
		}(i)
	}
	wg.Wait()
	assert.Empty(t, r.Keys())
}

func TestDispatcherDeliversInOrderAndDrains(t *testing.T) {
	h := hub.New(hub.Options{})
	c := &hubtest.Conn{Name: "c"}
	h.Classes.Add(7, c)

	d := hub.NewDispatcher(h, 16, nil)
	for _, typ := range []string{"a", "b", "c"} {
		d.ToClass(7, hub.NewNotification(typ, "", nil))
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	sent := c.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{sent[0].Type, sent[1].Type, sent[2].Type})

	// after close emits are dropped, never panic
	d.ToStaff(hub.NewNotification("late", "", nil))
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	h := hub.New(hub.Options{SendTimeout: time.Second})
	block := make(chan struct{})
	gate := &gateConn{release: block}
	h.Users.Add(1, gate)

	d := hub.NewDispatcher(h, 1, nil)
	for i := 0; i < 10; i++ {
		d.ToUser(1, hub.NewNotification("n", "", nil)) // never blocks
	}
	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Less(t, gate.count(), 10)
}

type gateConn struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (g *gateConn) ID() string { return "gate" }
func (g *gateConn) Close() error { return nil }
func (g *gateConn) Send(ctx context.Context, _ hub.Notification) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.mu.Lock()
	g.n++
	g.mu.Unlock()
	return nil
}
func (g *gateConn) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

func TestDispatcherSlowKeyDoesNotStallOthers(t *testing.T) {
	h := hub.New(hub.Options{SendTimeout: 5 * time.Second})
	block := make(chan struct{})
	stuck := &gateConn{release: block}
	fast := &hubtest.Conn{Name: "fast"}
	h.Classes.Add(1, stuck)
	h.Classes.Add(2, fast)

	d := hub.NewDispatcher(h, 16, nil)
	d.ToClass(1, hub.NewNotification("slow", "", nil))
	d.ToClass(2, hub.NewNotification("quick", "", nil))

	assert.Eventually(t, func() bool { return len(fast.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, stuck.count())

	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 1, stuck.count())
}
