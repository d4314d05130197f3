package ws

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereg_backend/internals/constants"
	"coursereg_backend/internals/features/realtime/hub"
	"coursereg_backend/internals/features/realtime/hub/hubtest"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type script struct {
	frames [][]byte
	i      int
}

func (s *script) ReadMessage() (int, []byte, error) {
	if s.i >= len(s.frames) {
		return 0, nil, io.EOF
	}
	f := s.frames[s.i]
	s.i++
	return websocket.TextMessage, f, nil
}

type names map[uint]string

func (n names) DisplayName(_ context.Context, id uint) string {
	if v, ok := n[id]; ok {
		return v
	}
	return "Student ?"
}

type counter struct{ n int64 }

func (c counter) Count(context.Context, uint) (int64, error) { return c.n, nil }

func newHandler(rec *hubtest.Recorder) *Handler {
	h := hub.New(hub.Options{SendTimeout: time.Second})
	return NewHandler(h, rec, NewRelay(h, rec, names{21: "Ani"}, nil), counter{n: 3}, time.Second, nil)
}

func frames(s ...string) *script {
	out := &script{}
	for _, f := range s {
		out.frames = append(out.frames, []byte(f))
	}
	return out
}

func TestAttendanceChannelDispatch(t *testing.T) {
	rec := &hubtest.Recorder{}
	h := newHandler(rec)
	sock := &hubtest.Conn{Name: "s1"}

	h.serveAttendance(frames(
		`{"type":"attendance_update","student_id":21,"status":"late"}`,
		`{"type":"attendance_session_started"}`,
		`{"type":"session_ended"}`,
		`{"type":"student_join","student_id":22,"student_name":"Budi"}`,
		`{"type":"self_attendance_marked","student_id":21,"status":"present"}`,
		`{"type":"chat_message","message":"halo"}`,
		`{"type":"join"}`,
		`{"type":"ping"}`,
		`not json`,
		`{"type":"mystery"}`,
	), sock, 5)

	assert.Equal(t, []string{
		hub.TypeAttendanceUpdate,
		hub.TypeSessionStarted,
		hub.TypeSessionEnded,
		hub.TypeStudentJoined,
		hub.TypeSelfAttendanceMarked,
		hub.TypeChatMessage,
	}, rec.Types("class"))

	calls := rec.Calls()
	for _, c := range calls {
		assert.Equal(t, uint(5), c.ID)
	}
	self := calls[4].N.Data.(map[string]any)
	assert.Equal(t, "Ani", self["student_name"])
	chat := calls[5].N.Data.(map[string]any)
	assert.Equal(t, map[string]any{"name": "Unknown"}, chat["user"])

	sent := sock.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, hub.TypeConnectionEstablished, sent[0].Type)
	assert.Equal(t, hub.TypePong, sent[1].Type)

	// read error removes the connection
	assert.Equal(t, 0, h.Hub.Classes.Len(5))
	assert.True(t, sock.Closed())
}

func TestClassCountChannel(t *testing.T) {
	rec := &hubtest.Recorder{}
	h := newHandler(rec)
	sock := &hubtest.Conn{Name: "c"}

	h.serveClassCount(frames("hi", "again"), sock, 8)

	assert.Equal(t, []string{hub.TypeClassCount, hub.TypeClassCount, hub.TypeClassCount}, rec.Types("class"))
	data := rec.Calls()[0].N.Data.(map[string]any)
	assert.Equal(t, int64(3), data["current_count"])
	assert.NotContains(t, data, "count")
	assert.Equal(t, 0, h.Hub.Classes.Len(8))
}

func TestOtherChannelsRegisterThenDrop(t *testing.T) {
	rec := &hubtest.Recorder{}
	h := newHandler(rec)

	staff := &hubtest.Conn{Name: "staff"}
	h.serveStaff(frames("ignored"), staff, constants.RoleTeacher)
	assert.Empty(t, rec.Calls())
	assert.Equal(t, 0, h.Hub.Staff.Len(constants.RoleTeacher))
	assert.Equal(t, hub.TypeConnectionEstablished, staff.Sent()[0].Type)

	user := &hubtest.Conn{Name: "user"}
	h.serveUser(frames(), user, 21)
	assert.True(t, user.Closed())

	notice := &hubtest.Conn{Name: "notice"}
	h.serveClassNotices(frames("keepalive"), notice, 2)
	assert.Equal(t, 0, h.Hub.ClassNotices.Len(2))
}

type fakeWriter struct {
	mu       sync.Mutex
	deadline time.Time
	frames   [][]byte
	closes   int
	fail     error
}

func (f *fakeWriter) WriteMessage(_ int, b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.frames = append(f.frames, b)
	return nil
}

func (f *fakeWriter) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadline = t
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func TestSocketSend(t *testing.T) {
	w := &fakeWriter{}
	s := NewSocket(w, time.Minute)
	assert.NotEmpty(t, s.ID())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Send(ctx, hub.NewNotification(hub.TypePong, "", nil)))

	require.Len(t, w.frames, 1)
	var got map[string]any
	require.NoError(t, sonic.Unmarshal(w.frames[0], &got))
	assert.Equal(t, "pong", got["type"])
	assert.Equal(t, map[string]any{}, got["data"], "data is an object even when empty")
	// the shorter ctx deadline wins
	assert.WithinDuration(t, time.Now().Add(time.Second), w.deadline, 500*time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, w.closes)
	assert.ErrorIs(t, s.Send(context.Background(), hub.NewNotification("x", "", nil)), ErrSocketClosed)

	broken := NewSocket(&fakeWriter{fail: errors.New("pipe")}, 0)
	assert.Error(t, broken.Send(context.Background(), hub.NewNotification("x", "", nil)))
}

func TestGuards(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		helperAuth.SetIdentity(c, helperAuth.Identity{UserID: 21, Roles: []constants.Role{constants.RoleStudent}})
		return c.Next()
	})
	app.Get("/u/:user_id", KeyFromParam("user_id"), SelfOrAdmin, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/up", RequireUpgrade, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	code := func(url string) int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, url, nil), -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, fiber.StatusOK, code("/u/21"))
	assert.Equal(t, fiber.StatusForbidden, code("/u/22"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code("/u/abc"))
	assert.Equal(t, fiber.StatusUpgradeRequired, code("/up"))
}
