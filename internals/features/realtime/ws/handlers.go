package ws

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"coursereg_backend/internals/constants"
	"coursereg_backend/internals/features/realtime/hub"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

const locKey = "ws_key"

// ClassCounter reports how many students are registered in a class.
type ClassCounter interface {
	Count(ctx context.Context, classID uint) (int64, error)
}

type frameReader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

type Handler struct {
	Hub         *hub.Hub
	Notifier    hub.Notifier
	Relay       *Relay
	Counts      ClassCounter
	SendTimeout time.Duration
	Log         *zap.Logger
}

func NewHandler(h *hub.Hub, n hub.Notifier, relay *Relay, counts ClassCounter, sendTimeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Hub:         h,
		Notifier:    n,
		Relay:       relay,
		Counts:      counts,
		SendTimeout: sendTimeout,
		Log:         log.Named("ws"),
	}
}

/* =========================
   Upgrade guards (plain HTTP, before the handshake)
   ========================= */

func RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// KeyFromParam stores a numeric path param for the socket handler.
func KeyFromParam(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := helperAuth.ParseUintParam(c, name)
		if err != nil {
			return helper.JsonFromError(c, err)
		}
		c.Locals(locKey, id)
		return c.Next()
	}
}

// SelfOrAdmin allows /ws/user/:user_id only for that user or an admin.
func SelfOrAdmin(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	id, _ := c.Locals(locKey).(uint)
	if id != ident.UserID && !ident.IsAdmin() {
		return helper.JsonError(c, fiber.StatusForbidden, "Tidak boleh berlangganan notifikasi user lain")
	}
	return c.Next()
}

/* =========================
   Socket entry points
   ========================= */

func (h *Handler) ClassCount() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(locKey).(uint)
		h.serveClassCount(conn, NewSocket(conn, h.SendTimeout), id)
	})
}

func (h *Handler) ClassNotices() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(locKey).(uint)
		h.serveClassNotices(conn, NewSocket(conn, h.SendTimeout), id)
	})
}

func (h *Handler) Attendance() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(locKey).(uint)
		h.serveAttendance(conn, NewSocket(conn, h.SendTimeout), id)
	})
}

// Staff serves the admin or teacher notification channel.
func (h *Handler) Staff(role constants.Role) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.serveStaff(conn, NewSocket(conn, h.SendTimeout), role)
	})
}

func (h *Handler) User() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(locKey).(uint)
		h.serveUser(conn, NewSocket(conn, h.SendTimeout), id)
	})
}

/* =========================
   Per-channel loops
   ========================= */

func (h *Handler) serveClassCount(r frameReader, sock hub.Conn, classID uint) {
	h.Hub.Classes.Add(classID, sock)
	h.greet(sock, map[string]any{"class_id": classID, "channel": "class"})
	h.broadcastCount(classID)
	h.pump(r, sock, func([]byte) { h.broadcastCount(classID) })
}

func (h *Handler) serveClassNotices(r frameReader, sock hub.Conn, classID uint) {
	h.Hub.ClassNotices.Add(classID, sock)
	h.greet(sock, map[string]any{"class_id": classID, "channel": "class_notice"})
	h.pump(r, sock, nil)
}

func (h *Handler) serveAttendance(r frameReader, sock hub.Conn, classID uint) {
	h.Hub.Classes.Add(classID, sock)
	h.greet(sock, map[string]any{"class_id": classID, "channel": "attendance"})
	h.pump(r, sock, func(raw []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), h.sendTimeout())
		defer cancel()
		h.Relay.Handle(ctx, classID, sock, raw)
	})
}

func (h *Handler) serveStaff(r frameReader, sock hub.Conn, role constants.Role) {
	h.Hub.Staff.Add(role, sock)
	h.greet(sock, map[string]any{"channel": "staff", "role": string(role)})
	h.pump(r, sock, nil)
}

func (h *Handler) serveUser(r frameReader, sock hub.Conn, userID uint) {
	h.Hub.Users.Add(userID, sock)
	h.greet(sock, map[string]any{"channel": "user", "user_id": userID})
	h.pump(r, sock, nil)
}

func (h *Handler) sendTimeout() time.Duration {
	if h.SendTimeout <= 0 {
		return hub.DefaultSendTimeout
	}
	return h.SendTimeout
}

func (h *Handler) greet(sock hub.Conn, data map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), h.sendTimeout())
	defer cancel()
	h.Hub.SendTo(ctx, sock, hub.NewNotification(hub.TypeConnectionEstablished, "Terhubung", data))
}

func (h *Handler) broadcastCount(classID uint) {
	if h.Counts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.sendTimeout())
	defer cancel()
	n, err := h.Counts.Count(ctx, classID)
	if err != nil {
		h.Log.Warn("class count failed", zap.Uint("class_id", classID), zap.Error(err))
		return
	}
	h.Notifier.ToClass(classID, hub.NewNotification(hub.TypeClassCount, "",
		map[string]any{"class_id": classID, "current_count": n}))
}

// pump reads until the peer goes away, then drops sock from every registry.
func (h *Handler) pump(r frameReader, sock hub.Conn, onText func([]byte)) {
	defer h.Hub.Drop(sock)
	for {
		mt, msg, err := r.ReadMessage()
		if err != nil {
			h.Log.Debug("socket read ended", zap.String("conn", sock.ID()), zap.Error(err))
			return
		}
		if mt == websocket.TextMessage && onText != nil {
			onText(msg)
		}
	}
}
