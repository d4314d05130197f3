package ws

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"coursereg_backend/internals/features/realtime/hub"
)

// NameResolver looks up a display name for a student id.
type NameResolver interface {
	DisplayName(ctx context.Context, userID uint) string
}

// Inbound is what clients send on the attendance channel.
type Inbound struct {
	Type        string `json:"type"`
	StudentID   uint   `json:"student_id"`
	StudentName string `json:"student_name"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	User        any    `json:"user"`
}

// Relay turns inbound attendance frames into class broadcasts.
type Relay struct {
	Hub      *hub.Hub
	Notifier hub.Notifier
	Names    NameResolver
	Log      *zap.Logger
}

func NewRelay(h *hub.Hub, n hub.Notifier, names NameResolver, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{Hub: h, Notifier: n, Names: names, Log: log.Named("ws-relay")}
}

func (r *Relay) studentName(ctx context.Context, id uint) string {
	if r.Names == nil {
		return fmt.Sprintf("Student %d", id)
	}
	return r.Names.DisplayName(ctx, id)
}

// Handle dispatches one frame. Malformed JSON and unknown types are ignored.
func (r *Relay) Handle(ctx context.Context, classID uint, from hub.Conn, raw []byte) {
	var in Inbound
	if err := sonic.Unmarshal(raw, &in); err != nil {
		r.Log.Debug("ignoring malformed frame", zap.Uint("class_id", classID), zap.Error(err))
		return
	}

	switch strings.TrimSpace(in.Type) {
	case "attendance_update":
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeAttendanceUpdate, "Absensi diperbarui", map[string]any{
			"class_id":     classID,
			"student_id":   in.StudentID,
			"student_name": in.StudentName,
			"status":       in.Status,
		}))

	case "session_started", "attendance_session_started":
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeSessionStarted, "Sesi absensi dibuka",
			map[string]any{"class_id": classID}))

	case "session_ended", "attendance_session_ended":
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeSessionEnded, "Sesi absensi ditutup",
			map[string]any{"class_id": classID}))

	case "student_join":
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeStudentJoined, "Siswa bergabung", map[string]any{
			"class_id":     classID,
			"student_id":   in.StudentID,
			"student_name": in.StudentName,
		}))

	case "self_attendance_marked":
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeSelfAttendanceMarked, "Siswa melakukan absensi", map[string]any{
			"class_id":     classID,
			"student_id":   in.StudentID,
			"student_name": r.studentName(ctx, in.StudentID),
			"status":       in.Status,
		}))

	case "chat_message":
		user := in.User
		if user == nil {
			user = map[string]any{"name": "Unknown"}
		}
		r.Notifier.ToClass(classID, hub.NewNotification(hub.TypeChatMessage, in.Message, map[string]any{
			"class_id": classID,
			"message":  in.Message,
			"user":     user,
		}))

	case "join", "leave":
		r.Log.Info("👥 class presence", zap.String("event", in.Type),
			zap.Uint("class_id", classID), zap.String("conn", from.ID()))

	case "ping":
		r.Hub.SendTo(ctx, from, hub.NewNotification(hub.TypePong, "", nil))

	default:
		r.Log.Debug("ignoring unknown frame type", zap.String("type", in.Type))
	}
}
