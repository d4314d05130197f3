package hub

import "time"

// Notification tags pushed to clients.
const (
	TypeConnectionEstablished = "connection_established"
	TypeClassCount            = "class_count"
	TypeNewRegistration       = "new_registration"
	TypeUnregistration        = "unregistration"
	TypeScheduleChanged       = "schedule_changed"
	TypeClassDeleted          = "class_deleted"
	TypeSessionStarted        = "session_started"
	TypeSessionEnded          = "session_ended"
	TypeAttendanceUpdate      = "attendance_update"
	TypeSelfAttendanceMarked  = "self_attendance_marked"
	TypeStudentJoined         = "student_joined"
	TypeChatMessage           = "chat_message"
	TypePong                  = "pong"
)

// Notification is the only shape written to sockets. It is never persisted.
type Notification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotification never leaves data null; clients always get an object.
func NewNotification(typ, message string, data any) Notification {
	if data == nil {
		data = map[string]any{}
	}
	return Notification{
		Type:      typ,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
