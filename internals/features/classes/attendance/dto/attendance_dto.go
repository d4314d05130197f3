package dto

import (
	"encoding/json"
	"strings"
	"time"

	"coursereg_backend/internals/features/classes/attendance/model"
)

type PatchField[T any] struct {
	Present bool
	Value   *T
}

func (p *PatchField[T]) UnmarshalJSON(b []byte) error {
	p.Present = true
	if string(b) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func (p PatchField[T]) Get() (*T, bool) { return p.Value, p.Present }

func Set[T any](v T) PatchField[T] { return PatchField[T]{Present: true, Value: &v} }

/* =========================================================
   SESSIONS
   ========================================================= */

type OpenSessionRequest struct {
	SessionDate   string     `json:"session_date"` // YYYY-MM-DD, default hari ini
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	LessonTopic   *string    `json:"lesson_topic"    validate:"omitempty,max=255"`
	Description   *string    `json:"description"`
	VirtualRoomID *string    `json:"virtual_room_id" validate:"omitempty,max=100"`
}

func (r *OpenSessionRequest) Normalize() {
	r.SessionDate = strings.TrimSpace(r.SessionDate)
	r.LessonTopic = trimPtr(r.LessonTopic)
	r.Description = trimPtr(r.Description)
	r.VirtualRoomID = trimPtr(r.VirtualRoomID)
}

type UpdateSessionRequest struct {
	StartTime     PatchField[time.Time] `json:"start_time"`
	EndTime       PatchField[time.Time] `json:"end_time"`
	LessonTopic   PatchField[string]    `json:"lesson_topic"`
	Description   PatchField[string]    `json:"description"`
	VirtualRoomID PatchField[string]    `json:"virtual_room_id"`
	IsActive      PatchField[bool]      `json:"is_active"`
}

/* =========================================================
   MARKING
   ========================================================= */

type AttendanceEntry struct {
	StudentID  uint         `json:"student_id"  validate:"required,min=1"`
	Status     model.Status `json:"status"      validate:"required,oneof=present absent late excused"`
	JoinTime   *time.Time   `json:"join_time"`
	LeaveTime  *time.Time   `json:"leave_time"`
	DeviceInfo *string      `json:"device_info" validate:"omitempty,max=255"`
	Notes      *string      `json:"notes"       validate:"omitempty,max=1000"`
}

// MarkAttendanceRequest is used by both bulk and self marking.
type MarkAttendanceRequest struct {
	Date    string            `json:"date"`
	Entries []AttendanceEntry `json:"attendance" validate:"required,min=1,dive"`
}

func (r *MarkAttendanceRequest) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	for i := range r.Entries {
		r.Entries[i].Status = model.Status(strings.ToLower(strings.TrimSpace(string(r.Entries[i].Status))))
		r.Entries[i].DeviceInfo = trimPtr(r.Entries[i].DeviceInfo)
		r.Entries[i].Notes = trimPtr(r.Entries[i].Notes)
	}
}

type JoinClassRequest struct {
	StudentID  *uint      `json:"student_id"`
	JoinTime   *time.Time `json:"join_time"`
	DeviceInfo *string    `json:"device_info" validate:"omitempty,max=255"`
}

type UpdateAttendanceRequest struct {
	Status    PatchField[model.Status] `json:"status"`
	JoinTime  PatchField[time.Time]    `json:"join_time"`
	LeaveTime PatchField[time.Time]    `json:"leave_time"`
	Notes     PatchField[string]       `json:"notes"`
}

/* =========================================================
   QUERIES
   ========================================================= */

type HistoryQuery struct {
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	StudentID *uint  `query:"student_id"`
	Status    string `query:"status"`
}

type StatsQuery struct {
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
}

type Stats struct {
	TotalStudents  int64   `json:"total_students"`
	Present        int64   `json:"present"`
	Absent         int64   `json:"absent"`
	Late           int64   `json:"late"`
	Excused        int64   `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
