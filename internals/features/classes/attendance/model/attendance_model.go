package model

import "time"

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// AttendanceModel: at most one row per (class, student, date). Date is UTC midnight.
type AttendanceModel struct {
	AttendanceID         uint       `json:"attendance_id"                    gorm:"column:attendance_id;primaryKey;autoIncrement"`
	AttendanceClassID    uint       `json:"attendance_class_id"              gorm:"column:attendance_class_id;not null;index:idx_attendance_class_date,priority:1"`
	AttendanceStudentID  uint       `json:"attendance_student_id"            gorm:"column:attendance_student_id;not null;index"`
	AttendanceDate       time.Time  `json:"attendance_date"                  gorm:"column:attendance_date;not null;index:idx_attendance_class_date,priority:2"`
	AttendanceStatus     Status     `json:"attendance_status"                gorm:"column:attendance_status;type:varchar(16);not null"`
	AttendanceJoinTime   *time.Time `json:"attendance_join_time,omitempty"   gorm:"column:attendance_join_time"`
	AttendanceLeaveTime  *time.Time `json:"attendance_leave_time,omitempty"  gorm:"column:attendance_leave_time"`
	AttendanceDeviceInfo *string    `json:"attendance_device_info,omitempty" gorm:"column:attendance_device_info;type:varchar(255)"`
	AttendanceNotes      *string    `json:"attendance_notes,omitempty"       gorm:"column:attendance_notes;type:varchar(1000)"`
	AttendanceMarkedBy   *uint      `json:"attendance_marked_by,omitempty"   gorm:"column:attendance_marked_by"`

	AttendanceCreatedAt time.Time `json:"attendance_created_at" gorm:"column:attendance_created_at;autoCreateTime"`
	AttendanceUpdatedAt time.Time `json:"attendance_updated_at" gorm:"column:attendance_updated_at;autoUpdateTime"`
}

func (AttendanceModel) TableName() string { return "attendances" }
