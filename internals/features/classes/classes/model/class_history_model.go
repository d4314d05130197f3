package model

import "time"

type ChangeType string

const (
	ChangeRegister       ChangeType = "register"
	ChangeUnregister     ChangeType = "unregister"
	ChangeUpdateClass    ChangeType = "update_class"
	ChangeUpdateSchedule ChangeType = "update_schedule"
	ChangeAssignCourse   ChangeType = "assign_course"
	ChangeRemoveCourse   ChangeType = "remove_course"
)

// ClassHistoryModel is append-only. Rows disappear only with their class.
type ClassHistoryModel struct {
	ClassHistoryID         uint       `json:"class_history_id"                gorm:"column:class_history_id;primaryKey;autoIncrement"`
	ClassHistoryClassID    uint       `json:"class_history_class_id"          gorm:"column:class_history_class_id;not null;index"`
	ClassHistoryChangedBy  *uint      `json:"class_history_changed_by,omitempty" gorm:"column:class_history_changed_by"`
	ClassHistoryChangeType ChangeType `json:"class_history_change_type"       gorm:"column:class_history_change_type;type:varchar(32);not null"`
	ClassHistoryChangeTime time.Time  `json:"class_history_change_time"       gorm:"column:class_history_change_time;not null;index"`
	ClassHistoryNote       *string    `json:"class_history_note,omitempty"    gorm:"column:class_history_note;type:varchar(1000)"`
}

func (ClassHistoryModel) TableName() string { return "class_histories" }
