package model

import (
	"time"

	"gorm.io/datatypes"

	"coursereg_backend/internals/features/classes/schedule"
)

const DefaultMaxStudents = 30

// ClassModel merepresentasikan tabel `classes`
type ClassModel struct {
	ClassID          uint                                 `json:"class_id"           gorm:"column:class_id;primaryKey;autoIncrement"`
	ClassName        string                               `json:"class_name"         gorm:"column:class_name;type:varchar(120);not null"`
	ClassMaxStudents int                                  `json:"class_max_students" gorm:"column:class_max_students;not null;default:30"`
	ClassSchedule    datatypes.JSONType[schedule.Schedule] `json:"class_schedule"     gorm:"column:class_schedule;not null"`

	ClassCourseID  *uint `json:"class_course_id,omitempty"  gorm:"column:class_course_id;index"`
	ClassCreatedBy *uint `json:"class_created_by,omitempty" gorm:"column:class_created_by"`

	ClassCreatedAt time.Time `json:"class_created_at" gorm:"column:class_created_at;autoCreateTime"`
	ClassUpdatedAt time.Time `json:"class_updated_at" gorm:"column:class_updated_at;autoUpdateTime"`
}

func (ClassModel) TableName() string { return "classes" }

// Schedule returns the decoded slot list.
func (m *ClassModel) Schedule() schedule.Schedule { return m.ClassSchedule.Data() }

func (m *ClassModel) SetSchedule(s schedule.Schedule) {
	m.ClassSchedule = datatypes.NewJSONType(s)
}
