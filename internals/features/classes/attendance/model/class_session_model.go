package model

import "time"

// ClassSessionModel: paling banyak satu sesi aktif per kelas.
type ClassSessionModel struct {
	ClassSessionID            uint       `json:"class_session_id"                      gorm:"column:class_session_id;primaryKey;autoIncrement"`
	ClassSessionClassID       uint       `json:"class_session_class_id"                gorm:"column:class_session_class_id;not null;index"`
	ClassSessionDate          time.Time  `json:"class_session_date"                    gorm:"column:class_session_date;not null"`
	ClassSessionStartTime     *time.Time `json:"class_session_start_time,omitempty"    gorm:"column:class_session_start_time"`
	ClassSessionEndTime       *time.Time `json:"class_session_end_time,omitempty"      gorm:"column:class_session_end_time"`
	ClassSessionLessonTopic   *string    `json:"class_session_lesson_topic,omitempty"  gorm:"column:class_session_lesson_topic;type:varchar(255)"`
	ClassSessionDescription   *string    `json:"class_session_description,omitempty"   gorm:"column:class_session_description;type:text"`
	ClassSessionVirtualRoomID *string    `json:"class_session_virtual_room_id,omitempty" gorm:"column:class_session_virtual_room_id;type:varchar(100)"`
	ClassSessionIsActive      bool       `json:"class_session_is_active"               gorm:"column:class_session_is_active;not null;default:false;index"`

	ClassSessionCreatedAt time.Time `json:"class_session_created_at" gorm:"column:class_session_created_at;autoCreateTime"`
	ClassSessionUpdatedAt time.Time `json:"class_session_updated_at" gorm:"column:class_session_updated_at;autoUpdateTime"`
}

func (ClassSessionModel) TableName() string { return "class_sessions" }
