package model

import "time"

// RegistrationModel: satu baris per (student, class).
type RegistrationModel struct {
	RegistrationID        uint      `json:"registration_id"         gorm:"column:registration_id;primaryKey;autoIncrement"`
	RegistrationClassID   uint      `json:"registration_class_id"   gorm:"column:registration_class_id;not null;uniqueIndex:uq_registration_student_class,priority:2;index"`
	RegistrationStudentID uint      `json:"registration_student_id" gorm:"column:registration_student_id;not null;uniqueIndex:uq_registration_student_class,priority:1"`
	RegistrationDate      time.Time `json:"registration_date"       gorm:"column:registration_date;not null"`
}

func (RegistrationModel) TableName() string { return "registrations" }
