package model

import "time"

type CourseModel struct {
	CourseID          uint    `json:"course_id"                    gorm:"column:course_id;primaryKey;autoIncrement"`
	CourseName        string  `json:"course_name"                  gorm:"column:course_name;type:varchar(255);not null;index"`
	CourseDescription *string `json:"course_description,omitempty" gorm:"column:course_description;type:varchar(1000)"`
	CourseImage       *string `json:"course_image,omitempty"       gorm:"column:course_image;type:varchar(1000)"`

	CourseCreatedAt time.Time `json:"course_created_at" gorm:"column:course_created_at;autoCreateTime"`
	CourseUpdatedAt time.Time `json:"course_updated_at" gorm:"column:course_updated_at;autoUpdateTime"`
}

func (CourseModel) TableName() string { return "courses" }
