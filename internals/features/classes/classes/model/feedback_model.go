package model

import "time"

type FeedbackModel struct {
	FeedbackID        uint      `json:"feedback_id"         gorm:"column:feedback_id;primaryKey;autoIncrement"`
	FeedbackClassID   uint      `json:"feedback_class_id"   gorm:"column:feedback_class_id;not null;index"`
	FeedbackUserID    uint      `json:"feedback_user_id"    gorm:"column:feedback_user_id;not null"`
	FeedbackContent   string    `json:"feedback_content"    gorm:"column:feedback_content;type:varchar(1000);not null"`
	FeedbackCreatedAt time.Time `json:"feedback_created_at" gorm:"column:feedback_created_at;autoCreateTime"`
}

func (FeedbackModel) TableName() string { return "feedbacks" }
