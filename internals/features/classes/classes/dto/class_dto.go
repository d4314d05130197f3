package dto

import (
	"encoding/json"
	"strings"
	"time"

	"coursereg_backend/internals/features/classes/classes/model"
	"coursereg_backend/internals/features/classes/schedule"
)

/* =========================================================
   PATCH FIELD: tri-state (absent | null | value)
   ========================================================= */

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

// Set builds a present field; handy for callers outside JSON.
func Set[T any](v T) PatchField[T] { return PatchField[T]{Present: true, Value: &v} }

/* =========================================================
   CREATE
   ========================================================= */

type CreateClassRequest struct {
	ClassName        string            `json:"class_name"         validate:"required,min=1,max=120"`
	ClassMaxStudents *int              `json:"class_max_students" validate:"omitempty,min=1,max=1000"`
	ClassSchedule    schedule.Schedule `json:"class_schedule"     validate:"required,min=1"`
	ClassCourseID    *uint             `json:"class_course_id"    validate:"omitempty,min=1"`
}

func (r *CreateClassRequest) Normalize() {
	r.ClassName = strings.TrimSpace(r.ClassName)
}

/* =========================================================
   PATCH (PUT /classes/:id)
   ========================================================= */

// PatchClassRequest only changes fields that are present in the body.
// class_course_id: null unlinks the course.
type PatchClassRequest struct {
	ClassName        PatchField[string]            `json:"class_name"`
	ClassMaxStudents PatchField[int]               `json:"class_max_students"`
	ClassSchedule    PatchField[schedule.Schedule] `json:"class_schedule"`
	ClassCourseID    PatchField[uint]              `json:"class_course_id"`
}

func (r *PatchClassRequest) Normalize() {
	if r.ClassName.Present && r.ClassName.Value != nil {
		v := strings.TrimSpace(*r.ClassName.Value)
		r.ClassName.Value = &v
	}
}

func (r *PatchClassRequest) Empty() bool {
	return !r.ClassName.Present && !r.ClassMaxStudents.Present &&
		!r.ClassSchedule.Present && !r.ClassCourseID.Present
}

type AssignCourseRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
}

type ListClassQuery struct {
	CourseID *uint `query:"course_id"`
}

/* =========================================================
   RESPONSES
   ========================================================= */

type ClassSummary struct {
	ClassID          uint              `json:"class_id"`
	ClassName        string            `json:"class_name"`
	ClassMaxStudents int               `json:"class_max_students"`
	ClassSchedule    schedule.Schedule `json:"class_schedule"`
	ClassCourseID    *uint             `json:"class_course_id,omitempty"`
	ClassCreatedBy   *uint             `json:"class_created_by,omitempty"`
	CurrentCount     int64             `json:"current_count"`
	IsRegistered     bool              `json:"is_registered"`
	ClassCreatedAt   time.Time         `json:"class_created_at"`
	ClassUpdatedAt   time.Time         `json:"class_updated_at"`
}

func NewClassSummary(m *model.ClassModel, count int64, registered bool) ClassSummary {
	return ClassSummary{
		ClassID:          m.ClassID,
		ClassName:        m.ClassName,
		ClassMaxStudents: m.ClassMaxStudents,
		ClassSchedule:    m.Schedule(),
		ClassCourseID:    m.ClassCourseID,
		ClassCreatedBy:   m.ClassCreatedBy,
		CurrentCount:     count,
		IsRegistered:     registered,
		ClassCreatedAt:   m.ClassCreatedAt,
		ClassUpdatedAt:   m.ClassUpdatedAt,
	}
}

// DeleteAck reports how many rows each cascade step removed.
type DeleteAck struct {
	ClassID uint             `json:"class_id"`
	Deleted map[string]int64 `json:"deleted"`
}

type CreateFeedbackRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

func (r *CreateFeedbackRequest) Normalize() { r.Content = strings.TrimSpace(r.Content) }
