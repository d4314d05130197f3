package dto

import "strings"

type CreateCourseRequest struct {
	CourseName        string  `json:"course_name"        validate:"required,min=1,max=255"`
	CourseDescription *string `json:"course_description" validate:"omitempty,max=1000"`
	CourseImage       *string `json:"course_image"       validate:"omitempty,url,max=1000"`
}

func (r *CreateCourseRequest) Normalize() {
	r.CourseName = strings.TrimSpace(r.CourseName)
	for _, p := range []**string{&r.CourseDescription, &r.CourseImage} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" {
			*p = nil
			continue
		}
		*p = &v
	}
}

type ListCourseQuery struct {
	Q string `query:"q"`
}
