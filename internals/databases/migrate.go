package database

import (
	"gorm.io/gorm"

	attendanceModel "coursereg_backend/internals/features/classes/attendance/model"
	classModel "coursereg_backend/internals/features/classes/classes/model"
	registrationModel "coursereg_backend/internals/features/classes/registrations/model"
	courseModel "coursereg_backend/internals/features/courses/model"
	userModel "coursereg_backend/internals/features/users/model"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&userModel.UserModel{},
		&courseModel.CourseModel{},
		&classModel.ClassModel{},
		&classModel.ClassHistoryModel{},
		&classModel.FeedbackModel{},
		&registrationModel.RegistrationModel{},
		&attendanceModel.AttendanceModel{},
		&attendanceModel.ClassSessionModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
