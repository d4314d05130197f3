package service

import (
	"context"

	"gorm.io/gorm"

	"coursereg_backend/internals/features/classes/classes/dto"
	"coursereg_backend/internals/features/classes/classes/model"
	registrationModel "coursereg_backend/internals/features/classes/registrations/model"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

func isRegistered(db *gorm.DB, studentID, classID uint) (bool, error) {
	var n int64
	err := db.Model(&registrationModel.RegistrationModel{}).
		Where("registration_class_id = ? AND registration_student_id = ?", classID, studentID).
		Count(&n).Error
	return n > 0, err
}

// SubmitFeedback is open to registered students and staff.
func (s *ClassService) SubmitFeedback(ctx context.Context, classID uint, actor helperAuth.Identity, req dto.CreateFeedbackRequest) (*model.FeedbackModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	if err := ensureClassExists(db, classID); err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		ok, err := isRegistered(db, actor.UserID, classID)
		if err != nil {
			return nil, helper.Internal(err, "gagal mengecek registrasi")
		}
		if !ok {
			return nil, helper.Forbidden("only registered students can leave feedback")
		}
	}

	fb := model.FeedbackModel{
		FeedbackClassID: classID,
		FeedbackUserID:  actor.UserID,
		FeedbackContent: req.Content,
	}
	if err := db.Create(&fb).Error; err != nil {
		return nil, helper.Internal(err, "gagal menyimpan feedback")
	}
	return &fb, nil
}

// ListFeedback shows everything to staff and only their own rows to others.
func (s *ClassService) ListFeedback(ctx context.Context, classID uint, actor helperAuth.Identity) ([]model.FeedbackModel, error) {
	db := s.DB.WithContext(ctx)
	if err := ensureClassExists(db, classID); err != nil {
		return nil, err
	}
	q := db.Where("feedback_class_id = ?", classID)
	if !actor.IsStaff() {
		q = q.Where("feedback_user_id = ?", actor.UserID)
	}
	out := make([]model.FeedbackModel, 0)
	if err := q.Order("feedback_created_at DESC, feedback_id DESC").Find(&out).Error; err != nil {
		return nil, helper.Internal(err, "gagal mengambil feedback")
	}
	return out, nil
}
