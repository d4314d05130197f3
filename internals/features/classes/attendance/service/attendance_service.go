package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/features/classes/attendance/dto"
	"coursereg_backend/internals/features/classes/attendance/model"
	classModel "coursereg_backend/internals/features/classes/classes/model"
	"coursereg_backend/internals/features/realtime/hub"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
	"coursereg_backend/internals/helpers/dbtime"
)

// RegistrationChecker is satisfied by the registration ledger.
type RegistrationChecker interface {
	IsRegistered(ctx context.Context, studentID, classID uint) (bool, error)
}

type AttendanceService struct {
	DB       *gorm.DB
	Ledger   RegistrationChecker
	Notifier hub.Notifier
	Log      *zap.Logger
}

func NewAttendanceService(db *gorm.DB, ledger RegistrationChecker, notifier hub.Notifier, log *zap.Logger) *AttendanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttendanceService{DB: db, Ledger: ledger, Notifier: notifier, Log: log.Named("attendance")}
}

func (s *AttendanceService) className(ctx context.Context, classID uint) (string, error) {
	var cls classModel.ClassModel
	err := s.DB.WithContext(ctx).Select("class_id", "class_name").First(&cls, "class_id = ?", classID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", helper.NotFound("class %d not found", classID)
	}
	if err != nil {
		return "", helper.Internal(err, "gagal mengambil kelas")
	}
	return cls.ClassName, nil
}

// RequireMember lets staff through and otherwise demands a registration.
func (s *AttendanceService) RequireMember(ctx context.Context, classID uint, actor helperAuth.Identity) error {
	if _, err := s.className(ctx, classID); err != nil {
		return err
	}
	if actor.IsStaff() {
		return nil
	}
	ok, err := s.Ledger.IsRegistered(ctx, actor.UserID, classID)
	if err != nil {
		return err
	}
	if !ok {
		return helper.Forbidden("you are not registered in class %d", classID)
	}
	return nil
}

func (s *AttendanceService) requireStaff(ctx context.Context, classID uint, actor helperAuth.Identity, action string) error {
	if !actor.IsStaff() {
		return helper.Forbidden("only teachers or admins can %s", action)
	}
	_, err := s.className(ctx, classID)
	return err
}

func (s *AttendanceService) emit(classID uint, n hub.Notification) {
	if s.Notifier != nil {
		s.Notifier.ToClass(classID, n)
	}
}

// resolveDay turns an optional "YYYY-MM-DD" into the UTC-midnight key.
func resolveDay(raw string) (time.Time, error) {
	if raw == "" {
		return dbtime.Today(), nil
	}
	t, err := dbtime.ParseDate(raw)
	if err != nil {
		return time.Time{}, helper.Validation("date %q must be YYYY-MM-DD", raw)
	}
	return dbtime.DayStart(t), nil
}

func entryToRow(classID uint, day time.Time, markedBy uint, e dto.AttendanceEntry) model.AttendanceModel {
	by := markedBy
	return model.AttendanceModel{
		AttendanceClassID:    classID,
		AttendanceStudentID:  e.StudentID,
		AttendanceDate:       day,
		AttendanceStatus:     e.Status,
		AttendanceJoinTime:   utcPtr(e.JoinTime),
		AttendanceLeaveTime:  utcPtr(e.LeaveTime),
		AttendanceDeviceInfo: e.DeviceInfo,
		AttendanceNotes:      e.Notes,
		AttendanceMarkedBy:   &by,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
