package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	attendanceModel "coursereg_backend/internals/features/classes/attendance/model"
	"coursereg_backend/internals/features/classes/classes/dto"
	"coursereg_backend/internals/features/classes/classes/model"
	registrationModel "coursereg_backend/internals/features/classes/registrations/model"
	"coursereg_backend/internals/features/classes/schedule"
	courseModel "coursereg_backend/internals/features/courses/model"
	"coursereg_backend/internals/features/realtime/hub"
	"coursereg_backend/internals/constants"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

// scheduleLockKey guards the global "no two classes overlap" invariant.
const scheduleLockKey int64 = 0x5C4ED

type ClassService struct {
	DB       *gorm.DB
	Notifier hub.Notifier
	Log      *zap.Logger
}

func NewClassService(db *gorm.DB, notifier hub.Notifier, log *zap.Logger) *ClassService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClassService{DB: db, Notifier: notifier, Log: log.Named("classes")}
}

/* ===============================
   Cascade
=================================*/

type dependent struct {
	Table  string
	model  any
	column string
}

// cascadeOrder is the delete order for rows owned by a class.
var cascadeOrder = []dependent{
	{"class_histories", &model.ClassHistoryModel{}, "class_history_class_id"},
	{"registrations", &registrationModel.RegistrationModel{}, "registration_class_id"},
	{"attendances", &attendanceModel.AttendanceModel{}, "attendance_class_id"},
	{"feedbacks", &model.FeedbackModel{}, "feedback_class_id"},
	{"class_sessions", &attendanceModel.ClassSessionModel{}, "class_session_class_id"},
}

// CascadeTables returns the dependent tables in delete order.
func CascadeTables() []string {
	out := make([]string, 0, len(cascadeOrder))
	for _, d := range cascadeOrder {
		out = append(out, d.Table)
	}
	return out
}

/* ===============================
   Helpers
=================================*/

func ensureClassExists(db *gorm.DB, classID uint) error {
	var n int64
	if err := db.Model(&model.ClassModel{}).Where("class_id = ?", classID).Count(&n).Error; err != nil {
		return helper.Internal(err, "gagal mengecek kelas")
	}
	if n == 0 {
		return helper.NotFound("class %d not found", classID)
	}
	return nil
}

func lockClass(tx *gorm.DB, classID uint) (*model.ClassModel, error) {
	var cls model.ClassModel
	if err := helper.ForUpdate(tx).First(&cls, "class_id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("class %d not found", classID)
		}
		return nil, helper.Internal(err, "gagal mengambil kelas")
	}
	return &cls, nil
}

func ensureCourseExists(tx *gorm.DB, courseID uint) error {
	var n int64
	if err := tx.Model(&courseModel.CourseModel{}).Where("course_id = ?", courseID).Count(&n).Error; err != nil {
		return helper.Internal(err, "gagal mengecek course")
	}
	if n == 0 {
		return helper.NotFound("course %d not found", courseID)
	}
	return nil
}

func countRegistrations(tx *gorm.DB, classID uint) (int64, error) {
	var n int64
	err := tx.Model(&registrationModel.RegistrationModel{}).
		Where("registration_class_id = ?", classID).
		Count(&n).Error
	return n, err
}

// checkGlobalConflict compares sched with every other class and reports the
// first clash by class name, scanning in id order.
func checkGlobalConflict(tx *gorm.DB, sched schedule.Schedule, excludeID uint) error {
	if err := helper.AdvisoryXactLock(tx, scheduleLockKey); err != nil {
		return helper.Internal(err, "gagal mengunci jadwal")
	}
	q := tx.Model(&model.ClassModel{}).Select("class_id", "class_name", "class_schedule")
	if excludeID != 0 {
		q = q.Where("class_id <> ?", excludeID)
	}
	var others []model.ClassModel
	if err := q.Order("class_id ASC").Find(&others).Error; err != nil {
		return helper.Internal(err, "gagal memuat jadwal kelas")
	}
	for i := range others {
		if mine, theirs, ok := schedule.FirstConflict(sched, others[i].Schedule()); ok {
			return helper.Conflict("schedule conflicts with class %q (%s overlaps %s)",
				others[i].ClassName, mine, theirs)
		}
	}
	return nil
}

func validateSchedule(s schedule.Schedule) error {
	if err := s.Validate(); err != nil {
		return &helper.AppError{
			Kind:    helper.KindValidation,
			Message: "invalid schedule",
			Fields:  map[string][]string{"class_schedule": {err.Error()}},
		}
	}
	return nil
}

func uintPtrString(p *uint) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *p)
}

/* ===============================
   Create
=================================*/

func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest, actor helperAuth.Identity) (*model.ClassModel, error) {
	if err := helperAuth.Require(constants.StaffRoles, actor.Roles, "kelas"); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := validateSchedule(req.ClassSchedule); err != nil {
		return nil, err
	}

	maxStudents := model.DefaultMaxStudents
	if req.ClassMaxStudents != nil {
		maxStudents = *req.ClassMaxStudents
	}
	creator := actor.UserID
	cls := model.ClassModel{
		ClassName:        req.ClassName,
		ClassMaxStudents: maxStudents,
		ClassCourseID:    req.ClassCourseID,
		ClassCreatedBy:   &creator,
	}
	cls.SetSchedule(req.ClassSchedule)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ClassCourseID != nil {
			if err := ensureCourseExists(tx, *req.ClassCourseID); err != nil {
				return err
			}
		}
		if err := checkGlobalConflict(tx, req.ClassSchedule, 0); err != nil {
			return err
		}
		if err := tx.Create(&cls).Error; err != nil {
			return helper.Internal(err, "gagal membuat kelas")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("class created", zap.Uint("class_id", cls.ClassID), zap.String("name", cls.ClassName), zap.Uint("by", actor.UserID))
	return &cls, nil
}

/* ===============================
   Update
=================================*/

func (s *ClassService) Update(ctx context.Context, classID uint, patch dto.PatchClassRequest, actor helperAuth.Identity) (*dto.ClassSummary, error) {
	if err := helperAuth.Require(constants.StaffRoles, actor.Roles, "kelas"); err != nil {
		return nil, err
	}
	patch.Normalize()
	if patch.Empty() {
		return nil, helper.Validation("no fields to update")
	}

	var (
		summary         dto.ClassSummary
		scheduleChanged bool
		oldSchedule     schedule.Schedule
		studentIDs      []uint
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}
		count, err := countRegistrations(tx, classID)
		if err != nil {
			return helper.Internal(err, "gagal menghitung pendaftar")
		}

		changes := make([]string, 0, 4)
		cols := make([]string, 0, 5)
		otherChanged := false

		if v, ok := patch.ClassName.Get(); ok {
			if v == nil || *v == "" {
				return helper.Validation("class_name cannot be empty")
			}
			if utf8.RuneCountInString(*v) > 120 {
				return helper.Validation("class_name too long")
			}
			if *v != cls.ClassName {
				changes = append(changes, fmt.Sprintf("class_name: %s → %s", cls.ClassName, *v))
				cls.ClassName = *v
				cols = append(cols, "class_name")
				otherChanged = true
			}
		}

		if v, ok := patch.ClassMaxStudents.Get(); ok {
			if v == nil || *v < 1 {
				return helper.Validation("class_max_students must be at least 1")
			}
			if int64(*v) < count {
				return helper.Conflict("class_max_students %d is below the current count %d", *v, count)
			}
			if *v != cls.ClassMaxStudents {
				changes = append(changes, fmt.Sprintf("class_max_students: %d → %d", cls.ClassMaxStudents, *v))
				cls.ClassMaxStudents = *v
				cols = append(cols, "class_max_students")
				otherChanged = true
			}
		}

		if v, ok := patch.ClassSchedule.Get(); ok {
			if v == nil {
				return helper.Validation("class_schedule cannot be null")
			}
			if err := validateSchedule(*v); err != nil {
				return err
			}
			current := cls.Schedule()
			if current.String() != v.String() {
				if err := checkGlobalConflict(tx, *v, classID); err != nil {
					return err
				}
				changes = append(changes, fmt.Sprintf("class_schedule: %s → %s", current, v))
				oldSchedule = current
				cls.SetSchedule(*v)
				cols = append(cols, "class_schedule")
				scheduleChanged = true
			}
		}

		if v, ok := patch.ClassCourseID.Get(); ok {
			same := (v == nil && cls.ClassCourseID == nil) ||
				(v != nil && cls.ClassCourseID != nil && *v == *cls.ClassCourseID)
			if !same {
				if v != nil {
					if err := ensureCourseExists(tx, *v); err != nil {
						return err
					}
				}
				changes = append(changes, fmt.Sprintf("class_course_id: %s → %s", uintPtrString(cls.ClassCourseID), uintPtrString(v)))
				cls.ClassCourseID = v
				cols = append(cols, "class_course_id")
				otherChanged = true
			}
		}

		if len(cols) > 0 {
			cls.ClassUpdatedAt = time.Now().UTC()
			cols = append(cols, "class_updated_at")
			if err := tx.Model(cls).Select(cols).Updates(cls).Error; err != nil {
				return helper.Internal(err, "gagal memperbarui kelas")
			}

			changeType := model.ChangeUpdateClass
			if scheduleChanged && !otherChanged {
				changeType = model.ChangeUpdateSchedule
			}
			by := actor.UserID
			if err := RecordHistory(tx, classID, &by, changeType, strings.Join(changes, "; ")); err != nil {
				return helper.Internal(err, "gagal mencatat riwayat")
			}
		}

		if scheduleChanged {
			if err := tx.Model(&registrationModel.RegistrationModel{}).
				Where("registration_class_id = ?", classID).
				Pluck("registration_student_id", &studentIDs).Error; err != nil {
				return helper.Internal(err, "gagal mengambil pendaftar")
			}
		}

		summary = dto.NewClassSummary(cls, count, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if scheduleChanged {
		s.notifyScheduleChanged(summary, oldSchedule, studentIDs)
	}
	return &summary, nil
}

func (s *ClassService) notifyScheduleChanged(cls dto.ClassSummary, old schedule.Schedule, students []uint) {
	if s.Notifier == nil {
		return
	}
	data := map[string]any{
		"class_id":     cls.ClassID,
		"class_name":   cls.ClassName,
		"old_schedule": old,
		"new_schedule": cls.ClassSchedule,
	}
	msg := fmt.Sprintf("Jadwal kelas %s berubah menjadi %s", cls.ClassName, cls.ClassSchedule)
	s.Notifier.ToClassNotices(cls.ClassID, hub.NewNotification(hub.TypeScheduleChanged, msg, data))
	for _, id := range students {
		s.Notifier.ToUser(id, hub.NewNotification(hub.TypeScheduleChanged, msg, data))
	}
}

/* ===============================
   Delete
=================================*/

func (s *ClassService) Delete(ctx context.Context, classID uint, actor helperAuth.Identity) (*dto.DeleteAck, error) {
	if err := helperAuth.Require(constants.StaffRoles, actor.Roles, "kelas"); err != nil {
		return nil, err
	}

	ack := dto.DeleteAck{ClassID: classID, Deleted: make(map[string]int64, len(cascadeOrder)+1)}
	var className string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}
		className = cls.ClassName

		for _, d := range cascadeOrder {
			res := tx.Where(d.column+" = ?", classID).Delete(d.model)
			if res.Error != nil {
				return helper.Internal(res.Error, "gagal menghapus %s", d.Table)
			}
			ack.Deleted[d.Table] = res.RowsAffected
		}

		res := tx.Delete(&model.ClassModel{}, "class_id = ?", classID)
		if res.Error != nil {
			return helper.Internal(res.Error, "gagal menghapus kelas")
		}
		ack.Deleted["classes"] = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("class deleted", zap.Uint("class_id", classID), zap.Uint("by", actor.UserID), zap.Any("deleted", ack.Deleted))
	if s.Notifier != nil {
		s.Notifier.ToClassNotices(classID, hub.NewNotification(hub.TypeClassDeleted,
			fmt.Sprintf("Kelas %s telah dihapus", className),
			map[string]any{"class_id": classID, "class_name": className}))
	}
	return &ack, nil
}

/* ===============================
   Course link
=================================*/

func (s *ClassService) AssignCourse(ctx context.Context, classID, courseID uint, actor helperAuth.Identity) (*model.ClassModel, error) {
	if err := helperAuth.Require(constants.StaffRoles, actor.Roles, "kelas"); err != nil {
		return nil, err
	}
	if courseID == 0 {
		return nil, helper.Validation("course_id is required")
	}

	var out *model.ClassModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}
		if err := ensureCourseExists(tx, courseID); err != nil {
			return err
		}
		if cls.ClassCourseID != nil && *cls.ClassCourseID == courseID {
			out = cls
			return nil
		}
		note := fmt.Sprintf("class_course_id: %s → %d", uintPtrString(cls.ClassCourseID), courseID)
		cls.ClassCourseID = &courseID
		cls.ClassUpdatedAt = time.Now().UTC()
		if err := tx.Model(cls).Select("class_course_id", "class_updated_at").Updates(cls).Error; err != nil {
			return helper.Internal(err, "gagal menautkan course")
		}
		by := actor.UserID
		if err := RecordHistory(tx, classID, &by, model.ChangeAssignCourse, note); err != nil {
			return helper.Internal(err, "gagal mencatat riwayat")
		}
		out = cls
		return nil
	})
	return out, err
}

func (s *ClassService) RemoveCourse(ctx context.Context, classID uint, actor helperAuth.Identity) (*model.ClassModel, error) {
	if err := helperAuth.Require(constants.StaffRoles, actor.Roles, "kelas"); err != nil {
		return nil, err
	}

	var out *model.ClassModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}
		if cls.ClassCourseID == nil {
			return helper.Conflict("class %d has no course", classID)
		}
		note := fmt.Sprintf("class_course_id: %d → none", *cls.ClassCourseID)
		cls.ClassCourseID = nil
		cls.ClassUpdatedAt = time.Now().UTC()
		if err := tx.Model(cls).Select("class_course_id", "class_updated_at").Updates(cls).Error; err != nil {
			return helper.Internal(err, "gagal melepas course")
		}
		by := actor.UserID
		if err := RecordHistory(tx, classID, &by, model.ChangeRemoveCourse, note); err != nil {
			return helper.Internal(err, "gagal mencatat riwayat")
		}
		out = cls
		return nil
	})
	return out, err
}

/* ===============================
   Read
=================================*/

type countRow struct {
	ClassID uint
	Total   int64
}

func (s *ClassService) List(ctx context.Context, viewerID uint, q dto.ListClassQuery) ([]dto.ClassSummary, error) {
	db := s.DB.WithContext(ctx)

	query := db.Model(&model.ClassModel{})
	if q.CourseID != nil {
		query = query.Where("class_course_id = ?", *q.CourseID)
	}
	var classes []model.ClassModel
	if err := query.Order("class_id ASC").Find(&classes).Error; err != nil {
		return nil, helper.Internal(err, "gagal mengambil kelas")
	}

	var rows []countRow
	if err := db.Model(&registrationModel.RegistrationModel{}).
		Select("registration_class_id AS class_id, COUNT(*) AS total").
		Group("registration_class_id").
		Scan(&rows).Error; err != nil {
		return nil, helper.Internal(err, "gagal menghitung pendaftar")
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ClassID] = r.Total
	}

	mine := map[uint]bool{}
	if viewerID != 0 {
		var ids []uint
		if err := db.Model(&registrationModel.RegistrationModel{}).
			Where("registration_student_id = ?", viewerID).
			Pluck("registration_class_id", &ids).Error; err != nil {
			return nil, helper.Internal(err, "gagal mengambil registrasi")
		}
		for _, id := range ids {
			mine[id] = true
		}
	}

	out := make([]dto.ClassSummary, 0, len(classes))
	for i := range classes {
		c := &classes[i]
		out = append(out, dto.NewClassSummary(c, counts[c.ClassID], mine[c.ClassID]))
	}
	return out, nil
}

func (s *ClassService) Get(ctx context.Context, classID, viewerID uint) (*dto.ClassSummary, error) {
	db := s.DB.WithContext(ctx)
	var cls model.ClassModel
	if err := db.First(&cls, "class_id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("class %d not found", classID)
		}
		return nil, helper.Internal(err, "gagal mengambil kelas")
	}
	count, err := countRegistrations(db, classID)
	if err != nil {
		return nil, helper.Internal(err, "gagal menghitung pendaftar")
	}
	var mine int64
	if viewerID != 0 {
		if err := db.Model(&registrationModel.RegistrationModel{}).
			Where("registration_class_id = ? AND registration_student_id = ?", classID, viewerID).
			Count(&mine).Error; err != nil {
			return nil, helper.Internal(err, "gagal mengecek registrasi")
		}
	}
	summary := dto.NewClassSummary(&cls, count, mine > 0)
	return &summary, nil
}
