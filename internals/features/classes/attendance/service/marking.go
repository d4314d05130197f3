package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/features/classes/attendance/dto"
	"coursereg_backend/internals/features/classes/attendance/model"
	"coursereg_backend/internals/features/realtime/hub"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
	"coursereg_backend/internals/helpers/dbtime"
)

func attendanceData(a model.AttendanceModel) map[string]any {
	return map[string]any{
		"class_id":      a.AttendanceClassID,
		"attendance_id": a.AttendanceID,
		"student_id":    a.AttendanceStudentID,
		"date":          a.AttendanceDate.Format(dbtime.DateLayout),
		"status":        a.AttendanceStatus,
		"join_time":     a.AttendanceJoinTime,
	}
}

/* =========================================================
   BULK (staff)
   ========================================================= */

// MarkBulk replaces the whole day's sheet for the class: every row on that
// date is deleted and one row per entry is inserted.
func (s *AttendanceService) MarkBulk(ctx context.Context, classID uint, actor helperAuth.Identity, req dto.MarkAttendanceRequest) ([]model.AttendanceModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, classID, actor, "mark attendance"); err != nil {
		return nil, err
	}
	day, err := resolveDay(req.Date)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(req.Entries))
	for _, e := range req.Entries {
		if _, dup := seen[e.StudentID]; dup {
			return nil, helper.Validation("student %d appears more than once", e.StudentID)
		}
		seen[e.StudentID] = struct{}{}
	}

	rows := make([]model.AttendanceModel, 0, len(req.Entries))
	for _, e := range req.Entries {
		rows = append(rows, entryToRow(classID, day, actor.UserID, e))
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attendance_class_id = ? AND attendance_date = ?", classID, day).
			Delete(&model.AttendanceModel{}).Error; err != nil {
			return helper.Internal(err, "gagal menghapus absensi lama")
		}
		if err := tx.Create(&rows).Error; err != nil {
			return helper.Internal(err, "gagal menyimpan absensi")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("attendance marked",
		zap.Uint("class_id", classID), zap.String("date", day.Format(dbtime.DateLayout)), zap.Int("rows", len(rows)))
	for _, r := range rows {
		s.emit(classID, hub.NewNotification(hub.TypeAttendanceUpdate,
			fmt.Sprintf("Absensi siswa %d: %s", r.AttendanceStudentID, r.AttendanceStatus), attendanceData(r)))
	}
	return rows, nil
}

/* =========================================================
   SELF
   ========================================================= */

// MarkSelf lets a member record their own status for the day.
func (s *AttendanceService) MarkSelf(ctx context.Context, classID uint, actor helperAuth.Identity, req dto.MarkAttendanceRequest) (*model.AttendanceModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if len(req.Entries) != 1 {
		return nil, helper.Validation("self attendance takes exactly one entry")
	}
	e := req.Entries[0]
	if e.StudentID != actor.UserID {
		return nil, helper.Validation("self attendance must be for your own student id")
	}
	if err := s.RequireMember(ctx, classID, actor); err != nil {
		return nil, err
	}
	day, err := resolveDay(req.Date)
	if err != nil {
		return nil, err
	}

	row := entryToRow(classID, day, actor.UserID, e)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attendance_class_id = ? AND attendance_student_id = ? AND attendance_date = ?",
			classID, actor.UserID, day).Delete(&model.AttendanceModel{}).Error; err != nil {
			return helper.Internal(err, "gagal menghapus absensi lama")
		}
		if err := tx.Create(&row).Error; err != nil {
			return helper.Internal(err, "gagal menyimpan absensi")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(classID, hub.NewNotification(hub.TypeSelfAttendanceMarked,
		fmt.Sprintf("Siswa %d mengisi absensi: %s", actor.UserID, row.AttendanceStatus), attendanceData(row)))
	return &row, nil
}

/* =========================================================
   JOIN
   ========================================================= */

// JoinClass upserts today's row for the student. An absent row is promoted
// to present; any other status is kept.
func (s *AttendanceService) JoinClass(ctx context.Context, classID uint, actor helperAuth.Identity, req dto.JoinClassRequest) (*model.AttendanceModel, error) {
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if _, err := s.className(ctx, classID); err != nil {
		return nil, err
	}

	studentID := actor.UserID
	if req.StudentID != nil && *req.StudentID != 0 {
		studentID = *req.StudentID
	}
	if !actor.IsStaff() && studentID != actor.UserID {
		return nil, helper.Forbidden("students can only join for themselves")
	}
	ok, err := s.Ledger.IsRegistered(ctx, studentID, classID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, helper.Forbidden("student %d is not registered in class %d", studentID, classID)
	}

	joinAt := time.Now().UTC()
	if req.JoinTime != nil {
		joinAt = req.JoinTime.UTC()
	}
	day := dbtime.Today()

	var row model.AttendanceModel
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := helper.ForUpdate(tx).
			Where("attendance_class_id = ? AND attendance_student_id = ? AND attendance_date = ?", classID, studentID, day).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = model.AttendanceModel{
				AttendanceClassID:    classID,
				AttendanceStudentID:  studentID,
				AttendanceDate:       day,
				AttendanceStatus:     model.StatusPresent,
				AttendanceJoinTime:   &joinAt,
				AttendanceDeviceInfo: req.DeviceInfo,
			}
			if err := tx.Create(&row).Error; err != nil {
				return helper.Internal(err, "gagal menyimpan absensi")
			}
			return nil
		case err != nil:
			return helper.Internal(err, "gagal mengambil absensi")
		}

		row.AttendanceJoinTime = &joinAt
		row.AttendanceDeviceInfo = req.DeviceInfo
		if row.AttendanceStatus == model.StatusAbsent {
			row.AttendanceStatus = model.StatusPresent
		}
		if err := tx.Model(&model.AttendanceModel{}).
			Where("attendance_id = ?", row.AttendanceID).
			Updates(map[string]any{
				"attendance_join_time":   row.AttendanceJoinTime,
				"attendance_device_info": row.AttendanceDeviceInfo,
				"attendance_status":      row.AttendanceStatus,
				"attendance_updated_at":  time.Now().UTC(),
			}).Error; err != nil {
			return helper.Internal(err, "gagal memperbarui absensi")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(classID, hub.NewNotification(hub.TypeStudentJoined,
		fmt.Sprintf("Siswa %d bergabung ke kelas", studentID), attendanceData(row)))
	return &row, nil
}

/* =========================================================
   UPDATE / HISTORY
   ========================================================= */

func (s *AttendanceService) UpdateAttendance(ctx context.Context, classID, attendanceID uint, actor helperAuth.Identity, req dto.UpdateAttendanceRequest) (*model.AttendanceModel, error) {
	if err := s.requireStaff(ctx, classID, actor, "update attendance"); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if v, ok := req.Status.Get(); ok {
		if v == nil || !v.Valid() {
			return nil, helper.Validation("status must be one of present, absent, late, excused")
		}
		updates["attendance_status"] = *v
	}
	if v, ok := req.JoinTime.Get(); ok {
		updates["attendance_join_time"] = utcPtr(v)
	}
	if v, ok := req.LeaveTime.Get(); ok {
		updates["attendance_leave_time"] = utcPtr(v)
	}
	if v, ok := req.Notes.Get(); ok {
		updates["attendance_notes"] = v
	}
	if len(updates) == 0 {
		return nil, helper.Validation("no fields to update")
	}
	updates["attendance_marked_by"] = actor.UserID
	updates["attendance_updated_at"] = time.Now().UTC()

	var row model.AttendanceModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AttendanceModel{}).
			Where("attendance_id = ? AND attendance_class_id = ?", attendanceID, classID).
			Updates(updates)
		if res.Error != nil {
			return helper.Internal(res.Error, "gagal memperbarui absensi")
		}
		if res.RowsAffected == 0 {
			return helper.NotFound("attendance %d not found in class %d", attendanceID, classID)
		}
		if err := tx.First(&row, "attendance_id = ?", attendanceID).Error; err != nil {
			return helper.Internal(err, "gagal mengambil absensi")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(classID, hub.NewNotification(hub.TypeAttendanceUpdate,
		fmt.Sprintf("Absensi siswa %d: %s", row.AttendanceStudentID, row.AttendanceStatus), attendanceData(row)))
	return &row, nil
}

// dateRange parses optional start/end bounds into an inclusive day range.
func dateRange(start, end string) (*time.Time, *time.Time, error) {
	from, err := dbtime.ParseOptionalDate(start)
	if err != nil {
		return nil, nil, helper.Validation("start_date %q must be YYYY-MM-DD", start)
	}
	to, err := dbtime.ParseOptionalDate(end)
	if err != nil {
		return nil, nil, helper.Validation("end_date %q must be YYYY-MM-DD", end)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, helper.Validation("end_date must not be before start_date")
	}
	return from, to, nil
}

func applyRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("attendance_date >= ?", dbtime.DayStart(*from))
	}
	if to != nil {
		q = q.Where("attendance_date <= ?", dbtime.DayStart(*to))
	}
	return q
}

// History lists rows newest first. Non-staff members only see their own.
func (s *AttendanceService) History(ctx context.Context, classID uint, actor helperAuth.Identity, q dto.HistoryQuery, p helper.Paging) ([]model.AttendanceModel, int64, error) {
	if err := s.RequireMember(ctx, classID, actor); err != nil {
		return nil, 0, err
	}
	from, to, err := dateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, 0, err
	}

	db := s.DB.WithContext(ctx).Model(&model.AttendanceModel{}).Where("attendance_class_id = ?", classID)
	db = applyRange(db, from, to)
	switch {
	case !actor.IsStaff():
		db = db.Where("attendance_student_id = ?", actor.UserID)
	case q.StudentID != nil:
		db = db.Where("attendance_student_id = ?", *q.StudentID)
	}
	if q.Status != "" {
		st := model.Status(q.Status)
		if !st.Valid() {
			return nil, 0, helper.Validation("status must be one of present, absent, late, excused")
		}
		db = db.Where("attendance_status = ?", st)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal menghitung absensi")
	}
	out := make([]model.AttendanceModel, 0)
	if err := db.Order("attendance_date DESC, attendance_id DESC").
		Offset(p.Offset).Limit(p.Limit).Find(&out).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal mengambil absensi")
	}
	return out, total, nil
}
