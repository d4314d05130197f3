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
)

func sessionData(s model.ClassSessionModel) map[string]any {
	return map[string]any{
		"class_id":        s.ClassSessionClassID,
		"session_id":      s.ClassSessionID,
		"session_date":    s.ClassSessionDate.Format("2006-01-02"),
		"lesson_topic":    s.ClassSessionLessonTopic,
		"virtual_room_id": s.ClassSessionVirtualRoomID,
		"is_active":       s.ClassSessionIsActive,
	}
}

// OpenSession deactivates every session of the class and inserts a new active one.
func (s *AttendanceService) OpenSession(ctx context.Context, classID uint, actor helperAuth.Identity, req dto.OpenSessionRequest) (*model.ClassSessionModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, classID, actor, "start a session"); err != nil {
		return nil, err
	}
	day, err := resolveDay(req.SessionDate)
	if err != nil {
		return nil, err
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return nil, helper.Validation("end_time must be after start_time")
	}

	sess := model.ClassSessionModel{
		ClassSessionClassID:       classID,
		ClassSessionDate:          day,
		ClassSessionStartTime:     utcPtr(req.StartTime),
		ClassSessionEndTime:       utcPtr(req.EndTime),
		ClassSessionLessonTopic:   req.LessonTopic,
		ClassSessionDescription:   req.Description,
		ClassSessionVirtualRoomID: req.VirtualRoomID,
		ClassSessionIsActive:      true,
	}
	if sess.ClassSessionStartTime == nil {
		now := time.Now().UTC()
		sess.ClassSessionStartTime = &now
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ClassSessionModel{}).
			Where("class_session_class_id = ? AND class_session_is_active = ?", classID, true).
			Update("class_session_is_active", false).Error; err != nil {
			return helper.Internal(err, "gagal menonaktifkan sesi lama")
		}
		if err := tx.Create(&sess).Error; err != nil {
			return helper.Internal(err, "gagal membuat sesi")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("session started", zap.Uint("class_id", classID), zap.Uint("session_id", sess.ClassSessionID))
	s.emit(classID, hub.NewNotification(hub.TypeSessionStarted,
		fmt.Sprintf("Sesi kelas %d dimulai", classID), sessionData(sess)))
	return &sess, nil
}

func (s *AttendanceService) findSession(db *gorm.DB, classID, sessionID uint) (*model.ClassSessionModel, error) {
	var sess model.ClassSessionModel
	err := db.Where("class_session_id = ? AND class_session_class_id = ?", sessionID, classID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("session %d not found in class %d", sessionID, classID)
	}
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil sesi")
	}
	return &sess, nil
}

// UpdateSession applies a partial patch. Activating a session deactivates the
// others in the same transaction.
func (s *AttendanceService) UpdateSession(ctx context.Context, classID, sessionID uint, actor helperAuth.Identity, req dto.UpdateSessionRequest) (*model.ClassSessionModel, error) {
	if err := s.requireStaff(ctx, classID, actor, "update a session"); err != nil {
		return nil, err
	}

	var (
		out        model.ClassSessionModel
		wasActive  bool
		nowActive  bool
		activeSeen bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.findSession(helper.ForUpdate(tx), classID, sessionID)
		if err != nil {
			return err
		}
		wasActive = cur.ClassSessionIsActive

		updates := map[string]any{}
		if v, ok := req.StartTime.Get(); ok {
			updates["class_session_start_time"] = utcPtr(v)
		}
		if v, ok := req.EndTime.Get(); ok {
			updates["class_session_end_time"] = utcPtr(v)
		}
		if v, ok := req.LessonTopic.Get(); ok {
			updates["class_session_lesson_topic"] = v
		}
		if v, ok := req.Description.Get(); ok {
			updates["class_session_description"] = v
		}
		if v, ok := req.VirtualRoomID.Get(); ok {
			updates["class_session_virtual_room_id"] = v
		}
		if v, ok := req.IsActive.Get(); ok {
			if v == nil {
				return helper.Validation("is_active cannot be null")
			}
			activeSeen = true
			nowActive = *v
			updates["class_session_is_active"] = *v
			if *v {
				if err := tx.Model(&model.ClassSessionModel{}).
					Where("class_session_class_id = ? AND class_session_id <> ?", classID, sessionID).
					Update("class_session_is_active", false).Error; err != nil {
					return helper.Internal(err, "gagal menonaktifkan sesi lain")
				}
			}
		}
		if len(updates) == 0 {
			return helper.Validation("no fields to update")
		}
		updates["class_session_updated_at"] = time.Now().UTC()

		if err := tx.Model(&model.ClassSessionModel{}).
			Where("class_session_id = ?", sessionID).
			Updates(updates).Error; err != nil {
			return helper.Internal(err, "gagal memperbarui sesi")
		}
		fresh, err := s.findSession(tx, classID, sessionID)
		if err != nil {
			return err
		}
		if fresh.ClassSessionStartTime != nil && fresh.ClassSessionEndTime != nil &&
			!fresh.ClassSessionEndTime.After(*fresh.ClassSessionStartTime) {
			return helper.Validation("end_time must be after start_time")
		}
		out = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if activeSeen && wasActive != nowActive {
		typ, verb := hub.TypeSessionEnded, "berakhir"
		if nowActive {
			typ, verb = hub.TypeSessionStarted, "dimulai"
		}
		s.emit(classID, hub.NewNotification(typ, fmt.Sprintf("Sesi kelas %d %s", classID, verb), sessionData(out)))
	}
	return &out, nil
}

// CloseSession marks the session inactive. Closing an inactive one is a no-op.
func (s *AttendanceService) CloseSession(ctx context.Context, classID, sessionID uint, actor helperAuth.Identity) (*model.ClassSessionModel, error) {
	return s.UpdateSession(ctx, classID, sessionID, actor, dto.UpdateSessionRequest{IsActive: dto.Set(false)})
}

func (s *AttendanceService) ListSessions(ctx context.Context, classID uint, actor helperAuth.Identity, p helper.Paging) ([]model.ClassSessionModel, int64, error) {
	if err := s.RequireMember(ctx, classID, actor); err != nil {
		return nil, 0, err
	}
	q := s.DB.WithContext(ctx).Model(&model.ClassSessionModel{}).Where("class_session_class_id = ?", classID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal menghitung sesi")
	}
	out := make([]model.ClassSessionModel, 0)
	if err := q.Order("class_session_date DESC, class_session_id DESC").
		Offset(p.Offset).Limit(p.Limit).Find(&out).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal mengambil sesi")
	}
	return out, total, nil
}

// ActiveSession returns nil when the class has no active session.
func (s *AttendanceService) ActiveSession(ctx context.Context, classID uint) (*model.ClassSessionModel, error) {
	if _, err := s.className(ctx, classID); err != nil {
		return nil, err
	}
	var sess model.ClassSessionModel
	err := s.DB.WithContext(ctx).
		Where("class_session_class_id = ? AND class_session_is_active = ?", classID, true).
		Order("class_session_id DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil sesi aktif")
	}
	return &sess, nil
}

// AutoCloseExpired deactivates active sessions whose end time is before now
// and returns how many were closed.
func (s *AttendanceService) AutoCloseExpired(ctx context.Context, now time.Time) (int, error) {
	var expired []model.ClassSessionModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := helper.ForUpdate(tx).
			Where("class_session_is_active = ? AND class_session_end_time IS NOT NULL AND class_session_end_time < ?", true, now.UTC()).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(expired))
		for _, e := range expired {
			ids = append(ids, e.ClassSessionID)
		}
		return tx.Model(&model.ClassSessionModel{}).
			Where("class_session_id IN ?", ids).
			Updates(map[string]any{
				"class_session_is_active":  false,
				"class_session_updated_at": now.UTC(),
			}).Error
	})
	if err != nil {
		return 0, helper.Internal(err, "gagal menutup sesi kedaluwarsa")
	}

	for i := range expired {
		expired[i].ClassSessionIsActive = false
		sess := expired[i]
		s.emit(sess.ClassSessionClassID, hub.NewNotification(hub.TypeSessionEnded,
			fmt.Sprintf("Sesi kelas %d berakhir otomatis", sess.ClassSessionClassID), sessionData(sess)))
	}
	if len(expired) > 0 {
		s.Log.Info("sessions auto-closed", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}
