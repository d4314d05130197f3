package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/configs"
	classModel "coursereg_backend/internals/features/classes/classes/model"
	classService "coursereg_backend/internals/features/classes/classes/service"
	"coursereg_backend/internals/features/classes/registrations/model"
	"coursereg_backend/internals/features/classes/schedule"
	"coursereg_backend/internals/features/realtime/hub"
	helper "coursereg_backend/internals/helpers"
)

type RegistrationResult struct {
	Registration model.RegistrationModel `json:"registration"`
	ClassName    string                  `json:"class_name"`
	CurrentCount int64                   `json:"current_count"`
}

type UnregistrationResult struct {
	ClassID      uint   `json:"class_id"`
	ClassName    string `json:"class_name"`
	CurrentCount int64  `json:"current_count"`
}

type StudentInfo struct {
	UserID           uint      `json:"user_id"`
	UserName         string    `json:"user_name"`
	UserEmail        string    `json:"user_email"`
	RegistrationDate time.Time `json:"registration_date"`
}

// LedgerService owns the registrations table: one row per (student, class),
// capacity and per-student schedule conflicts.
type LedgerService struct {
	DB             *gorm.DB
	Notifier       hub.Notifier
	ConflictPolicy string
	Log            *zap.Logger
}

func NewLedgerService(db *gorm.DB, notifier hub.Notifier, policy string, log *zap.Logger) *LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerService{
		DB:             db,
		Notifier:       notifier,
		ConflictPolicy: configs.NormalizeConflictPolicy(policy),
		Log:            log.Named("ledger"),
	}
}

func lockClass(tx *gorm.DB, classID uint) (*classModel.ClassModel, error) {
	var cls classModel.ClassModel
	if err := helper.ForUpdate(tx).First(&cls, "class_id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NotFound("class %d not found", classID)
		}
		return nil, helper.Internal(err, "gagal mengambil kelas")
	}
	return &cls, nil
}

func countIn(tx *gorm.DB, classID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.RegistrationModel{}).Where("registration_class_id = ?", classID).Count(&n).Error
	return n, err
}

// checkStudentConflict applies the configured policy against the classes the
// student already holds.
func (s *LedgerService) checkStudentConflict(tx *gorm.DB, studentID uint, target *classModel.ClassModel) error {
	if s.ConflictPolicy == configs.ConflictPolicyOff {
		return nil
	}
	var ids []uint
	if err := tx.Model(&model.RegistrationModel{}).
		Where("registration_student_id = ?", studentID).
		Pluck("registration_class_id", &ids).Error; err != nil {
		return helper.Internal(err, "gagal mengambil registrasi")
	}
	if len(ids) == 0 {
		return nil
	}
	var held []classModel.ClassModel
	if err := tx.Where("class_id IN ?", ids).Order("class_id ASC").Find(&held).Error; err != nil {
		return helper.Internal(err, "gagal mengambil kelas")
	}

	want := target.Schedule()
	for i := range held {
		other := held[i].Schedule()
		switch s.ConflictPolicy {
		case configs.ConflictPolicyLegacy:
			if schedule.LegacyEqual(want.String(), other.String()) {
				return helper.Conflict("schedule conflicts with registered class %q", held[i].ClassName)
			}
		default:
			if mine, theirs, ok := schedule.FirstConflict(want, other); ok {
				return helper.Conflict("schedule conflicts with registered class %q (%s overlaps %s)",
					held[i].ClassName, mine, theirs)
			}
		}
	}
	return nil
}

func (s *LedgerService) Register(ctx context.Context, studentID, classID uint) (*RegistrationResult, error) {
	var (
		res     RegistrationResult
		creator *uint
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}
		creator = cls.ClassCreatedBy

		var existing int64
		if err := tx.Model(&model.RegistrationModel{}).
			Where("registration_class_id = ? AND registration_student_id = ?", classID, studentID).
			Count(&existing).Error; err != nil {
			return helper.Internal(err, "gagal mengecek registrasi")
		}
		if existing > 0 {
			return helper.Conflict("already registered for class %q", cls.ClassName)
		}

		if err := s.checkStudentConflict(tx, studentID, cls); err != nil {
			return err
		}

		count, err := countIn(tx, classID)
		if err != nil {
			return helper.Internal(err, "gagal menghitung pendaftar")
		}
		if count >= int64(cls.ClassMaxStudents) {
			return helper.Conflict("class %q is full (%d/%d)", cls.ClassName, count, cls.ClassMaxStudents)
		}

		reg := model.RegistrationModel{
			RegistrationClassID:   classID,
			RegistrationStudentID: studentID,
			RegistrationDate:      time.Now().UTC(),
		}
		if err := tx.Create(&reg).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflict("already registered for class %q", cls.ClassName)
			}
			return helper.Internal(err, "gagal menyimpan registrasi")
		}

		by := studentID
		note := fmt.Sprintf("student %d registered", studentID)
		if err := classService.RecordHistory(tx, classID, &by, classModel.ChangeRegister, note); err != nil {
			return helper.Internal(err, "gagal mencatat riwayat")
		}

		res = RegistrationResult{Registration: reg, ClassName: cls.ClassName, CurrentCount: count + 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("student registered",
		zap.Uint("student_id", studentID), zap.Uint("class_id", classID), zap.Int64("count", res.CurrentCount))
	s.notifyRegistered(res, studentID, creator)
	return &res, nil
}

func (s *LedgerService) notifyRegistered(res RegistrationResult, studentID uint, creator *uint) {
	if s.Notifier == nil {
		return
	}
	classID := res.Registration.RegistrationClassID
	data := map[string]any{
		"class_id":      classID,
		"class_name":    res.ClassName,
		"student_id":    studentID,
		"current_count": res.CurrentCount,
	}
	msg := fmt.Sprintf("Siswa %d mendaftar ke kelas %s", studentID, res.ClassName)
	if creator != nil {
		s.Notifier.ToUser(*creator, hub.NewNotification(hub.TypeNewRegistration, msg, data))
	}
	s.Notifier.ToStaff(hub.NewNotification(hub.TypeNewRegistration, msg, data))
	s.Notifier.ToClass(classID, hub.NewNotification(hub.TypeClassCount, "", map[string]any{
		"class_id":      classID,
		"current_count": res.CurrentCount,
	}))
}

func (s *LedgerService) Unregister(ctx context.Context, studentID, classID uint) (*UnregistrationResult, error) {
	var res UnregistrationResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cls, err := lockClass(tx, classID)
		if err != nil {
			return err
		}

		del := tx.Where("registration_class_id = ? AND registration_student_id = ?", classID, studentID).
			Delete(&model.RegistrationModel{})
		if del.Error != nil {
			return helper.Internal(del.Error, "gagal menghapus registrasi")
		}
		if del.RowsAffected == 0 {
			return helper.NotFound("not registered for class %q", cls.ClassName)
		}

		by := studentID
		note := fmt.Sprintf("student %d unregistered", studentID)
		if err := classService.RecordHistory(tx, classID, &by, classModel.ChangeUnregister, note); err != nil {
			return helper.Internal(err, "gagal mencatat riwayat")
		}

		count, err := countIn(tx, classID)
		if err != nil {
			return helper.Internal(err, "gagal menghitung pendaftar")
		}
		res = UnregistrationResult{ClassID: classID, ClassName: cls.ClassName, CurrentCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("student unregistered",
		zap.Uint("student_id", studentID), zap.Uint("class_id", classID), zap.Int64("count", res.CurrentCount))
	if s.Notifier != nil {
		data := map[string]any{
			"class_id":      classID,
			"class_name":    res.ClassName,
			"student_id":    studentID,
			"current_count": res.CurrentCount,
		}
		s.Notifier.ToStaff(hub.NewNotification(hub.TypeUnregistration,
			fmt.Sprintf("Siswa %d keluar dari kelas %s", studentID, res.ClassName), data))
		s.Notifier.ToClass(classID, hub.NewNotification(hub.TypeClassCount, "", map[string]any{
			"class_id":      classID,
			"current_count": res.CurrentCount,
		}))
	}
	return &res, nil
}

// Count is read-only. A missing class is NotFound.
func (s *LedgerService) Count(ctx context.Context, classID uint) (int64, error) {
	db := s.DB.WithContext(ctx)
	var exists int64
	if err := db.Model(&classModel.ClassModel{}).Where("class_id = ?", classID).Count(&exists).Error; err != nil {
		return 0, helper.Internal(err, "gagal mengecek kelas")
	}
	if exists == 0 {
		return 0, helper.NotFound("class %d not found", classID)
	}
	n, err := countIn(db, classID)
	if err != nil {
		return 0, helper.Internal(err, "gagal menghitung pendaftar")
	}
	return n, nil
}

func (s *LedgerService) IsRegistered(ctx context.Context, studentID, classID uint) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&model.RegistrationModel{}).
		Where("registration_class_id = ? AND registration_student_id = ?", classID, studentID).
		Count(&n).Error
	if err != nil {
		return false, helper.Internal(err, "gagal mengecek registrasi")
	}
	return n > 0, nil
}

// Students lists the registered students of a class, earliest first.
func (s *LedgerService) Students(ctx context.Context, classID uint) ([]StudentInfo, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.Count(ctx, classID); err != nil {
		return nil, err
	}
	out := make([]StudentInfo, 0)
	err := db.Table("registrations AS r").
		Select("u.user_id, u.user_name, u.user_email, r.registration_date").
		Joins("JOIN users AS u ON u.user_id = r.registration_student_id").
		Where("r.registration_class_id = ?", classID).
		Order("r.registration_date ASC, r.registration_id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil daftar siswa")
	}
	return out, nil
}
