package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursereg_backend/internals/features/classes/classes/model"
	helper "coursereg_backend/internals/helpers"
)

// RecordHistory appends one audit row inside the caller's transaction.
func RecordHistory(tx *gorm.DB, classID uint, changedBy *uint, ct model.ChangeType, note string) error {
	row := model.ClassHistoryModel{
		ClassHistoryClassID:    classID,
		ClassHistoryChangedBy:  changedBy,
		ClassHistoryChangeType: ct,
		ClassHistoryChangeTime: time.Now().UTC(),
	}
	if note != "" {
		row.ClassHistoryNote = &note
	}
	return tx.Create(&row).Error
}

// History lists a class's audit trail, oldest first.
func (s *ClassService) History(ctx context.Context, classID uint, p helper.Paging) ([]model.ClassHistoryModel, int64, error) {
	db := s.DB.WithContext(ctx)
	if err := ensureClassExists(db, classID); err != nil {
		return nil, 0, err
	}

	q := db.Model(&model.ClassHistoryModel{}).Where("class_history_class_id = ?", classID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal menghitung riwayat kelas")
	}
	rows := make([]model.ClassHistoryModel, 0)
	if err := q.Order("class_history_change_time ASC, class_history_id ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal mengambil riwayat kelas")
	}
	return rows, total, nil
}
