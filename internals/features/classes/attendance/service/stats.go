package service

import (
	"context"
	"math"

	"coursereg_backend/internals/features/classes/attendance/dto"
	"coursereg_backend/internals/features/classes/attendance/model"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type statusCount struct {
	Status model.Status
	Total  int64
}

// Stats aggregates rows by status over an optional date range.
// rate = (present + late) / total * 100, rounded to two decimals.
func (s *AttendanceService) Stats(ctx context.Context, classID uint, actor helperAuth.Identity, q dto.StatsQuery) (*dto.Stats, error) {
	if err := s.RequireMember(ctx, classID, actor); err != nil {
		return nil, err
	}
	from, to, err := dateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx).Model(&model.AttendanceModel{}).
		Select("attendance_status AS status, COUNT(*) AS total").
		Where("attendance_class_id = ?", classID)
	db = applyRange(db, from, to)

	var rows []statusCount
	if err := db.Group("attendance_status").Scan(&rows).Error; err != nil {
		return nil, helper.Internal(err, "gagal menghitung statistik")
	}
	return buildStats(rows), nil
}

func buildStats(rows []statusCount) *dto.Stats {
	out := &dto.Stats{}
	for _, r := range rows {
		out.TotalStudents += r.Total
		switch r.Status {
		case model.StatusPresent:
			out.Present += r.Total
		case model.StatusAbsent:
			out.Absent += r.Total
		case model.StatusLate:
			out.Late += r.Total
		case model.StatusExcused:
			out.Excused += r.Total
		}
	}
	if out.TotalStudents > 0 {
		rate := float64(out.Present+out.Late) / float64(out.TotalStudents) * 100
		out.AttendanceRate = math.Round(rate*100) / 100
	}
	return out
}
