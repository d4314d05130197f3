package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/features/courses/dto"
	"coursereg_backend/internals/features/courses/model"
	helper "coursereg_backend/internals/helpers"
)

type CourseService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewCourseService(db *gorm.DB, log *zap.Logger) *CourseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CourseService{DB: db, Log: log.Named("course")}
}

func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*model.CourseModel, error) {
	req.Normalize()
	if err := helper.ValidateStruct(&req); err != nil {
		return nil, err
	}
	m := model.CourseModel{
		CourseName:        req.CourseName,
		CourseDescription: req.CourseDescription,
		CourseImage:       req.CourseImage,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, helper.Internal(err, "gagal menyimpan course")
	}
	s.Log.Info("course created", zap.Uint("course_id", m.CourseID))
	return &m, nil
}

// List filters by a case-insensitive name fragment when q is set.
func (s *CourseService) List(ctx context.Context, q dto.ListCourseQuery, p helper.Paging) ([]model.CourseModel, int64, error) {
	db := s.DB.WithContext(ctx).Model(&model.CourseModel{})
	if term := strings.TrimSpace(q.Q); term != "" {
		db = db.Where("LOWER(course_name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal menghitung course")
	}
	out := make([]model.CourseModel, 0)
	if err := db.Order("course_name ASC, course_id ASC").Offset(p.Offset).Limit(p.Limit).Find(&out).Error; err != nil {
		return nil, 0, helper.Internal(err, "gagal mengambil course")
	}
	return out, total, nil
}

func (s *CourseService) Get(ctx context.Context, id uint) (*model.CourseModel, error) {
	var m model.CourseModel
	err := s.DB.WithContext(ctx).First(&m, "course_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("course %d not found", id)
	}
	if err != nil {
		return nil, helper.Internal(err, "gagal mengambil course")
	}
	return &m, nil
}
