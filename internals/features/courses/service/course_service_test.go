package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereg_backend/internals/databases/dbtest"
	"coursereg_backend/internals/features/courses/dto"
	"coursereg_backend/internals/features/courses/model"
	helper "coursereg_backend/internals/helpers"
)

func TestCourseCreateListGet(t *testing.T) {
	svc := NewCourseService(dbtest.Open(t, &model.CourseModel{}), nil)
	ctx := context.Background()

	blank := "   "
	c, err := svc.Create(ctx, dto.CreateCourseRequest{CourseName: " Basis Data ", CourseDescription: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Basis Data", c.CourseName)
	assert.Nil(t, c.CourseDescription)

	_, err = svc.Create(ctx, dto.CreateCourseRequest{CourseName: "Algoritma"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateCourseRequest{})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	bad := "not a url"
	_, err = svc.Create(ctx, dto.CreateCourseRequest{CourseName: "X", CourseImage: &bad})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	page := helper.NewPaging(1, 10, 20, 100)
	all, total, err := svc.List(ctx, dto.ListCourseQuery{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Algoritma", all[0].CourseName)

	found, total, err := svc.List(ctx, dto.ListCourseQuery{Q: "DATA"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c.CourseID, found[0].CourseID)

	got, err := svc.Get(ctx, c.CourseID)
	require.NoError(t, err)
	assert.Equal(t, "Basis Data", got.CourseName)

	_, err = svc.Get(ctx, 999)
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}
