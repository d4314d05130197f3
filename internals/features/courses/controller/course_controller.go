package controller

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/courses/dto"
	"coursereg_backend/internals/features/courses/service"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type CourseController struct {
	Svc *service.CourseService
}

func NewCourseController(svc *service.CourseService) *CourseController {
	return &CourseController{Svc: svc}
}

// GET /api/courses?q=&page=&per_page=
func (cc *CourseController) List(c *fiber.Ctx) error {
	var q dto.ListCourseQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := cc.Svc.List(c.UserContext(), q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// GET /api/courses/:id
func (cc *CourseController) Get(c *fiber.Ctx) error {
	id, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	m, err := cc.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/courses
func (cc *CourseController) Create(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	m, err := cc.Svc.Create(c.UserContext(), req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Course berhasil dibuat", m)
}
