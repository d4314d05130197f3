package controller

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/classes/dto"
	"coursereg_backend/internals/features/classes/classes/service"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type ClassController struct {
	Svc *service.ClassService
}

func NewClassController(svc *service.ClassService) *ClassController {
	return &ClassController{Svc: svc}
}

// identityAndID resolves the caller and the :id path param in one go.
func identityAndID(c *fiber.Ctx) (helperAuth.Identity, uint, error) {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return ident, 0, err
	}
	id, err := helperAuth.ParseUintParam(c, "id")
	return ident, id, err
}

/* =========================================================
   READ
   ========================================================= */

// GET /api/classes?course_id=
func (cc *ClassController) List(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var q dto.ListClassQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "course_id tidak valid")
	}
	rows, err := cc.Svc.List(c.UserContext(), ident.UserID, q)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /api/classes/:id
func (cc *ClassController) Get(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := cc.Svc.Get(c.UserContext(), id, ident.UserID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/classes/:id/history
func (cc *ClassController) History(c *fiber.Ctx) error {
	id, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 200)
	rows, total, err := cc.Svc.History(c.UserContext(), id, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

/* =========================================================
   WRITE
   ========================================================= */

// POST /api/classes
func (cc *ClassController) Create(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.CreateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	cls, err := cc.Svc.Create(c.UserContext(), req, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Kelas berhasil dibuat", dto.NewClassSummary(cls, 0, false))
}

// PUT /api/classes/:id (partial)
func (cc *ClassController) Update(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var patch dto.PatchClassRequest
	if err := c.BodyParser(&patch); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	out, err := cc.Svc.Update(c.UserContext(), id, patch, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Kelas berhasil diperbarui", out)
}

// DELETE /api/classes/:id
func (cc *ClassController) Delete(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	ack, err := cc.Svc.Delete(c.UserContext(), id, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonDeleted(c, "Kelas berhasil dihapus", ack)
}

// PUT /api/classes/:id/course
func (cc *ClassController) AssignCourse(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.AssignCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.JsonFromError(c, err)
	}
	cls, err := cc.Svc.AssignCourse(c.UserContext(), id, req.CourseID, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Course berhasil dihubungkan", cls)
}

// DELETE /api/classes/:id/course
func (cc *ClassController) RemoveCourse(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	cls, err := cc.Svc.RemoveCourse(c.UserContext(), id, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Course dilepas dari kelas", cls)
}

/* =========================================================
   FEEDBACK
   ========================================================= */

// POST /api/classes/:id/feedback
func (cc *ClassController) SubmitFeedback(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fb, err := cc.Svc.SubmitFeedback(c.UserContext(), id, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Feedback terkirim", fb)
}

// GET /api/classes/:id/feedback
func (cc *ClassController) ListFeedback(c *fiber.Ctx) error {
	ident, id, err := identityAndID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rows, err := cc.Svc.ListFeedback(c.UserContext(), id, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}
