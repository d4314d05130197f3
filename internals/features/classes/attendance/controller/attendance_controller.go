package controller

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/attendance/dto"
	"coursereg_backend/internals/features/classes/attendance/service"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type AttendanceController struct {
	Svc *service.AttendanceService
}

func NewAttendanceController(svc *service.AttendanceService) *AttendanceController {
	return &AttendanceController{Svc: svc}
}

func identityAndClass(c *fiber.Ctx) (helperAuth.Identity, uint, error) {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return ident, 0, err
	}
	id, err := helperAuth.ParseUintParam(c, "id")
	return ident, id, err
}

/* =========================================================
   SESSIONS
   ========================================================= */

// GET /api/classes/:id/sessions
func (ac *AttendanceController) ListSessions(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ac.Svc.ListSessions(c.UserContext(), classID, ident, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// POST /api/classes/:id/sessions
func (ac *AttendanceController) OpenSession(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.OpenSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	sess, err := ac.Svc.OpenSession(c.UserContext(), classID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Sesi dimulai", sess)
}

// GET /api/classes/:id/sessions/active
func (ac *AttendanceController) ActiveSession(c *fiber.Ctx) error {
	classID, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	sess, err := ac.Svc.ActiveSession(c.UserContext(), classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if sess == nil {
		return helper.JsonOK(c, "Tidak ada sesi aktif", nil)
	}
	return helper.JsonOK(c, "ok", sess)
}

// PUT /api/classes/:id/sessions/:session_id
func (ac *AttendanceController) UpdateSession(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	sessionID, err := helperAuth.ParseUintParam(c, "session_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess, err := ac.Svc.UpdateSession(c.UserContext(), classID, sessionID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Sesi diperbarui", sess)
}

// POST /api/classes/:id/sessions/:session_id/close
func (ac *AttendanceController) CloseSession(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	sessionID, err := helperAuth.ParseUintParam(c, "session_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	sess, err := ac.Svc.CloseSession(c.UserContext(), classID, sessionID, ident)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Sesi ditutup", sess)
}

/* =========================================================
   MARKING
   ========================================================= */

// POST /api/classes/:id/attendance
func (ac *AttendanceController) MarkBulk(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	rows, err := ac.Svc.MarkBulk(c.UserContext(), classID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Absensi tersimpan", rows)
}

// PUT /api/classes/:id/attendance/:attendance_id
func (ac *AttendanceController) UpdateAttendance(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	attID, err := helperAuth.ParseUintParam(c, "attendance_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.UpdateAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	row, err := ac.Svc.UpdateAttendance(c.UserContext(), classID, attID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Absensi diperbarui", row)
}

// POST /api/classes/:id/self-attendance
func (ac *AttendanceController) MarkSelf(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	row, err := ac.Svc.MarkSelf(c.UserContext(), classID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Absensi mandiri tersimpan", row)
}

// POST /api/classes/:id/join
func (ac *AttendanceController) Join(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.JoinClassRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	row, err := ac.Svc.JoinClass(c.UserContext(), classID, ident, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Berhasil bergabung", row)
}

/* =========================================================
   REPORTS
   ========================================================= */

// GET /api/classes/:id/attendance/history?start_date=&end_date=&student_id=&status=
func (ac *AttendanceController) History(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := ac.Svc.History(c.UserContext(), classID, ident, q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// GET /api/classes/:id/attendance/stats?start_date=&end_date=
func (ac *AttendanceController) Stats(c *fiber.Ctx) error {
	ident, classID, err := identityAndClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var q dto.StatsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	st, err := ac.Svc.Stats(c.UserContext(), classID, ident, q)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}
