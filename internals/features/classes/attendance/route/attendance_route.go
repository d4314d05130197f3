package route

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/attendance/controller"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

func AttendanceRoutes(classes fiber.Router, ctrl *controller.AttendanceController) {
	staff := authMiddleware.OnlyStaff("absensi")

	// sesi
	classes.Get("/:id/sessions", ctrl.ListSessions)
	classes.Post("/:id/sessions", staff, ctrl.OpenSession)
	classes.Get("/:id/sessions/active", ctrl.ActiveSession)
	classes.Put("/:id/sessions/:session_id", staff, ctrl.UpdateSession)
	classes.Post("/:id/sessions/:session_id/close", staff, ctrl.CloseSession)

	// absensi
	classes.Post("/:id/attendance", staff, ctrl.MarkBulk)
	classes.Get("/:id/attendance/history", ctrl.History)
	classes.Get("/:id/attendance/stats", ctrl.Stats)
	classes.Put("/:id/attendance/:attendance_id", staff, ctrl.UpdateAttendance)
	classes.Post("/:id/self-attendance", ctrl.MarkSelf)
	classes.Post("/:id/join", ctrl.Join)
}
