package ws

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/constants"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

// Routes mounts the socket channels. auth must accept ?token= since browsers
// cannot set headers on the handshake.
func Routes(app fiber.Router, h *Handler, auth fiber.Handler) {
	g := app.Group("/ws", RequireUpgrade, auth)

	g.Get("/class/:class_id", KeyFromParam("class_id"), h.ClassCount())
	g.Get("/notify/class/:class_id", KeyFromParam("class_id"), h.ClassNotices())
	g.Get("/attendance/:class_id", KeyFromParam("class_id"), h.Attendance())

	g.Get("/admin/notifications",
		authMiddleware.RequireRoles("notifikasi admin", constants.RoleAdmin),
		h.Staff(constants.RoleAdmin))
	g.Get("/teacher/notifications",
		authMiddleware.RequireRoles("notifikasi guru", constants.RoleTeacher),
		h.Staff(constants.RoleTeacher))

	g.Get("/user/:user_id/notifications", KeyFromParam("user_id"), SelfOrAdmin, h.User())
}
