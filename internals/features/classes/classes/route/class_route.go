package route

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/classes/controller"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

// ClassRoutes mounts the class lifecycle endpoints on the /api/classes group.
func ClassRoutes(classes fiber.Router, ctrl *controller.ClassController) {
	staff := authMiddleware.OnlyStaff("kelas")

	classes.Get("/", ctrl.List)
	classes.Post("/", staff, ctrl.Create)
	classes.Get("/:id", ctrl.Get)
	classes.Put("/:id", staff, ctrl.Update)
	classes.Delete("/:id", staff, ctrl.Delete)

	classes.Put("/:id/course", staff, ctrl.AssignCourse)
	classes.Delete("/:id/course", staff, ctrl.RemoveCourse)
	classes.Get("/:id/history", staff, ctrl.History)

	classes.Post("/:id/feedback", ctrl.SubmitFeedback)
	classes.Get("/:id/feedback", ctrl.ListFeedback)
}
