package route

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/courses/controller"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

// CourseRoutes expects api to be behind AuthJWT.
func CourseRoutes(api fiber.Router, ctrl *controller.CourseController) {
	g := api.Group("/courses")
	g.Get("/", ctrl.List)
	g.Get("/:id", ctrl.Get)
	g.Post("/", authMiddleware.OnlyStaff("course"), ctrl.Create)
}
