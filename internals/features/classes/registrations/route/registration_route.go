package route

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/registrations/controller"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

func RegistrationRoutes(classes fiber.Router, ctrl *controller.RegistrationController) {
	student := authMiddleware.OnlyStudent("registrasi kelas")

	classes.Post("/:id/register", student, ctrl.Register)
	classes.Delete("/:id/register", student, ctrl.Unregister)
	classes.Get("/:id/count", ctrl.Count)
	classes.Get("/:id/students", ctrl.Students)
}
