package route

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/users/auth/controller"
	rateLimiter "coursereg_backend/internals/middlewares"
)

// AuthRoutes mounts /api/auth. protect is the JWT middleware used for /me.
func AuthRoutes(app fiber.Router, ctrl *controller.AuthController, protect fiber.Handler) {
	baseAuth := app.Group("/api/auth")

	// 🔓 Public
	baseAuth.Post("/login", rateLimiter.LoginRateLimiter(), ctrl.Login)
	baseAuth.Post("/register", rateLimiter.RegisterRateLimiter(), ctrl.Register)

	// 🔒 Protected
	baseAuth.Get("/me", protect, ctrl.Me)
}
