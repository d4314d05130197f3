package auth

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/constants"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

// RequireRoles lets the request through when the caller holds any of roles.
// feature only shapes the forbidden message.
func RequireRoles(feature string, roles ...constants.Role) fiber.Handler {
	required := constants.NewRoleSet(roles...)
	return func(c *fiber.Ctx) error {
		ident, err := helperAuth.GetIdentity(c)
		if err != nil {
			return helper.JsonFromError(c, err)
		}
		if err := helperAuth.Require(required, ident.Roles, feature); err != nil {
			return helper.JsonFromError(c, err)
		}
		return c.Next()
	}
}

func OnlyStaff(feature string) fiber.Handler {
	return RequireRoles(feature, constants.RoleTeacher, constants.RoleAdmin)
}

func OnlyStudent(feature string) fiber.Handler {
	return RequireRoles(feature, constants.RoleStudent)
}
