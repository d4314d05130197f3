package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	helperAuth "coursereg_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret string
	// Websocket clients cannot set headers from the browser, so ?token= is
	// accepted when this is on.
	AllowQueryToken bool
	// ActiveCheck, when set, rejects tokens of deleted or deactivated users.
	ActiveCheck func(ctx context.Context, userID uint) (bool, error)
}

// ExtractToken reads "Authorization: Bearer xxx", falling back to ?token=.
func ExtractToken(c *fiber.Ctx, allowQuery bool) string {
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	fields := strings.Fields(authz)
	if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
		return strings.Trim(fields[1], "\"'")
	}
	if allowQuery {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		raw := ExtractToken(c, o.AllowQueryToken)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - No token provided")
		}

		ident, err := helperAuth.ParseToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid token")
		}

		if o.ActiveCheck != nil {
			ok, err := o.ActiveCheck(c.UserContext(), ident.UserID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
			}
			if !ok {
				return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
			}
		}

		helperAuth.SetIdentity(c, ident)
		c.Locals(helperAuth.LocRawToken, raw)
		return c.Next()
	}
}
