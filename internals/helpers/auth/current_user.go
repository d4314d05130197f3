package helper

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/constants"
	helper "coursereg_backend/internals/helpers"
)

// Nama locals yang di-set middleware AuthJWT
const (
	LocUserID    = "user_id"
	LocUserRoles = "user_roles"
	LocRawToken  = "raw_token"
)

// Identity is the caller resolved from the bearer token.
type Identity struct {
	UserID uint
	Roles  []constants.Role
}

func (i Identity) Has(r constants.Role) bool {
	for _, x := range i.Roles {
		if x == r {
			return true
		}
	}
	return false
}

func (i Identity) IsStaff() bool   { return constants.IsStaff(i.Roles) }
func (i Identity) IsAdmin() bool   { return i.Has(constants.RoleAdmin) }
func (i Identity) IsStudent() bool { return i.Has(constants.RoleStudent) }

// Require is the authorization gate: nil when have intersects required.
func Require(required constants.RoleSet, have []constants.Role, feature string) error {
	if required.Intersects(have) {
		return nil
	}
	msg := "forbidden"
	switch {
	case required.Has(constants.RoleTeacher) || required.Has(constants.RoleAdmin):
		if !required.Has(constants.RoleStudent) {
			msg = constants.RoleErrorStaff(feature)
		}
	case required.Has(constants.RoleStudent):
		msg = constants.RoleErrorStudent(feature)
	}
	return helper.Forbidden("%s", msg)
}

// GetIdentity reads the identity hydrated by the JWT middleware.
func GetIdentity(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(LocUserID).(uint)
	if !ok || id == 0 {
		return Identity{}, helper.Unauthorized("User belum login")
	}
	roles, _ := c.Locals(LocUserRoles).([]constants.Role)
	return Identity{UserID: id, Roles: roles}, nil
}

// SetIdentity is used by the middleware and by handler tests.
func SetIdentity(c *fiber.Ctx, ident Identity) {
	c.Locals(LocUserID, ident.UserID)
	c.Locals(LocUserRoles, ident.Roles)
}

// ParseRoles keeps only the known role names, lower-cased and de-duplicated.
func ParseRoles(raw []string) []constants.Role {
	out := make([]constants.Role, 0, len(raw))
	seen := map[constants.Role]bool{}
	for _, s := range raw {
		if r, ok := constants.ParseRole(s); ok && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// ParseUintParam reads a positive numeric path parameter.
func ParseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, helper.Validation("%s tidak valid", name)
	}
	return uint(v), nil
}
