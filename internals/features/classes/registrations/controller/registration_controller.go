package controller

import (
	"github.com/gofiber/fiber/v2"

	"coursereg_backend/internals/features/classes/registrations/service"
	helper "coursereg_backend/internals/helpers"
	helperAuth "coursereg_backend/internals/helpers/auth"
)

type RegistrationController struct {
	Ledger *service.LedgerService
}

func NewRegistrationController(ledger *service.LedgerService) *RegistrationController {
	return &RegistrationController{Ledger: ledger}
}

// POST /api/classes/:id/register
func (rc *RegistrationController) Register(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	classID, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	res, err := rc.Ledger.Register(c.UserContext(), ident.UserID, classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Berhasil mendaftar ke kelas "+res.ClassName, res)
}

// DELETE /api/classes/:id/register
func (rc *RegistrationController) Unregister(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	classID, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	res, err := rc.Ledger.Unregister(c.UserContext(), ident.UserID, classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonDeleted(c, "Berhasil keluar dari kelas "+res.ClassName, res)
}

// GET /api/classes/:id/count
func (rc *RegistrationController) Count(c *fiber.Ctx) error {
	classID, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	n, err := rc.Ledger.Count(c.UserContext(), classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"class_id": classID, "current_count": n})
}

// GET /api/classes/:id/students (registered or staff)
func (rc *RegistrationController) Students(c *fiber.Ctx) error {
	ident, err := helperAuth.GetIdentity(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	classID, err := helperAuth.ParseUintParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if !ident.IsStaff() {
		ok, err := rc.Ledger.IsRegistered(c.UserContext(), ident.UserID, classID)
		if err != nil {
			return helper.JsonFromError(c, err)
		}
		if !ok {
			return helper.JsonFromError(c, helper.Forbidden("you are not registered in class %d", classID))
		}
	}
	rows, err := rc.Ledger.Students(c.UserContext(), classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}
