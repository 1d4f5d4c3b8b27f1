package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/tenant"
)

// OwnerScope resolves the tenant-owning account for the authenticated user.
// Every entity handler scopes its queries to this account; a request whose
// owner cannot be resolved must not see or touch any rows.
func OwnerScope(tenants *tenant.Resolver, c *fiber.Ctx) (uint64, *models.User, bool) {
	user := auth.CurrentUser(c)

	ownerID, ok := tenants.OwnerID(user)
	if !ok {
		return 0, user, false
	}

	return ownerID, user, true
}

// ErrOwnerScope replies with the standard response for requests whose tenant
// owner cannot be resolved.
func ErrOwnerScope(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
}
