package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/crewdesk/crewdesk/internal/web/handler/login"
	"github.com/crewdesk/crewdesk/internal/web/session"
)

// publicPrefixes are request paths served without an authenticated session.
var publicPrefixes = []string{
	login.Path,
	"/checkalive",
	"/metrics",
	"/storage",
}

// AuthMiddleware is a Fiber middleware that checks for user authentication.
// Authenticated requests get the session user stored in Locals("CurrentUser").
func AuthMiddleware(c *fiber.Ctx) error {
	path := c.Path()
	for _, prefix := range publicPrefixes {
		// match the exact path or a subtree below it, not bare prefixes
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return c.Next()
		}
	}

	// get session cookie
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	// check session validity
	sessData := new(session.Data)
	_ = sessData.Read(sessionID)

	if sessData.User.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	c.Locals("CurrentUser", sessData.User)

	return c.Next()
}
