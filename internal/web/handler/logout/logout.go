// Package logout provides the logout endpoint.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/web/handler"
	"github.com/crewdesk/crewdesk/internal/web/session"
)

const (
	// Path is the path to the logout endpoint.
	Path = "/logout"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.db = db
	s.cfg = cfg

	app.Post(Path, s.Post)

	return nil
}

// Post destroys the session and clears the login cookie.
func (s *Service) Post(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)
	if sessionID != "" {
		sessData := new(session.Data)
		if err := sessData.Delete(sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to delete session")
		}
	}

	c.ClearCookie(session.CookieName)

	return c.JSON(fiber.Map{"message": "Logged out"})
}
