// Package login provides the login endpoint.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/web/handler"
	"github.com/crewdesk/crewdesk/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	provider *auth.LocalProvider
}

// Handler is the login handler.
var Handler = Service{}

// credentials is the login request body.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.db = db
	s.cfg = cfg
	s.provider = auth.NewLocalProvider(db)

	app.Post(Path, s.Post)

	return nil
}

// Post handles the login request.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)
	if err := c.BodyParser(creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	user, err := s.provider.Authenticate(creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserAccountDisabled) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Account is inactive"})
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid username or password"})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	userSession := &session.Data{
		User: *user,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	// set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.JSON(fiber.Map{
		"message": "Logged in",
		"user": fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"type":       user.Type,
		},
	})
}
