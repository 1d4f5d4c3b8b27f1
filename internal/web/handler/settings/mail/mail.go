// Package mail provides handlers for tenant mail settings.
package mail

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/controller/setting"
	"github.com/crewdesk/crewdesk/internal/mailer"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/handler"
)

const (
	// Path is the base path for mail settings.
	Path = handler.RootPath + "settings/mail"
)

// testForm is the test-mail request body.
type testForm struct {
	To string `json:"to" validate:"required,email"`
}

// Service provides handlers for mail settings.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	tenants   *tenant.Resolver
	mail      *mailer.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB,
	authService *auth.Service, tenants *tenant.Resolver, mail *mailer.Service,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()
	s.tenants = tenants
	s.mail = mail

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Update,
	)
	app.Post(Path+"/test",
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Test,
	)
}

// Get returns the tenant's raw mail settings and the resolved configuration.
// The password never leaves the server.
func (s *Service) Get(c *fiber.Ctx) error {
	ownerID, user, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	values := s.tenants.Settings(ownerID, mailer.SettingKeys)
	delete(values, mailer.KeyPassword)

	resolved := s.mail.ConfigFor(user)

	return c.JSON(fiber.Map{
		"settings": values,
		"resolved": fiber.Map{
			"driver":       resolved.Driver,
			"host":         resolved.Host,
			"port":         resolved.Port,
			"encryption":   resolved.Encryption,
			"from_address": resolved.FromAddress,
			"from_name":    resolved.FromName,
		},
	})
}

// Update writes the submitted mail settings for the tenant and clears the
// global settings cache.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	submitted := map[string]string{}
	if err := c.BodyParser(&submitted); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	known := map[string]bool{}
	for _, key := range mailer.SettingKeys {
		known[key] = true
	}

	values := map[string]string{}
	for key, value := range submitted {
		if known[key] {
			values[key] = value
		}
	}

	if len(values) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "No mail settings submitted"})
	}

	if err := setting.SetMany(s.db, ownerID, values); err != nil {
		log.Error().Err(err).Msg("mail settings update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to save settings"})
	}

	s.tenants.ClearCache()

	return c.JSON(fiber.Map{"message": "Mail settings saved"})
}

// Test sends a probe mail to the given recipient with the resolved
// configuration. The response carries a boolean; send failures never error.
func (s *Service) Test(c *fiber.Ctx) error {
	_, user, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	body := new(testForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	cfg := s.mail.ConfigFor(user)
	success := mailer.Test(cfg, body.To)

	message := "Test mail sent"
	if !success {
		message = "Test mail failed"
	}

	return c.JSON(fiber.Map{
		"success": success,
		"message": message,
	})
}
