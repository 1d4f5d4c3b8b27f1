// Package storage provides handlers for tenant storage settings.
package storage

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/controller/setting"
	"github.com/crewdesk/crewdesk/internal/storage"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/handler"
)

const (
	// Path is the base path for storage settings.
	Path = handler.RootPath + "settings/storage"
)

// Service provides handlers for storage settings.
type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	tenants *tenant.Resolver
	disks   *storage.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB,
	authService *auth.Service, tenants *tenant.Resolver, disks *storage.Service,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.tenants = tenants
	s.disks = disks

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

// Get returns the tenant's raw storage settings and the resolved configuration.
func (s *Service) Get(c *fiber.Ctx) error {
	ownerID, user, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	values := s.tenants.Settings(ownerID, storage.SettingKeys)
	resolved := s.disks.ConfigFor(user)

	return c.JSON(fiber.Map{
		"settings": values,
		"resolved": fiber.Map{
			"disk":               resolved.Disk,
			"allowed_file_types": resolved.AllowedFileTypes,
			"max_file_size_mb":   resolved.MaxFileSizeMB,
		},
	})
}

// Update writes the submitted storage settings for the tenant. Only known
// storage keys are accepted; the global settings cache is cleared so the new
// values take effect immediately.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	submitted := map[string]string{}
	if err := c.BodyParser(&submitted); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	values := filterKeys(submitted, storage.SettingKeys, storage.RootSettingKeys)
	if len(values) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "No storage settings submitted"})
	}

	if err := setting.SetMany(s.db, ownerID, values); err != nil {
		log.Error().Err(err).Msg("storage settings update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to save settings"})
	}

	s.tenants.ClearCache()

	return c.JSON(fiber.Map{"message": "Storage settings saved"})
}

// Test probes the currently resolved storage backend with a write, read-back
// and delete. The response carries a boolean; probe failures never error.
func (s *Service) Test(c *fiber.Ctx) error {
	_, user, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	cfg := s.disks.ConfigFor(user)
	disk := s.disks.ActiveDisk(cfg)

	success := storage.TestConnection(c.Context(), disk)

	message := "Storage connection works"
	if !success {
		message = "Storage connection failed"
	}

	return c.JSON(fiber.Map{
		"success": success,
		"disk":    disk.Name(),
		"message": message,
	})
}

// filterKeys keeps the submitted entries whose keys appear in any allowed set.
func filterKeys(submitted map[string]string, allowed ...[]string) map[string]string {
	known := map[string]bool{}
	for _, set := range allowed {
		for _, key := range set {
			known[key] = true
		}
	}

	values := map[string]string{}
	for key, value := range submitted {
		if known[key] {
			values[key] = value
		}
	}

	return values
}
