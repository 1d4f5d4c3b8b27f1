// Package webhookendpoint provides CRUD handlers for tenant webhook targets.
package webhookendpoint

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/listing"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/handler"
)

// Path is the base path for webhook endpoint management.
const Path = handler.RootPath + "webhook-endpoint"

var listOptions = listing.Options{
	SortFields: []string{"created_at", "event", "url"},
	FilterKeys: []string{"event", "active"},
}

type form struct {
	URL    string `json:"url" validate:"required,url,max=500"`
	Method string `json:"method" validate:"omitempty,oneof=POST PUT"`
	Event  string `json:"event" validate:"required,oneof=employee.created contract.created job.created meeting.created payroll.created"`
}

// Service provides CRUD operations for webhook endpoints.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	tenants   *tenant.Resolver
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Endpoint management sits behind the settings
// permission since targets are tenant configuration.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB,
	authService *auth.Service, tenants *tenant.Resolver,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()
	s.tenants = tenants

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Delete,
	)
	app.Post(Path+"/:id/toggle-status",
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.ToggleStatus,
	)
}

// List returns one page of the tenant's webhook endpoints.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.WebhookEndpoint{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		tx = tx.Where("url LIKE ?", params.SearchPattern())
	}

	if event := params.Filters["event"]; event != "" {
		tx = tx.Where("event = ?", event)
	}

	if active := params.Filters["active"]; active != "" {
		tx = tx.Where("active = ?", active == "true")
	}

	var endpoints []models.WebhookEndpoint
	page, err := listing.Paginate(tx, params, &endpoints)
	if err != nil {
		log.Error().Err(err).Msg("webhook endpoint list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load webhook endpoints"})
	}

	return c.JSON(page)
}

// Create registers a new webhook endpoint for the tenant.
func (s *Service) Create(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	method := body.Method
	if method == "" {
		method = "POST"
	}

	endpoint := models.WebhookEndpoint{
		UserID: ownerID,
		URL:    body.URL,
		Method: method,
		Event:  models.WebhookEvent(body.Event),
		Active: true,
	}

	if err := s.db.Create(&endpoint).Error; err != nil {
		log.Error().Err(err).Msg("webhook endpoint create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create webhook endpoint"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Webhook endpoint created",
		"endpoint": endpoint,
	})
}

// Update edits an existing webhook endpoint.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid endpoint ID"})
	}

	var endpoint models.WebhookEndpoint
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&endpoint).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Webhook endpoint not found"})
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	endpoint.URL = body.URL
	endpoint.Event = models.WebhookEvent(body.Event)

	if body.Method != "" {
		endpoint.Method = body.Method
	}

	if err := s.db.Save(&endpoint).Error; err != nil {
		log.Error().Err(err).Msg("webhook endpoint update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update webhook endpoint"})
	}

	return c.JSON(fiber.Map{
		"message":  "Webhook endpoint updated",
		"endpoint": endpoint,
	})
}

// ToggleStatus flips an endpoint between active and inactive.
func (s *Service) ToggleStatus(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid endpoint ID"})
	}

	var endpoint models.WebhookEndpoint
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&endpoint).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Webhook endpoint not found"})
	}

	endpoint.Active = !endpoint.Active
	if err := s.db.Save(&endpoint).Error; err != nil {
		log.Error().Err(err).Msg("webhook endpoint toggle failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update webhook endpoint"})
	}

	return c.JSON(fiber.Map{
		"message":  "Webhook endpoint status updated",
		"endpoint": endpoint,
	})
}

// Delete removes a webhook endpoint.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid endpoint ID"})
	}

	result := s.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.WebhookEndpoint{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("webhook endpoint delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete webhook endpoint"})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Webhook endpoint not found"})
	}

	return c.JSON(fiber.Map{"message": "Webhook endpoint deleted"})
}
