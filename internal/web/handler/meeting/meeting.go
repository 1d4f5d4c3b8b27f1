// Package meeting provides CRUD handlers for meetings.
package meeting

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
	"github.com/crewdesk/crewdesk/internal/webhook"
)

const (
	// Path is the base path for meeting management.
	Path = handler.RootPath + "meeting"
)

var listOptions = listing.Options{
	SortFields: []string{"date", "created_at", "title"},
	FilterKeys: []string{"date"},
}

type form struct {
	Title       string `json:"title" validate:"required,max=255"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"omitempty,datetime=15:04"`
	EmployeeIDs string `json:"employee_ids" validate:"max=500"`
	Note        string `json:"note"`
}

// Service provides CRUD operations for meetings.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	tenants   *tenant.Resolver
	hooks     *webhook.Dispatcher
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(
	app *fiber.App, cfg *config.Config, db *gorm.DB,
	authService *auth.Service, tenants *tenant.Resolver, hooks *webhook.Dispatcher,
) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()
	s.tenants = tenants
	s.hooks = hooks

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermMeetingList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermMeetingCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermMeetingUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermMeetingDelete),
		s.Delete,
	)
}

// List returns one page of the tenant's meetings.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.Meeting{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		tx = tx.Where("title LIKE ?", params.SearchPattern())
	}

	if date := params.Filters["date"]; date != "" {
		tx = tx.Where("date = ?", date)
	}

	var meetings []models.Meeting
	page, err := listing.Paginate(tx, params, &meetings)
	if err != nil {
		log.Error().Err(err).Msg("meeting list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load meetings"})
	}

	return c.JSON(page)
}

// Create schedules a new meeting.
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

	meeting := models.Meeting{
		UserID:      ownerID,
		Title:       body.Title,
		Date:        body.Date,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		EmployeeIDs: body.EmployeeIDs,
		Note:        body.Note,
	}

	if err := s.db.Create(&meeting).Error; err != nil {
		log.Error().Err(err).Msg("meeting create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create meeting"})
	}

	s.hooks.Fire(ownerID, models.WebhookMeetingCreated, meeting)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Meeting created",
		"meeting": meeting,
	})
}

// Update edits an existing meeting.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid meeting ID"})
	}

	var meeting models.Meeting
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&meeting).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Meeting not found"})
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	meeting.Title = body.Title
	meeting.Date = body.Date
	meeting.StartTime = body.StartTime
	meeting.EndTime = body.EndTime
	meeting.EmployeeIDs = body.EmployeeIDs
	meeting.Note = body.Note

	if err := s.db.Save(&meeting).Error; err != nil {
		log.Error().Err(err).Msg("meeting update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update meeting"})
	}

	return c.JSON(fiber.Map{
		"message": "Meeting updated",
		"meeting": meeting,
	})
}

// Delete removes a meeting.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid meeting ID"})
	}

	result := s.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Meeting{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("meeting delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete meeting"})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Meeting not found"})
	}

	return c.JSON(fiber.Map{"message": "Meeting deleted"})
}
