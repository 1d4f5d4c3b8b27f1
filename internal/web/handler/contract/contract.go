// Package contract provides CRUD and approval handlers for contracts.
package contract

import (
	"time"

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
	// Path is the base path for contract management.
	Path = handler.RootPath + "contract"
)

var listOptions = listing.Options{
	SortFields: []string{"created_at", "subject", "value", "start_date"},
	FilterKeys: []string{"status", "employee_id"},
}

type form struct {
	EmployeeID uint64     `json:"employee_id" validate:"required"`
	Subject    string     `json:"subject" validate:"required,max=255"`
	Value      float64    `json:"value" validate:"gte=0"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Notes      string     `json:"notes"`
}

// Service provides CRUD operations for contracts.
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
		auth.RequirePermission(authService, auth.PermContractList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermContractCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermContractUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermContractDelete),
		s.Delete,
	)
	app.Post(Path+"/:id/accept",
		auth.RequirePermission(authService, auth.PermContractUpdate),
		s.SetStatus(models.ContractAccepted, "Contract accepted"),
	)
	app.Post(Path+"/:id/decline",
		auth.RequirePermission(authService, auth.PermContractUpdate),
		s.SetStatus(models.ContractDeclined, "Contract declined"),
	)
}

// List returns one page of the tenant's contracts.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.Contract{}).Where("user_id = ?", ownerID).Preload("Employee")

	if params.Search != "" {
		tx = tx.Where("subject LIKE ?", params.SearchPattern())
	}

	if status := params.Filters["status"]; status != "" {
		tx = tx.Where("status = ?", status)
	}

	if employeeID := params.Filters["employee_id"]; employeeID != "" {
		tx = tx.Where("employee_id = ?", employeeID)
	}

	var contracts []models.Contract
	page, err := listing.Paginate(tx, params, &contracts)
	if err != nil {
		log.Error().Err(err).Msg("contract list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load contracts"})
	}

	return c.JSON(page)
}

// Create adds a new contract with a pending status.
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

	// the employee must belong to the same tenant
	var count int64
	s.db.Model(&models.Employee{}).
		Where("id = ? AND user_id = ?", body.EmployeeID, ownerID).
		Count(&count)

	if count == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "Employee not found"})
	}

	contract := models.Contract{
		UserID:     ownerID,
		EmployeeID: body.EmployeeID,
		Subject:    body.Subject,
		Value:      body.Value,
		StartDate:  body.StartDate,
		EndDate:    body.EndDate,
		Status:     models.ContractPending,
		Notes:      body.Notes,
	}

	if err := s.db.Create(&contract).Error; err != nil {
		log.Error().Err(err).Msg("contract create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create contract"})
	}

	s.hooks.Fire(ownerID, models.WebhookContractCreated, contract)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Contract created",
		"contract": contract,
	})
}

// Update edits an existing pending contract.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid contract ID"})
	}

	var contract models.Contract
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&contract).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Contract not found"})
	}

	if contract.Status != models.ContractPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Only pending contracts can be edited"})
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	contract.EmployeeID = body.EmployeeID
	contract.Subject = body.Subject
	contract.Value = body.Value
	contract.StartDate = body.StartDate
	contract.EndDate = body.EndDate
	contract.Notes = body.Notes

	if err := s.db.Save(&contract).Error; err != nil {
		log.Error().Err(err).Msg("contract update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update contract"})
	}

	return c.JSON(fiber.Map{
		"message":  "Contract updated",
		"contract": contract,
	})
}

// SetStatus builds a handler that moves a pending contract to the given state.
func (s *Service) SetStatus(status models.ContractStatus, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, _, ok := handler.OwnerScope(s.tenants, c)
		if !ok {
			return handler.ErrOwnerScope(c)
		}

		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid contract ID"})
		}

		var contract models.Contract
		if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&contract).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Contract not found"})
		}

		if contract.Status != models.ContractPending {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Contract is already decided"})
		}

		contract.Status = status
		if err := s.db.Save(&contract).Error; err != nil {
			log.Error().Err(err).Msg("contract status change failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update contract"})
		}

		return c.JSON(fiber.Map{
			"message":  message,
			"contract": contract,
		})
	}
}

// Delete removes a contract.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid contract ID"})
	}

	result := s.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Contract{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("contract delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete contract"})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Contract not found"})
	}

	return c.JSON(fiber.Map{"message": "Contract deleted"})
}
