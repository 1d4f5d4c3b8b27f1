// Package payroll provides handlers for payroll runs and payslips.
package payroll

import (
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/listing"
	"github.com/crewdesk/crewdesk/internal/payroll"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/handler"
	"github.com/crewdesk/crewdesk/internal/webhook"
)

const (
	// Path is the base path for payroll management.
	Path = handler.RootPath + "payroll"
)

var (
	listOptions = listing.Options{
		SortFields: []string{"month", "created_at", "total_net"},
		FilterKeys: []string{"status"},
	}

	monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// createForm is the run creation request body.
type createForm struct {
	Month string `json:"month"`
}

// generateForm carries the per-employee period inputs.
type generateForm struct {
	Inputs map[uint64]payroll.Input `json:"inputs"`
}

// Service provides handlers for payroll runs.
type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	tenants *tenant.Resolver
	hooks   *webhook.Dispatcher
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
	s.tenants = tenants
	s.hooks = hooks

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermPayrollList),
		s.List,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, auth.PermPayrollList),
		s.Show,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermPayrollCreate),
		s.Create,
	)
	app.Post(Path+"/:id/generate",
		auth.RequirePermission(authService, auth.PermPayrollGenerate),
		s.Generate,
	)
	app.Post(Path+"/:id/finalize",
		auth.RequirePermission(authService, auth.PermPayrollFinalize),
		s.Finalize,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermPayrollDelete),
		s.Delete,
	)
}

// List returns one page of the tenant's payroll runs.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.PayrollRun{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		tx = tx.Where("month LIKE ?", params.SearchPattern())
	}

	if status := params.Filters["status"]; status != "" {
		tx = tx.Where("status = ?", status)
	}

	var runs []models.PayrollRun
	page, err := listing.Paginate(tx, params, &runs)
	if err != nil {
		log.Error().Err(err).Msg("payroll list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load payroll runs"})
	}

	return c.JSON(page)
}

// Show returns one run with its payslips.
func (s *Service) Show(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	run, errResp := s.findRun(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	var payslips []models.Payslip
	if err := s.db.Where("payroll_run_id = ?", run.ID).Order("employee_id asc").Find(&payslips).Error; err != nil {
		log.Error().Err(err).Msg("payslip list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load payslips"})
	}

	return c.JSON(fiber.Map{
		"run":      run,
		"payslips": payslips,
	})
}

// Create opens a new draft payroll run for a month.
func (s *Service) Create(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	body := new(createForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if !monthPattern.MatchString(body.Month) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "Month must be in YYYY-MM format"})
	}

	var count int64
	s.db.Model(&models.PayrollRun{}).
		Where("user_id = ? AND month = ?", ownerID, body.Month).
		Count(&count)

	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "A payroll run for this month already exists"})
	}

	run := models.PayrollRun{
		UserID: ownerID,
		Month:  body.Month,
		Status: models.PayrollDraft,
	}

	if err := s.db.Create(&run).Error; err != nil {
		log.Error().Err(err).Msg("payroll create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create payroll run"})
	}

	s.hooks.Fire(ownerID, models.WebhookPayrollCreated, run)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payroll run created",
		"run":     run,
	})
}

// Generate computes payslips for every active employee of the run.
func (s *Service) Generate(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	run, errResp := s.findRun(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	body := new(generateForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	updated, err := payroll.Generate(s.db, run.ID, body.Inputs)

	switch {
	case err == nil:
	case errors.Is(err, payroll.ErrRunFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Payroll run is finalized"})
	case errors.Is(err, payroll.ErrNoActiveEmployees):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "No active employees to pay"})
	default:
		log.Error().Err(err).Msg("payroll generate failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to generate payslips"})
	}

	return c.JSON(fiber.Map{
		"message": "Payslips generated",
		"run":     updated,
	})
}

// Finalize freezes a draft run.
func (s *Service) Finalize(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	run, errResp := s.findRun(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	updated, err := payroll.Finalize(s.db, run.ID)

	switch {
	case err == nil:
	case errors.Is(err, payroll.ErrRunFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Payroll run is already finalized"})
	default:
		log.Error().Err(err).Msg("payroll finalize failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to finalize payroll run"})
	}

	return c.JSON(fiber.Map{
		"message": "Payroll run finalized",
		"run":     updated,
	})
}

// Delete removes a draft run and its payslips.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	run, errResp := s.findRun(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	if run.Status == models.PayrollFinalized {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Finalized payroll runs cannot be deleted"})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payroll_run_id = ?", run.ID).Delete(&models.Payslip{}).Error; err != nil {
			return err
		}

		return tx.Delete(run).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("payroll delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete payroll run"})
	}

	return c.JSON(fiber.Map{"message": "Payroll run deleted"})
}

// findRun loads the tenant's run named by the :id parameter. The second return
// value, when non-nil, writes the error response.
func (s *Service) findRun(c *fiber.Ctx, ownerID uint64) (*models.PayrollRun, fiber.Handler) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid payroll run ID"})
		}
	}

	var run models.PayrollRun
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&run).Error; err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Payroll run not found"})
		}
	}

	return &run, nil
}
