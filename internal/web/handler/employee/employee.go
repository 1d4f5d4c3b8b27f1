// Package employee provides CRUD handlers for employee records.
package employee

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
	// Path is the base path for employee management.
	Path = handler.RootPath + "employee"
)

// listOptions declares the accepted query parameters for the employee list.
var listOptions = listing.Options{
	SortFields: []string{"name", "department", "basic_salary", "created_at"},
	FilterKeys: []string{"status", "department"},
}

// form is the create/update request body.
type form struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Phone        string  `json:"phone" validate:"max=30"`
	Department   string  `json:"department" validate:"max=100"`
	Designation  string  `json:"designation" validate:"max=100"`
	BasicSalary  float64 `json:"basic_salary" validate:"gte=0"`
	Allowances   float64 `json:"allowances" validate:"gte=0"`
	Deductions   float64 `json:"deductions" validate:"gte=0"`
	OvertimeRate float64 `json:"overtime_rate" validate:"gte=0"`
	Status       string  `json:"status" validate:"omitempty,oneof=active inactive"`
	JoinedAt     *time.Time `json:"joined_at"`
}

// Service provides CRUD operations for employees.
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
		auth.RequirePermission(authService, auth.PermEmployeeList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermEmployeeCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermEmployeeUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermEmployeeDelete),
		s.Delete,
	)
}

// List returns one page of the tenant's employees.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.Employee{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		like := params.SearchPattern()
		tx = tx.Where("name LIKE ? OR email LIKE ? OR department LIKE ?", like, like, like)
	}

	if status := params.Filters["status"]; status != "" {
		tx = tx.Where("status = ?", status)
	}

	if department := params.Filters["department"]; department != "" {
		tx = tx.Where("department = ?", department)
	}

	var employees []models.Employee
	page, err := listing.Paginate(tx, params, &employees)
	if err != nil {
		log.Error().Err(err).Msg("employee list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load employees"})
	}

	return c.JSON(page)
}

// Create adds a new employee record for the tenant.
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

	employee := models.Employee{
		UserID:       ownerID,
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		Department:   body.Department,
		Designation:  body.Designation,
		BasicSalary:  body.BasicSalary,
		Allowances:   body.Allowances,
		Deductions:   body.Deductions,
		OvertimeRate: body.OvertimeRate,
		Status:       models.EmployeeActive,
		JoinedAt:     body.JoinedAt,
	}

	if body.Status != "" {
		employee.Status = models.EmployeeStatus(body.Status)
	}

	if err := s.db.Create(&employee).Error; err != nil {
		log.Error().Err(err).Msg("employee create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create employee"})
	}

	s.hooks.Fire(ownerID, models.WebhookEmployeeCreated, employee)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Employee created",
		"employee": employee,
	})
}

// Update edits an existing employee record.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid employee ID"})
	}

	var employee models.Employee
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&employee).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Employee not found"})
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	employee.Name = body.Name
	employee.Email = body.Email
	employee.Phone = body.Phone
	employee.Department = body.Department
	employee.Designation = body.Designation
	employee.BasicSalary = body.BasicSalary
	employee.Allowances = body.Allowances
	employee.Deductions = body.Deductions
	employee.OvertimeRate = body.OvertimeRate
	employee.JoinedAt = body.JoinedAt

	if body.Status != "" {
		employee.Status = models.EmployeeStatus(body.Status)
	}

	if err := s.db.Save(&employee).Error; err != nil {
		log.Error().Err(err).Msg("employee update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update employee"})
	}

	return c.JSON(fiber.Map{
		"message":  "Employee updated",
		"employee": employee,
	})
}

// Delete removes an employee record.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid employee ID"})
	}

	result := s.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Employee{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("employee delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete employee"})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Employee not found"})
	}

	return c.JSON(fiber.Map{"message": "Employee deleted"})
}
