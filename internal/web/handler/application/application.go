// Package application provides handlers for job applications.
package application

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

const (
	// Path is the base path for application management.
	Path = handler.RootPath + "application"
)

var listOptions = listing.Options{
	SortFields: []string{"created_at", "name", "status"},
	FilterKeys: []string{"status", "job_id"},
}

// applyForm is the public application body.
type applyForm struct {
	JobPostingID uint64 `json:"job_posting_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=30"`
	ResumePath   string `json:"resume_path" validate:"max=500"`
}

// updateForm edits the candidate details; the job posting stays fixed.
type updateForm struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=30"`
	ResumePath string `json:"resume_path" validate:"max=500"`
}

// statusForm moves an application through the pipeline.
type statusForm struct {
	Status string `json:"status" validate:"required,oneof=applied shortlisted interviewed hired rejected"`
}

// Service provides handlers for job applications.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	tenants   *tenant.Resolver
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
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
		auth.RequirePermission(authService, auth.PermApplicationList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermApplicationList),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermApplicationUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermApplicationDelete),
		s.Delete,
	)
	app.Post(Path+"/:id/update-status",
		auth.RequirePermission(authService, auth.PermApplicationUpdate),
		s.UpdateStatus,
	)
}

// findApplication loads an application owner-scoped through its job posting.
// The second return value is a ready error handler when the lookup fails.
func (s *Service) findApplication(c *fiber.Ctx, ownerID uint64) (*models.JobApplication, fiber.Handler) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid application ID"})
		}
	}

	var application models.JobApplication
	err = s.db.
		Joins("JOIN job_postings ON job_postings.id = job_applications.job_posting_id").
		Where("job_applications.id = ? AND job_postings.user_id = ?", id, ownerID).
		First(&application).Error
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Application not found"})
		}
	}

	return &application, nil
}

// List returns one page of applications to the tenant's job postings.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.JobApplication{}).
		Joins("JOIN job_postings ON job_postings.id = job_applications.job_posting_id").
		Where("job_postings.user_id = ?", ownerID).
		Preload("JobPosting")

	if params.Search != "" {
		like := params.SearchPattern()
		tx = tx.Where("job_applications.name LIKE ? OR job_applications.email LIKE ?", like, like)
	}

	if status := params.Filters["status"]; status != "" {
		tx = tx.Where("job_applications.status = ?", status)
	}

	if jobID := params.Filters["job_id"]; jobID != "" {
		tx = tx.Where("job_applications.job_posting_id = ?", jobID)
	}

	var applications []models.JobApplication
	page, err := listing.Paginate(tx, params, &applications)
	if err != nil {
		log.Error().Err(err).Msg("application list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load applications"})
	}

	return c.JSON(page)
}

// Create records a candidate application to one of the tenant's approved jobs.
func (s *Service) Create(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	body := new(applyForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	var job models.JobPosting
	err := s.db.Where("id = ? AND user_id = ?", body.JobPostingID, ownerID).First(&job).Error
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "Job not found"})
	}

	if job.Status != models.JobApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Job is not open for applications"})
	}

	application := models.JobApplication{
		JobPostingID: job.ID,
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		ResumePath:   body.ResumePath,
		Status:       models.ApplicationApplied,
	}

	if err := s.db.Create(&application).Error; err != nil {
		log.Error().Err(err).Msg("application create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create application"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Application submitted",
		"application": application,
	})
}

// Update edits the candidate details of an application.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	application, fail := s.findApplication(c, ownerID)
	if fail != nil {
		return fail(c)
	}

	body := new(updateForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	application.Name = body.Name
	application.Email = body.Email
	application.Phone = body.Phone
	application.ResumePath = body.ResumePath

	if err := s.db.Save(application).Error; err != nil {
		log.Error().Err(err).Msg("application update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update application"})
	}

	return c.JSON(fiber.Map{
		"message":     "Application updated",
		"application": application,
	})
}

// Delete removes an application.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	application, fail := s.findApplication(c, ownerID)
	if fail != nil {
		return fail(c)
	}

	if err := s.db.Delete(application).Error; err != nil {
		log.Error().Err(err).Msg("application delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete application"})
	}

	return c.JSON(fiber.Map{"message": "Application deleted"})
}

// UpdateStatus moves an application through the recruitment pipeline.
func (s *Service) UpdateStatus(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	application, fail := s.findApplication(c, ownerID)
	if fail != nil {
		return fail(c)
	}

	body := new(statusForm)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	application.Status = models.ApplicationStatus(body.Status)
	if err := s.db.Save(application).Error; err != nil {
		log.Error().Err(err).Msg("application status change failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update application"})
	}

	return c.JSON(fiber.Map{
		"message":     "Application updated",
		"application": application,
	})
}
