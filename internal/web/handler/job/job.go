// Package job provides CRUD and moderation handlers for job postings.
package job

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
	// Path is the base path for job posting management.
	Path = handler.RootPath + "job"
)

var listOptions = listing.Options{
	SortFields: []string{"created_at", "title", "department", "closes_at"},
	FilterKeys: []string{"status", "department"},
}

type form struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Department  string     `json:"department" validate:"max=100"`
	Description string     `json:"description"`
	Vacancies   int        `json:"vacancies" validate:"gte=0"`
	ClosesAt    *time.Time `json:"closes_at"`
}

// rowActions gates the actions the list response names per posting.
var rowActions = []listing.Action[models.JobPosting]{
	{Name: "edit", Permission: auth.PermJobUpdate},
	{Name: "delete", Permission: auth.PermJobDelete},
	{
		Name:       "approve",
		Permission: auth.PermJobModerate,
		VisibleWhen: func(row *models.JobPosting) bool {
			return row.Status == models.JobPending
		},
	},
	{
		Name:       "reject",
		Permission: auth.PermJobModerate,
		VisibleWhen: func(row *models.JobPosting) bool {
			return row.Status == models.JobPending
		},
	},
	{
		Name:       "toggle-status",
		Permission: auth.PermJobModerate,
		VisibleWhen: func(row *models.JobPosting) bool {
			return row.Status == models.JobApproved || row.Status == models.JobClosed
		},
	},
}

// Service provides CRUD and moderation operations for job postings.
type Service struct {
	cfg         *config.Config
	db          *gorm.DB
	validator   *validator.Validate
	authService *auth.Service
	tenants     *tenant.Resolver
	hooks       *webhook.Dispatcher
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
	s.authService = authService
	s.tenants = tenants
	s.hooks = hooks

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermJobList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermJobCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermJobUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermJobDelete),
		s.Delete,
	)
	app.Post(Path+"/:id/approve",
		auth.RequirePermission(authService, auth.PermJobModerate),
		s.Moderate(models.JobApproved, "Job approved"),
	)
	app.Post(Path+"/:id/reject",
		auth.RequirePermission(authService, auth.PermJobModerate),
		s.Moderate(models.JobRejected, "Job rejected"),
	)
	app.Post(Path+"/:id/toggle-status",
		auth.RequirePermission(authService, auth.PermJobModerate),
		s.ToggleStatus,
	)
}

// listRow is one posting with its visible row actions.
type listRow struct {
	models.JobPosting
	Actions []string `json:"actions"`
}

// List returns one page of the tenant's job postings with per-row actions.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, user, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.JobPosting{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		like := params.SearchPattern()
		tx = tx.Where("title LIKE ? OR department LIKE ?", like, like)
	}

	if status := params.Filters["status"]; status != "" {
		tx = tx.Where("status = ?", status)
	}

	if department := params.Filters["department"]; department != "" {
		tx = tx.Where("department = ?", department)
	}

	var jobs []models.JobPosting
	page, err := listing.Paginate(tx, params, &jobs)
	if err != nil {
		log.Error().Err(err).Msg("job list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load jobs"})
	}

	perms, err := s.authService.PermissionSet(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("permission lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load jobs"})
	}

	rows := make([]listRow, 0, len(page.Data))
	for i := range page.Data {
		rows = append(rows, listRow{
			JobPosting: page.Data[i],
			Actions:    listing.VisibleActions(rowActions, &page.Data[i], perms),
		})
	}

	return c.JSON(fiber.Map{
		"data":         rows,
		"total":        page.Total,
		"current_page": page.CurrentPage,
		"per_page":     page.PerPage,
		"last_page":    page.LastPage,
		"from":         page.From,
		"to":           page.To,
	})
}

// Create adds a new job posting with a pending status.
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

	job := models.JobPosting{
		UserID:      ownerID,
		Title:       body.Title,
		Department:  body.Department,
		Description: body.Description,
		Vacancies:   body.Vacancies,
		Status:      models.JobPending,
		ClosesAt:    body.ClosesAt,
	}

	if err := s.db.Create(&job).Error; err != nil {
		log.Error().Err(err).Msg("job create failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create job"})
	}

	s.hooks.Fire(ownerID, models.WebhookJobCreated, job)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Job created",
		"job":     job,
	})
}

// Update edits an existing job posting.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	job, errResp := s.findJob(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	job.Title = body.Title
	job.Department = body.Department
	job.Description = body.Description
	job.Vacancies = body.Vacancies
	job.ClosesAt = body.ClosesAt

	if err := s.db.Save(job).Error; err != nil {
		log.Error().Err(err).Msg("job update failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update job"})
	}

	return c.JSON(fiber.Map{
		"message": "Job updated",
		"job":     job,
	})
}

// Moderate builds a handler that decides a pending posting.
func (s *Service) Moderate(status models.JobStatus, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, _, ok := handler.OwnerScope(s.tenants, c)
		if !ok {
			return handler.ErrOwnerScope(c)
		}

		job, errResp := s.findJob(c, ownerID)
		if errResp != nil {
			return errResp(c)
		}

		if job.Status != models.JobPending {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Job is already moderated"})
		}

		job.Status = status
		if err := s.db.Save(job).Error; err != nil {
			log.Error().Err(err).Msg("job moderation failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update job"})
		}

		return c.JSON(fiber.Map{
			"message": message,
			"job":     job,
		})
	}
}

// ToggleStatus switches an approved posting to closed and back.
func (s *Service) ToggleStatus(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	job, errResp := s.findJob(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	switch job.Status {
	case models.JobApproved:
		job.Status = models.JobClosed
	case models.JobClosed:
		job.Status = models.JobApproved
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Only approved jobs can be toggled"})
	}

	if err := s.db.Save(job).Error; err != nil {
		log.Error().Err(err).Msg("job toggle failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update job"})
	}

	return c.JSON(fiber.Map{
		"message": "Job status updated",
		"job":     job,
	})
}

// Delete removes a job posting and its applications.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	job, errResp := s.findJob(c, ownerID)
	if errResp != nil {
		return errResp(c)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_posting_id = ?", job.ID).Delete(&models.JobApplication{}).Error; err != nil {
			return err
		}

		return tx.Delete(job).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("job delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete job"})
	}

	return c.JSON(fiber.Map{"message": "Job deleted"})
}

func (s *Service) findJob(c *fiber.Ctx, ownerID uint64) (*models.JobPosting, fiber.Handler) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid job ID"})
		}
	}

	var job models.JobPosting
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&job).Error; err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Job not found"})
		}
	}

	return &job, nil
}
