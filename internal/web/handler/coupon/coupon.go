// Package coupon provides CRUD handlers for discount coupons.
package coupon

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/listing"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/uniuri"
	"github.com/crewdesk/crewdesk/internal/web/handler"
)

const (
	// Path is the base path for coupon management.
	Path = handler.RootPath + "coupon"

	// codeLength is the length of generated coupon codes.
	codeLength = 10
)

var listOptions = listing.Options{
	SortFields: []string{"created_at", "name", "discount", "used_count"},
	FilterKeys: []string{"active"},
}

type form struct {
	Name string `json:"name" validate:"required,max=100"`
	// Code is optional; an empty code gets generated.
	Code     string  `json:"code" validate:"max=50"`
	Discount float64 `json:"discount" validate:"gte=0,lte=100"`
	Limit    int     `json:"limit" validate:"gte=0"`
}

// Service provides CRUD operations for coupons.
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
		auth.RequirePermission(authService, auth.PermCouponList),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermCouponCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermCouponUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermCouponDelete),
		s.Delete,
	)
	app.Post(Path+"/:id/toggle-status",
		auth.RequirePermission(authService, auth.PermCouponUpdate),
		s.ToggleStatus,
	)
}

// List returns one page of the tenant's coupons.
func (s *Service) List(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	params := listing.FromQuery(c, listOptions)

	tx := s.db.Model(&models.Coupon{}).Where("user_id = ?", ownerID)

	if params.Search != "" {
		like := params.SearchPattern()
		tx = tx.Where("name LIKE ? OR code LIKE ?", like, like)
	}

	if active := params.Filters["active"]; active != "" {
		tx = tx.Where("active = ?", active == "true")
	}

	var coupons []models.Coupon
	page, err := listing.Paginate(tx, params, &coupons)
	if err != nil {
		log.Error().Err(err).Msg("coupon list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load coupons"})
	}

	return c.JSON(page)
}

// Create adds a new coupon; an empty code is generated.
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

	code := strings.ToUpper(strings.TrimSpace(body.Code))
	if code == "" {
		code = uniuri.NewLen(codeLength)
	}

	coupon := models.Coupon{
		UserID:   ownerID,
		Name:     body.Name,
		Code:     code,
		Discount: body.Discount,
		Limit:    body.Limit,
		Active:   true,
	}

	if err := s.db.Create(&coupon).Error; err != nil {
		log.Error().Err(err).Msg("coupon create failed")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Coupon code already exists"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Coupon created",
		"coupon":  coupon,
	})
}

// Update edits an existing coupon.
func (s *Service) Update(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid coupon ID"})
	}

	var coupon models.Coupon
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&coupon).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Coupon not found"})
	}

	body := new(form)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := s.validator.Struct(body); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	coupon.Name = body.Name
	coupon.Discount = body.Discount
	coupon.Limit = body.Limit

	if code := strings.ToUpper(strings.TrimSpace(body.Code)); code != "" {
		coupon.Code = code
	}

	if err := s.db.Save(&coupon).Error; err != nil {
		log.Error().Err(err).Msg("coupon update failed")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Coupon code already exists"})
	}

	return c.JSON(fiber.Map{
		"message": "Coupon updated",
		"coupon":  coupon,
	})
}

// ToggleStatus flips a coupon between active and inactive.
func (s *Service) ToggleStatus(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid coupon ID"})
	}

	var coupon models.Coupon
	if err := s.db.Where("id = ? AND user_id = ?", id, ownerID).First(&coupon).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Coupon not found"})
	}

	coupon.Active = !coupon.Active
	if err := s.db.Save(&coupon).Error; err != nil {
		log.Error().Err(err).Msg("coupon toggle failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update coupon"})
	}

	return c.JSON(fiber.Map{
		"message": "Coupon status updated",
		"coupon":  coupon,
	})
}

// Delete removes a coupon.
func (s *Service) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := handler.OwnerScope(s.tenants, c)
	if !ok {
		return handler.ErrOwnerScope(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid coupon ID"})
	}

	result := s.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Coupon{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("coupon delete failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete coupon"})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Coupon not found"})
	}

	return c.JSON(fiber.Map{"message": "Coupon deleted"})
}
