package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	fiberlogger "github.com/crewdesk/crewdesk/internal/logger/adapter/fiber"
	"github.com/crewdesk/crewdesk/internal/mailer"
	"github.com/crewdesk/crewdesk/internal/storage"
	"github.com/crewdesk/crewdesk/internal/tenant"
	"github.com/crewdesk/crewdesk/internal/web/handler/application"
	"github.com/crewdesk/crewdesk/internal/web/handler/contract"
	"github.com/crewdesk/crewdesk/internal/web/handler/coupon"
	"github.com/crewdesk/crewdesk/internal/web/handler/employee"
	"github.com/crewdesk/crewdesk/internal/web/handler/job"
	"github.com/crewdesk/crewdesk/internal/web/handler/login"
	"github.com/crewdesk/crewdesk/internal/web/handler/logout"
	"github.com/crewdesk/crewdesk/internal/web/handler/meeting"
	payrollhandler "github.com/crewdesk/crewdesk/internal/web/handler/payroll"
	settingsmail "github.com/crewdesk/crewdesk/internal/web/handler/settings/mail"
	settingsstorage "github.com/crewdesk/crewdesk/internal/web/handler/settings/storage"
	"github.com/crewdesk/crewdesk/internal/web/handler/webhookendpoint"
	"github.com/crewdesk/crewdesk/internal/webhook"
)

// CheckAlivePath is the liveness endpoint.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
	tenants      *tenant.Resolver
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// serve public disk files
	app.Use("/storage",
		filesystem.New(
			filesystem.Config{
				Root: http.Dir(cfg.Storage.PublicPath),
			},
		),
	)

	// session auth middleware
	app.Use(AuthMiddleware)

	authService := auth.NewService(db)
	tenants := tenant.NewResolver(db, cfg.MultiTenant)
	disks := storage.NewService(tenants, cfg.Storage)
	mail := mailer.NewService(tenants)
	hooks := webhook.NewDispatcher(db, cfg.Webhook.Timeout)

	// init web service
	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
		tenants:     tenants,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes with permission checks)
	if err := login.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := logout.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init logout handler")
	}

	employee.Handler.Init(app, cfg, db, authService, tenants, hooks)
	contract.Handler.Init(app, cfg, db, authService, tenants, hooks)
	payrollhandler.Handler.Init(app, cfg, db, authService, tenants, hooks)
	job.Handler.Init(app, cfg, db, authService, tenants, hooks)
	meeting.Handler.Init(app, cfg, db, authService, tenants, hooks)
	application.Handler.Init(app, cfg, db, authService, tenants)
	coupon.Handler.Init(app, cfg, db, authService, tenants)
	settingsstorage.Handler.Init(app, cfg, db, authService, tenants, disks)
	settingsmail.Handler.Init(app, cfg, db, authService, tenants, mail)
	webhookendpoint.Handler.Init(app, cfg, db, authService, tenants)

	// liveness endpoint for load balancers
	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	// prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return service
}
