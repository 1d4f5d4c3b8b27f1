// Package daemon wires the database, session store and web service together.
package daemon

import (
	"fmt"

	sessionmemory "github.com/gofiber/storage/memory"
	sessionmysql "github.com/gofiber/storage/mysql"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/dsn"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/web"
	"github.com/crewdesk/crewdesk/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	var dbDriver gorm.Dialector
	if cfg.DB.GormEngine == "postgres" {
		dbDriver = gormpostgres.Open(dsn.Create(cfg))
	} else {
		dbDriver = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dbDriver, &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.Setting{},
		&models.Employee{},
		&models.Contract{},
		&models.PayrollRun{},
		&models.Payslip{},
		&models.JobPosting{},
		&models.JobApplication{},
		&models.Coupon{},
		&models.Meeting{},
		&models.WebhookEndpoint{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	// Initialize fiber session store. Sessions live in mysql next to the
	// application data; the postgres engine keeps them in memory.
	if cfg.DB.GormEngine == "mysql" {
		session.Init(sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		}))
	} else {
		session.Init(sessionmemory.New())
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db),
	}
}
