package config

import (
	"time"

	"github.com/crewdesk/crewdesk/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode     bool // enable dev mode for development
	MultiTenant bool // true = SaaS mode with superadmin root, false = single company root
	DB          DB
	Log         logger.Log
	Title       string
	Webserver   Webserver
	Storage     Storage
	Webhook     Webhook
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Storage holds local ("public" disk) storage settings.
type Storage struct {
	PublicPath string // filesystem root for the public disk, defaults to ./storage/public
	PublicURL  string // base url the public disk files are served from
}

// Webhook holds webhook egress settings.
type Webhook struct {
	Timeout time.Duration // per-delivery timeout, defaults to 10s
}
