// Package mailer resolves per-tenant outbound mail configuration and sends
// mail over SMTP. Like the storage package, configuration is an explicit
// value object resolved per request; resolution never fails and degrades to
// fixed defaults.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/tenant"
)

// Setting keys read from the tenant settings table.
const (
	KeyDriver      = "mail_driver"
	KeyHost        = "mail_host"
	KeyPort        = "mail_port"
	KeyUsername    = "mail_username"
	KeyPassword    = "mail_password"
	KeyEncryption  = "mail_encryption"
	KeyFromAddress = "mail_from_address"
	KeyFromName    = "mail_from_name"
)

// Defaults applied when a setting is absent.
const (
	DefaultDriver     = "smtp"
	DefaultHost       = "smtp.example.com"
	DefaultPort       = 587
	DefaultEncryption = "tls"
)

// SettingKeys is the full key set the resolver reads for an owning account.
var SettingKeys = []string{
	KeyDriver, KeyHost, KeyPort, KeyUsername, KeyPassword,
	KeyEncryption, KeyFromAddress, KeyFromName,
}

// Config is the resolved mail configuration for one tenant.
type Config struct {
	Driver      string
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string // "tls", "ssl" or empty for none
	FromAddress string
	FromName    string
}

// Service resolves mail configuration per request.
type Service struct {
	tenants *tenant.Resolver
}

// NewService creates a mailer service on top of a tenant resolver.
func NewService(tenants *tenant.Resolver) *Service {
	return &Service{tenants: tenants}
}

// ConfigFor resolves the mail configuration for the given user. All settings
// come from the single resolved owning account; a nil user or unresolvable
// owner yields pure defaults.
func (s *Service) ConfigFor(u *models.User) Config {
	var values map[string]string

	if ownerID, ok := s.tenants.OwnerID(u); ok {
		values = s.tenants.Settings(ownerID, SettingKeys)
	} else {
		values = s.tenants.GlobalSettings(SettingKeys)
	}

	return ResolveConfig(values)
}

// ResolveConfig maps raw setting values to a mail Config with defaults.
// The literal encryption value "none" translates to an empty encryption.
func ResolveConfig(values map[string]string) Config {
	cfg := Config{
		Driver:      DefaultDriver,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Encryption:  DefaultEncryption,
		Username:    values[KeyUsername],
		Password:    values[KeyPassword],
		FromAddress: values[KeyFromAddress],
		FromName:    values[KeyFromName],
	}

	if v := values[KeyDriver]; v != "" {
		cfg.Driver = v
	}

	if v := values[KeyHost]; v != "" {
		cfg.Host = v
	}

	if v := values[KeyPort]; v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}

	if v, ok := values[KeyEncryption]; ok {
		if v == "none" {
			cfg.Encryption = ""
		} else {
			cfg.Encryption = v
		}
	}

	return cfg
}

// From returns the sender address, falling back to the SMTP username.
func (c Config) From() string {
	if c.FromAddress != "" {
		return c.FromAddress
	}

	return c.Username
}

// Send sends an HTML mail with the given configuration.
func Send(cfg Config, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}

	from := cfg.From()
	if from == "" {
		return errors.New("mail sender address is not configured")
	}

	headers := map[string]string{
		"From":         formatFrom(cfg.FromName, from),
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.Encryption == "ssl" {
		// implicit TLS from the first byte
		err = sendImplicitTLS(cfg, addr, auth, from, to, message.String())
	} else {
		// plain connection; net/smtp upgrades via STARTTLS when offered
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		log.Warn().Err(err).Str("host", cfg.Host).Msg("failed to send mail")
		return errors.Wrap(err, "failed to send mail")
	}

	log.Info().Strs("to", to).Str("subject", subject).Msg("mail sent")

	return nil
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}

	return fmt.Sprintf("%s <%s>", name, address)
}

func sendImplicitTLS(cfg Config, addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer conn.Close() //nolint:errcheck

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer client.Close() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err //nolint:wrapcheck
		}
	}

	if err := client.Mail(from); err != nil {
		return err //nolint:wrapcheck
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err //nolint:wrapcheck
		}
	}

	w, err := client.Data()
	if err != nil {
		return err //nolint:wrapcheck
	}

	if _, err := w.Write([]byte(message)); err != nil {
		return err //nolint:wrapcheck
	}

	if err := w.Close(); err != nil {
		return err //nolint:wrapcheck
	}

	return client.Quit() //nolint:wrapcheck
}

// Test sends a short probe mail to the given recipient with the resolved
// configuration. The boolean result follows the storage connection test:
// false on any failure, never an error to the caller.
func Test(cfg Config, to string) bool {
	err := Send(cfg, []string{to}, "Crewdesk mail configuration test",
		"<p>This is a test mail confirming your mail settings work.</p>")

	return err == nil
}
