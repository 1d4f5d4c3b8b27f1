package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfigDefaults(t *testing.T) {
	cfg := ResolveConfig(nil)

	assert.Equal(t, DefaultDriver, cfg.Driver)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEncryption, cfg.Encryption)
	assert.Empty(t, cfg.Username)
	assert.Empty(t, cfg.FromAddress)
}

func TestResolveConfigValues(t *testing.T) {
	cfg := ResolveConfig(map[string]string{
		KeyDriver:      "smtp",
		KeyHost:        "mail.crewdesk.example",
		KeyPort:        "465",
		KeyUsername:    "postmaster",
		KeyPassword:    "hunter2",
		KeyEncryption:  "ssl",
		KeyFromAddress: "hr@crewdesk.example",
		KeyFromName:    "Crewdesk HR",
	})

	assert.Equal(t, "mail.crewdesk.example", cfg.Host)
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, "ssl", cfg.Encryption)
	assert.Equal(t, "hr@crewdesk.example", cfg.FromAddress)
	assert.Equal(t, "Crewdesk HR", cfg.FromName)
}

func TestResolveConfigEncryptionNone(t *testing.T) {
	cfg := ResolveConfig(map[string]string{KeyEncryption: "none"})

	assert.Empty(t, cfg.Encryption)
}

func TestResolveConfigBadPort(t *testing.T) {
	testCases := []struct {
		name string
		port string
	}{
		{"non-numeric", "smtp"},
		{"zero", "0"},
		{"negative", "-25"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ResolveConfig(map[string]string{KeyPort: tc.port})
			assert.Equal(t, DefaultPort, cfg.Port)
		})
	}
}

func TestConfigFrom(t *testing.T) {
	t.Run("from address wins", func(t *testing.T) {
		cfg := Config{FromAddress: "hr@crewdesk.example", Username: "postmaster"}
		assert.Equal(t, "hr@crewdesk.example", cfg.From())
	})

	t.Run("falls back to username", func(t *testing.T) {
		cfg := Config{Username: "postmaster@crewdesk.example"}
		assert.Equal(t, "postmaster@crewdesk.example", cfg.From())
	})
}

func TestSendWithoutSender(t *testing.T) {
	err := Send(Config{Host: "localhost", Port: 2525}, []string{"someone@example.com"}, "hi", "<p>hi</p>")

	assert.Error(t, err)
}

func TestSendWithoutRecipients(t *testing.T) {
	err := Send(Config{FromAddress: "hr@crewdesk.example"}, nil, "hi", "<p>hi</p>")

	assert.NoError(t, err)
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "hr@crewdesk.example", formatFrom("", "hr@crewdesk.example"))
	assert.Equal(t, "Crewdesk HR <hr@crewdesk.example>", formatFrom("Crewdesk HR", "hr@crewdesk.example"))
}
