package config

import (
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	// Get the project root by going up from internal/config
	projectRoot, err = filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	// Test DB config
	if cfg.DB.Host == "" {
		t.Error("DB.Host should not be empty")
	}

	if cfg.DB.GormEngine != "mysql" && cfg.DB.GormEngine != "postgres" {
		t.Errorf("DB.GormEngine = %q, want mysql or postgres", cfg.DB.GormEngine)
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	t.Setenv("CREWDESK_CONFIG_JSON", `{"Title":"Overridden","MultiTenant":false}`)

	cfg, err := ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Overridden" {
		t.Errorf("Title = %q, want %q", cfg.Title, "Overridden")
	}

	if cfg.MultiTenant {
		t.Error("MultiTenant should be overridden to false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "zero port",
			cfg:     Config{Webserver: Webserver{Port: 0, URL: "http://localhost"}},
			wantErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name:    "empty url",
			cfg:     Config{Webserver: Webserver{Port: 8080, URL: ""}},
			wantErr: ErrEmptyURL,
		},
		{
			name:    "valid",
			cfg:     Config{Webserver: Webserver{Port: 8080, URL: "http://localhost"}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.cfg)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("validate() error = %v, want nil", err)
			}

			if tt.wantErr != nil && err == nil {
				t.Fatalf("validate() error = nil, want %v", tt.wantErr)
			}
		})
	}
}
