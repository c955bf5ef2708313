package config

import (
	"os"
	"path/filepath"
	"testing"

	"helmsman/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "helmsman"
  environment: "test"
database:
  path: "test.db"
redis:
  enabled: true
  address: "localhost:6379"
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: "secret"
        name: "partner-site"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("expected redis address localhost:6379, got %s", cfg.Redis.Address)
	}
	if !cfg.API.HTTP.Enabled {
		t.Error("expected http to be enabled when api is enabled")
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "partner-site" {
		t.Errorf("expected 1 api key named partner-site")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("HELMSMAN_DB_PATH", "/var/lib/helmsman/engine.db")
	yamlContent := `
database:
  path: "${HELMSMAN_DB_PATH}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Path != "/var/lib/helmsman/engine.db" {
		t.Errorf("expected env-expanded path, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "redis enabled without address",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Redis:    RedisConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Cache.SlotTTLSeconds != 300 {
		t.Errorf("expected default slot ttl 300, got %d", cfg.Cache.SlotTTLSeconds)
	}
	if cfg.Booking.DepositTimeoutHours != models.DefaultDepositTimeoutHours {
		t.Errorf("expected default deposit timeout %d, got %d", models.DefaultDepositTimeoutHours, cfg.Booking.DepositTimeoutHours)
	}
	if cfg.Booking.OfferExpiryDays != models.DefaultOfferExpiryDays {
		t.Errorf("expected default offer expiry %d, got %d", models.DefaultOfferExpiryDays, cfg.Booking.OfferExpiryDays)
	}
}
