package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "pitstop.db" {
		t.Errorf("Database.Path = %q, want pitstop.db", cfg.Database.Path)
	}
	if cfg.Auth.TokenTTLHours != 24 {
		t.Errorf("Auth.TokenTTLHours = %d, want 24", cfg.Auth.TokenTTLHours)
	}
	if !strings.Contains(cfg.Registry.BaseURL, "data.gov.il") {
		t.Errorf("Registry.BaseURL = %q, want data.gov.il default", cfg.Registry.BaseURL)
	}
	if cfg.Registry.ResourceID == "" {
		t.Error("Registry.ResourceID default missing")
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
server:
  port: 9090
database:
  driver: mysql
  host: db.internal
  port: 3307
  user: garage
  database: garage_prod
auth:
  token_ttl_hours: 72
courier:
  slack:
    enabled: true
    channel_id: C012345
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db.internal" || cfg.Database.Port != 3307 {
		t.Errorf("Database = %+v, want mysql db.internal:3307", cfg.Database)
	}
	if cfg.Auth.TokenTTLHours != 72 {
		t.Errorf("Auth.TokenTTLHours = %d, want 72", cfg.Auth.TokenTTLHours)
	}
	if !cfg.Courier.Slack.Enabled || cfg.Courier.Slack.ChannelID != "C012345" {
		t.Errorf("Courier.Slack = %+v, want enabled C012345", cfg.Courier.Slack)
	}
}

func TestParse_InvalidDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "driver") {
		t.Errorf("error = %v, want driver complaint", err)
	}
}

func TestParse_CourierMissingChannel(t *testing.T) {
	yaml := `
courier:
  discord:
    enabled: true
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for enabled courier without channel")
	}
	if !strings.Contains(err.Error(), "channel_id") {
		t.Errorf("error = %v, want channel_id complaint", err)
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("server: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
