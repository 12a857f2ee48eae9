package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
http:
  addr: ":9090"
db:
  path: /tmp/test.sqlite3
auth:
  jwt_secret: super-secret
  clients:
    - id: till-1
      secret_hash: "$2a$10$abcdefghijklmnopqrstuv"
replenish:
  cooldown_days: 3
  sweep_interval: 15m
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Env != "dev" {
		t.Errorf("expected env dev, got %q", cfg.App.Env)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.JWTSecret != "super-secret" {
		t.Errorf("unexpected jwt secret %q", cfg.Auth.JWTSecret)
	}
	if len(cfg.Auth.Clients) != 1 || cfg.Auth.Clients[0].ID != "till-1" {
		t.Errorf("unexpected clients %+v", cfg.Auth.Clients)
	}
	if cfg.Replenish.CooldownDays != 3 {
		t.Errorf("expected cooldown 3, got %d", cfg.Replenish.CooldownDays)
	}
	if cfg.Replenish.SweepInterval != 15*time.Minute {
		t.Errorf("expected sweep interval 15m, got %v", cfg.Replenish.SweepInterval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: super-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.HTTP.Addr)
	}
	if cfg.Replenish.CooldownDays != 7 || cfg.Replenish.LeadTimeDays != 7 {
		t.Errorf("expected 7-day defaults, got %d and %d",
			cfg.Replenish.CooldownDays, cfg.Replenish.LeadTimeDays)
	}
	if cfg.Replenish.SweepInterval != time.Hour {
		t.Errorf("expected hourly sweep default, got %v", cfg.Replenish.SweepInterval)
	}
	if cfg.Dashboard.WindowDays != 30 {
		t.Errorf("expected 30-day window default, got %d", cfg.Dashboard.WindowDays)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8080"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected an error without jwt_secret")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
