package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://mail.example.com/api"
  token: "secret-token"
  timeout: 10s

polling:
  dashboard: 60s
  campaign_detail: 2s

contacts:
  page_size: 25

metrics:
  enabled: true
  listen_addr: ":9191"

logging:
  level: "debug"
  format: "json"
  file: "/tmp/disparo.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://mail.example.com/api" {
		t.Errorf("API.BaseURL = %v", cfg.API.BaseURL)
	}
	if cfg.API.Token != "secret-token" {
		t.Errorf("API.Token = %v, want secret-token", cfg.API.Token)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.Polling.Dashboard != time.Minute {
		t.Errorf("Polling.Dashboard = %v, want 1m", cfg.Polling.Dashboard)
	}
	if cfg.Polling.CampaignDetail != 2*time.Second {
		t.Errorf("Polling.CampaignDetail = %v, want 2s", cfg.Polling.CampaignDetail)
	}
	if cfg.Contacts.PageSize != 25 {
		t.Errorf("Contacts.PageSize = %v, want 25", cfg.Contacts.PageSize)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddr != ":9191" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/disparo.log" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	// untouched sections keep defaults
	if cfg.Polling.Campaigns != 10*time.Second {
		t.Errorf("Polling.Campaigns = %v, want 10s", cfg.Polling.Campaigns)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %v, want /metrics", cfg.Metrics.Path)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"api.base_url", cfg.API.BaseURL, "http://localhost:8080/api"},
		{"api.timeout", cfg.API.Timeout, 30 * time.Second},
		{"polling.dashboard", cfg.Polling.Dashboard, 30 * time.Second},
		{"polling.campaigns", cfg.Polling.Campaigns, 10 * time.Second},
		{"polling.campaign_detail", cfg.Polling.CampaignDetail, 5 * time.Second},
		{"polling.lists", cfg.Polling.Lists, 10 * time.Second},
		{"polling.list_detail", cfg.Polling.ListDetail, 5 * time.Second},
		{"contacts.page_size", cfg.Contacts.PageSize, 50},
		{"quota.daily_limit", cfg.Quota.DailyLimit, 4000},
		{"logging.level", cfg.Logging.Level, "info"},
		{"logging.format", cfg.Logging.Format, "text"},
		{"devserver.listen_addr", cfg.DevServer.ListenAddr, ":8080"},
		{"devserver.process_interval", cfg.DevServer.ProcessInterval, 2 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("DISPARO_API_TOKEN", "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Token != "from-env" {
		t.Errorf("API.Token = %v, want from-env", cfg.API.Token)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "http://file.example.com"
  token: "file-token"
polling:
  campaigns: 20s
`)
	t.Setenv("DISPARO_API_TOKEN", "env-token")
	t.Setenv("DISPARO_POLLING_CAMPAIGNS", "3s")
	t.Setenv("DISPARO_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %v, want env-token", cfg.API.Token)
	}
	if cfg.API.BaseURL != "http://file.example.com" {
		t.Errorf("API.BaseURL = %v, file value must survive", cfg.API.BaseURL)
	}
	if cfg.Polling.Campaigns != 3*time.Second {
		t.Errorf("Polling.Campaigns = %v, want 3s", cfg.Polling.Campaigns)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "sub-second interval",
			modify:  func(c *Config) { c.Polling.CampaignDetail = 500 * time.Millisecond },
			wantErr: "polling.campaign_detail",
		},
		{
			name:    "negative interval",
			modify:  func(c *Config) { c.Polling.Dashboard = -time.Second },
			wantErr: "polling.dashboard",
		},
		{
			name:    "relative base url",
			modify:  func(c *Config) { c.API.BaseURL = "/api" },
			wantErr: "api.base_url",
		},
		{
			name:    "unsupported scheme",
			modify:  func(c *Config) { c.API.BaseURL = "ftp://example.com" },
			wantErr: "scheme",
		},
		{
			name:    "page size",
			modify:  func(c *Config) { c.Contacts.PageSize = 0 },
			wantErr: "contacts.page_size",
		},
		{
			name:    "log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsShortInterval(t *testing.T) {
	path := writeConfig(t, `
polling:
  dashboard: 200ms
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for sub-second interval")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}
