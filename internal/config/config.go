package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DISPARO_API_TOKEN
const EnvPrefix = "DISPARO_"

// MinPollInterval is the shortest accepted refresh interval
const MinPollInterval = time.Second

type Config struct {
	API       APIConfig       `yaml:"api" envPrefix:"API_"`
	Polling   PollingConfig   `yaml:"polling" envPrefix:"POLLING_"`
	Contacts  ContactsConfig  `yaml:"contacts" envPrefix:"CONTACTS_"`
	Quota     QuotaConfig     `yaml:"quota" envPrefix:"QUOTA_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOGGING_"`
	DevServer DevServerConfig `yaml:"devserver" envPrefix:"DEVSERVER_"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Token   string        `yaml:"token" env:"TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PollingConfig holds the refresh interval of each view
type PollingConfig struct {
	Dashboard      time.Duration `yaml:"dashboard" env:"DASHBOARD"`
	Campaigns      time.Duration `yaml:"campaigns" env:"CAMPAIGNS"`
	CampaignDetail time.Duration `yaml:"campaign_detail" env:"CAMPAIGN_DETAIL"`
	Lists          time.Duration `yaml:"lists" env:"LISTS"`
	ListDetail     time.Duration `yaml:"list_detail" env:"LIST_DETAIL"`
}

type ContactsConfig struct {
	PageSize int `yaml:"page_size" env:"PAGE_SIZE"`
}

// QuotaConfig is the system-wide daily sending quota. The console falls back
// to it when the service reports no limit.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit" env:"DAILY_LIMIT"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	Path       string `yaml:"path" env:"PATH"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	// File receives logs while the console owns the terminal
	File string `yaml:"file" env:"FILE"`
}

type DevServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	DBPath          string        `yaml:"db_path" env:"DB_PATH"`
	Token           string        `yaml:"token" env:"TOKEN"`
	ProcessInterval time.Duration `yaml:"process_interval" env:"PROCESS_INTERVAL"`
	SendBatch       int           `yaml:"send_batch" env:"SEND_BATCH"`
}

// Load reads the YAML file at path, applies DISPARO_* environment overrides
// and defaults, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080/api"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	if cfg.Polling.Dashboard == 0 {
		cfg.Polling.Dashboard = 30 * time.Second
	}
	if cfg.Polling.Campaigns == 0 {
		cfg.Polling.Campaigns = 10 * time.Second
	}
	if cfg.Polling.CampaignDetail == 0 {
		cfg.Polling.CampaignDetail = 5 * time.Second
	}
	if cfg.Polling.Lists == 0 {
		cfg.Polling.Lists = 10 * time.Second
	}
	if cfg.Polling.ListDetail == 0 {
		cfg.Polling.ListDetail = 5 * time.Second
	}

	if cfg.Contacts.PageSize == 0 {
		cfg.Contacts.PageSize = 50
	}
	if cfg.Quota.DailyLimit == 0 {
		cfg.Quota.DailyLimit = 4000
	}

	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.DevServer.ListenAddr == "" {
		cfg.DevServer.ListenAddr = ":8080"
	}
	if cfg.DevServer.DBPath == "" {
		cfg.DevServer.DBPath = "disparo-dev.db"
	}
	if cfg.DevServer.ProcessInterval == 0 {
		cfg.DevServer.ProcessInterval = 2 * time.Second
	}
	if cfg.DevServer.SendBatch == 0 {
		cfg.DevServer.SendBatch = 25
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}

	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"polling.dashboard", c.Polling.Dashboard},
		{"polling.campaigns", c.Polling.Campaigns},
		{"polling.campaign_detail", c.Polling.CampaignDetail},
		{"polling.lists", c.Polling.Lists},
		{"polling.list_detail", c.Polling.ListDetail},
	}
	for _, iv := range intervals {
		if iv.d < MinPollInterval {
			return fmt.Errorf("%s must be at least %s, got %s", iv.name, MinPollInterval, iv.d)
		}
	}

	if c.Contacts.PageSize < 1 || c.Contacts.PageSize > 500 {
		return fmt.Errorf("contacts.page_size must be between 1 and 500, got %d", c.Contacts.PageSize)
	}
	if c.Quota.DailyLimit < 1 {
		return fmt.Errorf("quota.daily_limit must be positive, got %d", c.Quota.DailyLimit)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	if c.DevServer.ProcessInterval < 100*time.Millisecond {
		return fmt.Errorf("devserver.process_interval must be at least 100ms, got %s", c.DevServer.ProcessInterval)
	}
	if c.DevServer.SendBatch < 1 {
		return fmt.Errorf("devserver.send_batch must be positive, got %d", c.DevServer.SendBatch)
	}

	return nil
}
