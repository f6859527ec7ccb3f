package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// Config keeps runtime settings for the planner.
type Config struct {
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		Token       string `yaml:"token"`
		OwnerChatID int64  `yaml:"owner_chat_id"`
	} `yaml:"telegram"`
	Report struct {
		Time          string   `yaml:"time"`
		IntervalHours int      `yaml:"interval_hours"`
		Timezone      string   `yaml:"timezone"`
		EmailTo       []string `yaml:"email_to"`
	} `yaml:"report"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	SeedDefaults bool `yaml:"seed_defaults"`

	// ReportInterval is derived from Report.IntervalHours or REPORT_INTERVAL_HOURS.
	ReportInterval time.Duration `yaml:"-"`
}

// Load reads the YAML file named by HABIT_CONFIG (config.yaml when unset and
// present), applies environment overrides and validates the result.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv("HABIT_CONFIG"))
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
			return build(nil)
		}
		path = defaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return build(raw)
}

func build(raw []byte) (Config, error) {
	cfg := defaults()
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Report.IntervalHours > 0 {
		cfg.ReportInterval = time.Duration(cfg.Report.IntervalHours) * time.Hour
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	var cfg Config
	cfg.Database.Driver = "sqlite"
	cfg.Database.URL = "habit_planner.db"
	cfg.HTTP.Addr = ":8080"
	cfg.Report.Time = "09:00"
	cfg.Report.Timezone = "Local"
	cfg.SMTP.Port = 587
	cfg.SeedDefaults = true
	return cfg
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_URL", &c.Database.URL)
	setString("HTTP_ADDR", &c.HTTP.Addr)
	setString("TELEGRAM_TOKEN", &c.Telegram.Token)
	setString("REPORT_TIME", &c.Report.Time)
	setString("TIMEZONE", &c.Report.Timezone)
	setString("SMTP_HOST", &c.SMTP.Host)
	setString("SMTP_USER", &c.SMTP.User)
	setString("SMTP_PASSWORD", &c.SMTP.Password)
	setString("SMTP_FROM", &c.SMTP.From)

	if v := strings.TrimSpace(os.Getenv("OWNER_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("OWNER_CHAT_ID: %w", err)
		}
		c.Telegram.OwnerChatID = id
	}
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.SMTP.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS")); v != "" {
		interval := parseInterval(v)
		if interval == 0 {
			return fmt.Errorf("REPORT_INTERVAL_HOURS: invalid value %q", v)
		}
		c.Report.IntervalHours = int(interval / time.Hour)
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_EMAIL_TO")); v != "" {
		c.Report.EmailTo = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SEED_DEFAULTS")); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_DEFAULTS: %w", err)
		}
		c.SeedDefaults = seed
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Telegram.Token != "" && c.Telegram.OwnerChatID == 0 {
		return fmt.Errorf("OWNER_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.Report.Time != "" {
		if _, err := time.Parse("15:04", c.Report.Time); err != nil {
			return fmt.Errorf("report.time must be HH:MM, got %q", c.Report.Time)
		}
	}
	if c.Report.IntervalHours < 0 {
		return fmt.Errorf("report.interval_hours must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.Report.EmailTo) > 0 && c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required when report.email_to is set")
	}
	return nil
}

// Location resolves the configured report timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" || c.Report.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// EmailEnabled reports whether summaries should also go out by mail.
func (c Config) EmailEnabled() bool {
	return c.SMTP.Host != "" && len(c.Report.EmailTo) > 0
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
