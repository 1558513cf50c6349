package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"LevelSentinel/internal/model"
)

// Data providers understood by the collector wiring.
const (
	ProviderTushare = "tushare"
	ProviderYahoo   = "yahoo"
	ProviderCSV     = "csv"
	ProviderMock    = "mock"
)

// Recommended detection bounds. Values outside them are allowed but reported by Warnings.
const (
	MinRecommendedLookback = 8
	MaxRecommendedLookback = 500
	MinRecommendedMinTouch = 1
	MaxRecommendedMinTouch = 20
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider       string `yaml:"provider"`
		BaseURL        string `yaml:"base_url"`
		Token          string `yaml:"token"`
		APIName        string `yaml:"api_name"`
		Symbol         string `yaml:"symbol"`
		Interval       string `yaml:"interval"`
		CSVPath        string `yaml:"csv_path"`
		SkipBarAt      string `yaml:"skip_bar_at"`
		Timezone       string `yaml:"timezone"`
		RequestsPerSec int    `yaml:"requests_per_sec"`
		TimeoutSec     int    `yaml:"timeout_sec"`
	} `yaml:"data_source"`
	Calendar struct {
		Source      string   `yaml:"source"` // "tushare" or "weekday"
		Exchange    string   `yaml:"exchange"`
		CloseAt     string   `yaml:"close_at"`
		RangeMonths int      `yaml:"range_months"`
		Holidays    []string `yaml:"holidays"`
	} `yaml:"calendar"`
	Detection struct {
		LookbackPeriod int     `yaml:"lookback_period"`
		MinTouch       int     `yaml:"min_touch"`
		Tolerance      float64 `yaml:"tolerance"`
	} `yaml:"detection"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Chart struct {
		Output   string `yaml:"output"`
		Width    string `yaml:"width"`
		Height   string `yaml:"height"`
		Theme    string `yaml:"theme"`
		Telegram bool   `yaml:"telegram"` // attach the chart to bot reports
	} `yaml:"chart"`
	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used for every field the file and environment leave unset.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Provider = ProviderTushare
	cfg.DataSource.Symbol = "000300.SH"
	cfg.DataSource.Interval = "30min"
	cfg.DataSource.SkipBarAt = "09:30"
	cfg.DataSource.Timezone = "Asia/Shanghai"
	cfg.DataSource.RequestsPerSec = 2
	cfg.DataSource.TimeoutSec = 30
	cfg.Calendar.Source = ProviderTushare
	cfg.Calendar.Exchange = "SSE"
	cfg.Calendar.CloseAt = "15:00"
	cfg.Calendar.RangeMonths = 3
	cfg.Detection.LookbackPeriod = 48
	cfg.Detection.MinTouch = 3
	cfg.Detection.Tolerance = 10
	cfg.Schedule.ReportCron = "0 5 15 * * 1-5"
	cfg.Chart.Width = "1200px"
	cfg.Chart.Height = "600px"
	cfg.Chart.Theme = "white"
	cfg.Chart.Telegram = true
	cfg.Log.Level = "info"
	cfg.Log.Console = true
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies environment variable
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		env string
		dst *string
	}{
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"DATA_PROVIDER", &c.DataSource.Provider},
		{"TUSHARE_TOKEN", &c.DataSource.Token},
		{"DATA_BASE_URL", &c.DataSource.BaseURL},
		{"SYMBOL", &c.DataSource.Symbol},
		{"INTERVAL", &c.DataSource.Interval},
		{"CSV_PATH", &c.DataSource.CSVPath},
		{"CRON_REPORT", &c.Schedule.ReportCron},
		{"CHART_OUTPUT", &c.Chart.Output},
		{"LOG_LEVEL", &c.Log.Level},
		{"HTTPS_PROXY", &c.Proxy},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"LOOKBACK_PERIOD", &c.Detection.LookbackPeriod},
		{"MIN_TOUCH", &c.Detection.MinTouch},
	}
	for _, i := range ints {
		if v := os.Getenv(i.env); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", i.env, err)
			}
			*i.dst = n
		}
	}

	if v := os.Getenv("TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("TOLERANCE: %w", err)
		}
		c.Detection.Tolerance = f
	}
	return nil
}

// Params returns the configured detection parameters.
func (c *Config) Params() model.Params {
	return model.Params{
		LookbackPeriod: c.Detection.LookbackPeriod,
		MinTouch:       c.Detection.MinTouch,
		Tolerance:      c.Detection.Tolerance,
	}
}

// Location resolves the exchange timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data_source.timezone: %w", err)
	}
	return loc, nil
}

// Validate checks the fields needed to run a detection.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderTushare:
		if c.DataSource.Token == "" {
			return fmt.Errorf("data_source.token is required for the tushare provider")
		}
	case ProviderCSV:
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv provider")
		}
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.SkipBarAt != "" {
		if _, err := time.Parse("15:04", c.DataSource.SkipBarAt); err != nil {
			return fmt.Errorf("data_source.skip_bar_at must be HH:MM: %w", err)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Calendar.Source {
	case ProviderTushare:
		if c.DataSource.Token == "" {
			return fmt.Errorf("data_source.token is required for the tushare calendar")
		}
	case "weekday":
	default:
		return fmt.Errorf("calendar.source %q is not supported", c.Calendar.Source)
	}
	if _, err := time.Parse("15:04", c.Calendar.CloseAt); err != nil {
		return fmt.Errorf("calendar.close_at must be HH:MM: %w", err)
	}
	if c.Calendar.RangeMonths <= 0 {
		return fmt.Errorf("calendar.range_months must be positive")
	}

	if err := c.Params().Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateBot additionally checks the Telegram settings the bot needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
		return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	if c.Schedule.ReportCron == "" {
		return fmt.Errorf("schedule.report_cron is required")
	}
	return c.Validate()
}

// Warnings lists detection parameters outside the recommended bounds.
func Warnings(p model.Params) []string {
	var out []string
	if p.LookbackPeriod < MinRecommendedLookback || p.LookbackPeriod > MaxRecommendedLookback {
		out = append(out, fmt.Sprintf("lookback_period %d is outside the recommended %d-%d",
			p.LookbackPeriod, MinRecommendedLookback, MaxRecommendedLookback))
	}
	if p.MinTouch < MinRecommendedMinTouch || p.MinTouch > MaxRecommendedMinTouch {
		out = append(out, fmt.Sprintf("min_touch %d is outside the recommended %d-%d",
			p.MinTouch, MinRecommendedMinTouch, MaxRecommendedMinTouch))
	}
	return out
}
