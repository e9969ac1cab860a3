package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Scan        ScanConfig      `toml:"scan"`
	FMP         FMPConfig       `toml:"fmp"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Telegram    TelegramConfig  `toml:"telegram"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format"` // "json" or "text"
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

// SchedulerConfig controls the cron-driven scan and retry jobs
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	ScanSchedule  string `toml:"scan_schedule"`  // Cron schedule for the daily scan
	RetrySchedule string `toml:"retry_schedule"` // Cron schedule for the pending-queue retry
}

// ScanConfig controls the scan/retry orchestration behavior
type ScanConfig struct {
	LookbackDays   int     `toml:"lookback_days" validate:"gte=1"`     // Window length in days
	ScanOffsetDays int     `toml:"scan_offset_days" validate:"gte=0"`  // Shift window into the past for transcript lag
	MinMarketCap   float64 `toml:"min_market_cap" validate:"gte=0"`    // Server-side calendar filter
	MaxSymbols     int     `toml:"max_symbols" validate:"gte=1"`       // Cap on candidates analyzed per cycle
	BatchSize      int     `toml:"batch_size" validate:"gte=1"`        // Results per progress notification
	AnalysisDelay  string  `toml:"analysis_delay"`                     // Delay between analysis calls, e.g. "20s"
	PreviewLimit   int     `toml:"preview_limit" validate:"gte=1"`     // Max tickers listed in the announce message
	RetentionDays  int     `toml:"retention_days" validate:"gte=1"`    // Pending-item lifetime relative to event date
	SkipDedup      bool    `toml:"skip_dedup"`                         // Disable the already-analyzed filter (testing)
}

// FMPConfig contains Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // Requests per second
	Timeout   string `toml:"timeout"`    // HTTP timeout as duration string
}

// AnalysisConfig contains the earnings-analysis service configuration
type AnalysisConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"` // Long timeout, historical queries are slow (default: "10m")
}

// TelegramConfig contains Telegram Bot API configuration
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
	Timeout  string `toml:"timeout"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in specto.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			ScanSchedule:  "0 7 * * *",  // Daily, after transcript providers catch up overnight
			RetrySchedule: "30 */4 * * *",
		},
		Scan: ScanConfig{
			LookbackDays:   3,
			ScanOffsetDays: 2,               // Transcript ingestion typically lags the call by ~2 days
			MinMarketCap:   2_000_000_000,   // Small caps rarely have transcripts at all
			MaxSymbols:     30,
			BatchSize:      5,
			AnalysisDelay:  "20s",
			PreviewLimit:   20,
			RetentionDays:  30,
		},
		FMP: FMPConfig{
			BaseURL:   "https://financialmodelingprep.com/api/v3",
			RateLimit: 5,
			Timeout:   "30s",
		},
		Analysis: AnalysisConfig{
			Timeout: "10m",
		},
		Telegram: TelegramConfig{
			Timeout: "15s",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration using go-playground/validator tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SPECTO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SPECTO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SPECTO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SPECTO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SPECTO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SPECTO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SPECTO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("SPECTO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("SPECTO_SCAN_SCHEDULE"); schedule != "" {
		config.Scheduler.ScanSchedule = schedule
	}
	if schedule := os.Getenv("SPECTO_RETRY_SCHEDULE"); schedule != "" {
		config.Scheduler.RetrySchedule = schedule
	}

	// Scan configuration
	if days := os.Getenv("SPECTO_SCAN_LOOKBACK_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Scan.LookbackDays = d
		}
	}
	if days := os.Getenv("SPECTO_SCAN_OFFSET_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Scan.ScanOffsetDays = d
		}
	}
	if cap := os.Getenv("SPECTO_SCAN_MIN_MARKET_CAP"); cap != "" {
		if c, err := strconv.ParseFloat(cap, 64); err == nil {
			config.Scan.MinMarketCap = c
		}
	}
	if max := os.Getenv("SPECTO_SCAN_MAX_SYMBOLS"); max != "" {
		if m, err := strconv.Atoi(max); err == nil {
			config.Scan.MaxSymbols = m
		}
	}
	if size := os.Getenv("SPECTO_SCAN_BATCH_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Scan.BatchSize = s
		}
	}
	if delay := os.Getenv("SPECTO_SCAN_ANALYSIS_DELAY"); delay != "" {
		if _, err := time.ParseDuration(delay); err == nil {
			config.Scan.AnalysisDelay = delay
		}
	}
	if days := os.Getenv("SPECTO_SCAN_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Scan.RetentionDays = d
		}
	}

	// FMP configuration (standard env var first, SPECTO_ prefix takes priority)
	if apiKey := os.Getenv("FMP_API_KEY"); apiKey != "" {
		config.FMP.APIKey = apiKey
	}
	if apiKey := os.Getenv("SPECTO_FMP_API_KEY"); apiKey != "" {
		config.FMP.APIKey = apiKey
	}
	if baseURL := os.Getenv("SPECTO_FMP_BASE_URL"); baseURL != "" {
		config.FMP.BaseURL = baseURL
	}

	// Analysis service configuration
	if baseURL := os.Getenv("SPECTO_ANALYSIS_BASE_URL"); baseURL != "" {
		config.Analysis.BaseURL = baseURL
	}
	if timeout := os.Getenv("SPECTO_ANALYSIS_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Analysis.Timeout = timeout
		}
	}

	// Telegram configuration
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if token := os.Getenv("SPECTO_TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if chatID := os.Getenv("SPECTO_TELEGRAM_CHAT_ID"); chatID != "" {
		config.Telegram.ChatID = chatID
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// AnalysisDelay returns the inter-event analysis delay.
func (c *ScanConfig) Delay() time.Duration {
	return parseDurationOr(c.AnalysisDelay, 20*time.Second)
}

// HTTPTimeout returns the FMP request timeout.
func (c *FMPConfig) HTTPTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// HTTPTimeout returns the analysis request timeout. Historical transcript
// queries can run for minutes, so the default is long.
func (c *AnalysisConfig) HTTPTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 10*time.Minute)
}

// HTTPTimeout returns the Telegram request timeout.
func (c *TelegramConfig) HTTPTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
