package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Search    SearchConfig    `mapstructure:"search"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Research  ResearchConfig  `mapstructure:"research"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// SearchConfig holds the web search provider used by active search
type SearchConfig struct {
	Provider        string        `mapstructure:"provider"` // tavily or none
	TavilyAPIKey    string        `mapstructure:"tavily_api_key"`
	MaxResults      int           `mapstructure:"max_results"`
	EnrichBelow     int           `mapstructure:"enrich_below"` // fetch page text when snippet is shorter
	EnrichTimeout   time.Duration `mapstructure:"enrich_timeout"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
	Cache           CacheConfig   `mapstructure:"cache"`
}

// CacheConfig holds the optional Redis cache for search results
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// SessionsConfig holds the on-disk layout of session artifacts
type SessionsConfig struct {
	Root      string `mapstructure:"root"`       // <root>/<session_id>/...
	FilesRoot string `mapstructure:"files_root"` // <files_root>/<session_id>/<screenshot>.png
}

// StorageConfig selects the step store backend
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // file or sqlite
	DSN    string `mapstructure:"dsn"`
}

// GeneratorConfig holds CPL generator settings
type GeneratorConfig struct {
	Language            string `mapstructure:"language"`
	MaxSearchIterations int    `mapstructure:"max_search_iterations"`
	SystemVersion       string `mapstructure:"system_version"`
}

// CaptureConfig holds viral screenshot capture settings
type CaptureConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxCaptures      int           `mapstructure:"max_captures"`
	MaxCandidates    int           `mapstructure:"max_candidates"`
	MinBytes         int64         `mapstructure:"min_bytes"`
	ChromePath       string        `mapstructure:"chrome_path"`
	WindowWidth      int           `mapstructure:"window_width"`
	WindowHeight     int           `mapstructure:"window_height"`
	BodyTimeout      time.Duration `mapstructure:"body_timeout"`
	PageSettle       time.Duration `mapstructure:"page_settle"`
	ClickTimeout     time.Duration `mapstructure:"click_timeout"`
	ModalTimeout     time.Duration `mapstructure:"modal_timeout"`
	ModalSettle      time.Duration `mapstructure:"modal_settle"`
	SelectorsFile    string        `mapstructure:"selectors_file"`
	ScreenshotFormat string        `mapstructure:"screenshot_format"`
}

// ResearchConfig holds RSS research sources
type ResearchConfig struct {
	Feeds       []RSSFeed `mapstructure:"feeds"`
	MaxAgeHours int       `mapstructure:"max_age_hours"`
}

// RSSFeed represents a single RSS feed
type RSSFeed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	ViralSweepCron string `mapstructure:"viral_sweep_cron"`
	SearchQuery    string `mapstructure:"search_query"`
	HealthPort     string `mapstructure:"health_port"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	SearchRequestsPerMinute    int `mapstructure:"search_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// TrackerConfig holds Google Sheets tracker settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// MetricsConfig holds prometheus settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".cpl-agent"))
		}
	}

	v.SetEnvPrefix("CPL")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "CPL_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "CPL_ANTHROPIC_MODEL")
	v.BindEnv("search.tavily_api_key", "CPL_SEARCH_TAVILY_API_KEY", "TAVILY_API_KEY")
	v.BindEnv("search.cache.redis_addr", "CPL_SEARCH_CACHE_REDIS_ADDR")
	v.BindEnv("sessions.root", "CPL_SESSIONS_ROOT")
	v.BindEnv("sessions.files_root", "CPL_SESSIONS_FILES_ROOT")
	v.BindEnv("storage.driver", "CPL_STORAGE_DRIVER")
	v.BindEnv("storage.dsn", "CPL_STORAGE_DSN")
	v.BindEnv("capture.chrome_path", "CPL_CAPTURE_CHROME_PATH")
	v.BindEnv("tracker.enabled", "CPL_TRACKER_ENABLED")
	v.BindEnv("tracker.spreadsheet_id", "CPL_TRACKER_SPREADSHEET_ID")
	v.BindEnv("tracker.credentials_file", "CPL_TRACKER_CREDENTIALS_FILE")
	v.BindEnv("tracker.service_account_json", "CPL_TRACKER_SERVICE_ACCOUNT_JSON")
	v.BindEnv("scheduler.health_port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 16000)
	v.SetDefault("anthropic.temperature", 0.7)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.enrich_below", 500)
	v.SetDefault("search.enrich_timeout", "30s")
	v.SetDefault("search.max_content_chars", 5000)
	v.SetDefault("search.cache.enabled", false)
	v.SetDefault("search.cache.ttl", "24h")

	v.SetDefault("sessions.root", "analyses_data")
	v.SetDefault("sessions.files_root", "analyses_data/files")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dsn", "./analyses_data/steps.db")

	v.SetDefault("generator.language", "Brazilian Portuguese")
	v.SetDefault("generator.max_search_iterations", 2)
	v.SetDefault("generator.system_version", "cpl-agent v3.0")

	// Capture defaults follow the page-load budget of the capture state machine
	v.SetDefault("capture.enabled", true)
	v.SetDefault("capture.max_captures", 15)
	v.SetDefault("capture.max_candidates", 20)
	v.SetDefault("capture.min_bytes", 1024)
	v.SetDefault("capture.window_width", 1920)
	v.SetDefault("capture.window_height", 1080)
	v.SetDefault("capture.body_timeout", "15s")
	v.SetDefault("capture.page_settle", "3s")
	v.SetDefault("capture.click_timeout", "5s")
	v.SetDefault("capture.modal_timeout", "10s")
	v.SetDefault("capture.modal_settle", "2s")

	v.SetDefault("research.max_age_hours", 24*7)

	v.SetDefault("scheduler.viral_sweep_cron", "*/15 * * * *")
	v.SetDefault("scheduler.health_port", "10000")

	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.search_requests_per_minute", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "CPL")

	v.SetDefault("metrics.enabled", true)
}

// Validate validates the configuration needed by the CPL generator
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.Search.Provider == "tavily" && c.Search.TavilyAPIKey == "" {
		return fmt.Errorf("search.tavily_api_key is required when search.provider is tavily")
	}
	if c.Storage.Driver != "file" && c.Storage.Driver != "sqlite" {
		return fmt.Errorf("storage.driver must be file or sqlite, got %q", c.Storage.Driver)
	}
	return nil
}
