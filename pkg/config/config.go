package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the collector
type Config struct {
	// XHS session settings
	XHS XHSConfig `yaml:"xhs" json:"xhs"`

	// Collection campaign settings
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Randomized pacing between requests
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Rate limiting for the media download pool
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Scheduled collection settings
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// XHSConfig holds Xiaohongshu session configuration
type XHSConfig struct {
	Cookies   string `yaml:"cookies" json:"cookies"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// APIBase overrides the API endpoint, mainly for tests.
	APIBase string `yaml:"api_base,omitempty" json:"api_base,omitempty"`
}

// CollectionConfig holds campaign-level collection settings
type CollectionConfig struct {
	NotesPerKeyword int    `yaml:"notes_per_keyword" json:"notes_per_keyword"`
	Sort            string `yaml:"sort" json:"sort"`
	NoteType        int    `yaml:"note_type" json:"note_type"`
	SaveMode        string `yaml:"save_mode" json:"save_mode"`

	// Keywords overrides the built-in keyword sets per category when set.
	Keywords map[string][]string `yaml:"keywords" json:"keywords"`

	// UserURLs are profile URLs collected under the known_users category.
	UserURLs []string `yaml:"user_urls" json:"user_urls"`
}

// DelaySeconds is an inclusive delay range expressed in seconds
type DelaySeconds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// MinDuration returns the lower bound as a time.Duration
func (d DelaySeconds) MinDuration() time.Duration {
	return time.Duration(d.Min * float64(time.Second))
}

// MaxDuration returns the upper bound as a time.Duration
func (d DelaySeconds) MaxDuration() time.Duration {
	return time.Duration(d.Max * float64(time.Second))
}

// PacingConfig holds the randomized delay ranges applied between requests
type PacingConfig struct {
	Item     DelaySeconds `yaml:"item" json:"item"`
	Page     DelaySeconds `yaml:"page" json:"page"`
	Keyword  DelaySeconds `yaml:"keyword" json:"keyword"`
	Category DelaySeconds `yaml:"category" json:"category"`
	User     DelaySeconds `yaml:"user" json:"user"`
}

// RateLimitConfig holds rate limiting configuration for media downloads
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
}

// ScheduleConfig holds scheduled collection configuration
type ScheduleConfig struct {
	At             string        `yaml:"at" json:"at"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	KeywordsPerRun int           `yaml:"keywords_per_run" json:"keywords_per_run"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	DataDirectory string `yaml:"data_directory" json:"data_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		XHS: XHSConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
		Collection: CollectionConfig{
			NotesPerKeyword: 30,
			Sort:            "general",
			NoteType:        0,
			SaveMode:        "all",
		},
		Pacing: PacingConfig{
			Item:     DelaySeconds{Min: 1, Max: 3},
			Page:     DelaySeconds{Min: 2, Max: 4},
			Keyword:  DelaySeconds{Min: 3, Max: 8},
			Category: DelaySeconds{Min: 60, Max: 120},
			User:     DelaySeconds{Min: 30, Max: 60},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			RetryAttempts:       3,
		},
		Schedule: ScheduleConfig{
			At:             "03:00",
			PollInterval:   time.Minute,
			KeywordsPerRun: 5,
		},
		Output: OutputConfig{
			DataDirectory: "./data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    500,
			MaxBackups: 3,
			MaxAge:     10,
			Compress:   true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Session credentials
	if cookies := os.Getenv("XHS_COOKIES"); cookies != "" {
		c.XHS.Cookies = cookies
	}
	if userAgent := os.Getenv("XHS_USER_AGENT"); userAgent != "" {
		c.XHS.UserAgent = userAgent
	}

	// Collection settings
	if notes := os.Getenv("XHSCOLLECT_NOTES_PER_KEYWORD"); notes != "" {
		var val int
		fmt.Sscanf(notes, "%d", &val)
		if val > 0 {
			c.Collection.NotesPerKeyword = val
		}
	}
	if saveMode := os.Getenv("XHSCOLLECT_SAVE_MODE"); saveMode != "" {
		c.Collection.SaveMode = saveMode
	}

	// Output directory
	if dataDir := os.Getenv("XHSCOLLECT_DATA_DIR"); dataDir != "" {
		c.Output.DataDirectory = dataDir
	}

	// Concurrent downloads
	if concurrent := os.Getenv("XHSCOLLECT_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	// Schedule
	if at := os.Getenv("XHSCOLLECT_SCHEDULE_AT"); at != "" {
		c.Schedule.At = at
	}
	if perRun := os.Getenv("XHSCOLLECT_KEYWORDS_PER_RUN"); perRun != "" {
		var val int
		fmt.Sscanf(perRun, "%d", &val)
		if val > 0 {
			c.Schedule.KeywordsPerRun = val
		}
	}

	// Logging level
	if logLevel := os.Getenv("XHSCOLLECT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".xhscollect.yaml",
		".xhscollect.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xhscollect", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xhscollect", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xhscollect.yaml"),
		filepath.Join(os.Getenv("HOME"), ".xhscollect.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Session cookies are not
// required here: they may still be resolved from a credential store after
// the config is loaded.
func (c *Config) Validate() error {
	var errs []error

	// Validate collection settings
	if c.Collection.NotesPerKeyword <= 0 {
		errs = append(errs, errors.New("notes per keyword must be positive"))
	}
	validSorts := map[string]bool{
		"general": true, "popularity_descending": true, "time_descending": true,
	}
	if !validSorts[c.Collection.Sort] {
		errs = append(errs, errors.New("invalid sort order"))
	}
	if c.Collection.NoteType < 0 || c.Collection.NoteType > 2 {
		errs = append(errs, errors.New("note type must be 0 (all), 1 (video) or 2 (image)"))
	}
	validSaveModes := map[string]bool{
		"all": true, "excel": true, "media": true,
	}
	if !validSaveModes[c.Collection.SaveMode] {
		errs = append(errs, errors.New("invalid save mode"))
	}

	// Validate pacing ranges
	for name, r := range map[string]DelaySeconds{
		"item":     c.Pacing.Item,
		"page":     c.Pacing.Page,
		"keyword":  c.Pacing.Keyword,
		"category": c.Pacing.Category,
		"user":     c.Pacing.User,
	} {
		if r.Min < 0 {
			errs = append(errs, fmt.Errorf("%s delay minimum cannot be negative", name))
		}
		if r.Max < r.Min {
			errs = append(errs, fmt.Errorf("%s delay maximum must be >= minimum", name))
		}
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate download settings
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}

	// Validate schedule settings
	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		errs = append(errs, errors.New("schedule time must be in HH:MM format"))
	}
	if c.Schedule.PollInterval <= 0 {
		errs = append(errs, errors.New("schedule poll interval must be positive"))
	}
	if c.Schedule.KeywordsPerRun <= 0 {
		errs = append(errs, errors.New("keywords per run must be positive"))
	}

	// Validate output settings
	if c.Output.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookies, ok := flags["cookies"].(string); ok && cookies != "" {
		c.XHS.Cookies = cookies
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if notes, ok := flags["notes-per-keyword"].(int); ok && notes > 0 {
		c.Collection.NotesPerKeyword = notes
	}
	if sort, ok := flags["sort"].(string); ok && sort != "" {
		c.Collection.Sort = sort
	}
	if noteType, ok := flags["note-type"].(int); ok && noteType >= 0 {
		c.Collection.NoteType = noteType
	}
	if saveMode, ok := flags["save"].(string); ok && saveMode != "" {
		c.Collection.SaveMode = saveMode
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if at, ok := flags["at"].(string); ok && at != "" {
		c.Schedule.At = at
	}
	if perRun, ok := flags["keywords-per-run"].(int); ok && perRun > 0 {
		c.Schedule.KeywordsPerRun = perRun
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xhscollect.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
