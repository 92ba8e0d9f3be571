package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   int    `yaml:"port"`
	DBPath string `yaml:"db_path"`
	// Analysis service
	AnalysisServiceURL string        `yaml:"analysis_service_url"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	// HTTP surface
	APIKey      string `yaml:"api_key"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// Output
	ReportDir     string `yaml:"report_dir"`
	PlotCacheSize int    `yaml:"plot_cache_size"`
	LogLevel      string `yaml:"log_level"`
	TUILogPath    string `yaml:"tui_log"`
}

func defaults() *Config {
	return &Config{
		Port:               8750,
		DBPath:             defaultDBPath(),
		AnalysisServiceURL: "http://localhost:8000/api",
		AnalysisTimeout:    120 * time.Second,
		MaxUploadMB:        32,
		ReportDir:          ".",
		PlotCacheSize:      64,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// REGRESS_CONFIG if set, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("REGRESS_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.DBPath = envStr("REGRESS_DB_PATH", cfg.DBPath)
	cfg.AnalysisServiceURL = envStr("ANALYSIS_SERVICE_URL", cfg.AnalysisServiceURL)
	cfg.AnalysisTimeout = envDuration("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.APIKey = envStr("API_KEY", cfg.APIKey)
	cfg.MaxUploadMB = envInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.ReportDir = envStr("REPORT_DIR", cfg.ReportDir)
	cfg.PlotCacheSize = envInt("PLOT_CACHE_SIZE", cfg.PlotCacheSize)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.TUILogPath = envStr("REGRESS_TUI_LOG", cfg.TUILogPath)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// SlogLevel parses LogLevel, falling back to info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("REGRESS_DB_PATH must not be empty")
	}
	u, err := url.Parse(c.AnalysisServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ANALYSIS_SERVICE_URL must be an absolute URL, got %q", c.AnalysisServiceURL)
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive, got %s", c.AnalysisTimeout)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.PlotCacheSize < 1 {
		return fmt.Errorf("PLOT_CACHE_SIZE must be positive, got %d", c.PlotCacheSize)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "regression.db"
	}
	return filepath.Join(home, ".regression", "history.db")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
