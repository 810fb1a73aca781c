package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/export"
	"github.com/dgallion1/nbview/internal/logging"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Notebook library
	DBPath string

	// Upload limits
	MaxUploadBytes int64
	// Largest image (width*height) rendered from a notebook
	MaxImagePixels int64

	// Rendering
	VegaLite  bool
	CodeStyle string
	TermStyle string

	// Render stats
	StatsWindow time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("NBVIEW_API_KEY"),

		DBPath: envOr("NBVIEW_DB_PATH", "nbview.db"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxImagePixels: envInt64("NBVIEW_MAX_IMAGE_PIXELS", display.DefaultMaxImagePixels),

		VegaLite:  envBool("NBVIEW_VEGA_LITE", false),
		CodeStyle: envOr("NBVIEW_CODE_STYLE", "github"),
		TermStyle: envOr("NBVIEW_TERM_STYLE", "dark"),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		LogLevel: envOr("NBVIEW_LOG_LEVEL", "info"),
		LogFile:  os.Getenv("NBVIEW_LOG_FILE"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = display.DefaultMaxImagePixels
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// ExportOptions returns the exporter settings carried by the config.
func (c Config) ExportOptions() export.Options {
	return export.Options{CodeStyle: c.CodeStyle, TermStyle: c.TermStyle, MaxImagePixels: c.MaxImagePixels}
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NBVIEW_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("NBVIEW_DB_PATH must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("NBVIEW_LOG_LEVEL: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
