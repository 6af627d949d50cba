package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ubreader/internal/transform"
)

// Config holds all configuration for the application.
type Config struct {
	ContentDir       string
	IndexPath        string
	DBPath           string
	APIPort          string
	ReaderBaseURL    string
	FrontmatterMode  transform.FrontmatterMode
	WatchContent     bool
	BuildConcurrency int
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the values that are set.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		ContentDir:    getEnv("CONTENT_DIR", ""),
		IndexPath:     getEnv("INDEX_PATH", "./data/search-index.json"),
		DBPath:        getEnv("DB_PATH", "./data/ubreader.db"),
		APIPort:       getEnv("API_PORT", "9000"),
		ReaderBaseURL: getEnv("READER_BASE_URL", "/reader"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	mode, err := transform.ParseFrontmatterMode(getEnv("FRONTMATTER_MODE", "flat"))
	if err != nil {
		return nil, fmt.Errorf("FRONTMATTER_MODE: %w", err)
	}
	cfg.FrontmatterMode = mode

	watch, err := strconv.ParseBool(getEnv("WATCH_CONTENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("WATCH_CONTENT must be a boolean: %w", err)
	}
	cfg.WatchContent = watch

	concurrency, err := strconv.Atoi(getEnv("BUILD_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("BUILD_CONCURRENCY must be a valid integer: %w", err)
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("BUILD_CONCURRENCY must be greater than 0")
	}
	cfg.BuildConcurrency = concurrency

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// RequireContentDir checks that CONTENT_DIR names an existing directory and
// creates the data directories for the index file and database.
func (c *Config) RequireContentDir() error {
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR is required")
	}
	info, err := os.Stat(c.ContentDir)
	if err != nil {
		return fmt.Errorf("CONTENT_DIR: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("CONTENT_DIR %s is not a directory", c.ContentDir)
	}

	for _, path := range []string{c.IndexPath, c.DBPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadDotEnv loads .env from the working directory, then from the nearest
// parent that has one. Neither file is required.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
