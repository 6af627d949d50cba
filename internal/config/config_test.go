package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ubreader/internal/transform"
)

var envVars = []string{
	"CONTENT_DIR", "INDEX_PATH", "DB_PATH", "API_PORT", "READER_BASE_URL",
	"FRONTMATTER_MODE", "WATCH_CONTENT", "BUILD_CONCURRENCY", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every config variable for the test and moves into an empty
// directory so no .env file is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "default values for optional fields",
			checkConfig: func(cfg *Config) bool {
				return cfg.ContentDir == "" &&
					cfg.IndexPath == "./data/search-index.json" &&
					cfg.DBPath == "./data/ubreader.db" &&
					cfg.APIPort == "9000" &&
					cfg.ReaderBaseURL == "/reader" &&
					cfg.FrontmatterMode == transform.FrontmatterFlat &&
					!cfg.WatchContent &&
					cfg.BuildConcurrency == 4 &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text"
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"CONTENT_DIR":       "/srv/content",
				"API_PORT":          "8080",
				"READER_BASE_URL":   "/books",
				"FRONTMATTER_MODE":  "YAML",
				"WATCH_CONTENT":     "true",
				"BUILD_CONCURRENCY": "8",
				"LOG_LEVEL":         "debug",
				"LOG_FORMAT":        "JSON",
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.ContentDir == "/srv/content" &&
					cfg.APIPort == "8080" &&
					cfg.ReaderBaseURL == "/books" &&
					cfg.FrontmatterMode == transform.FrontmatterYAML &&
					cfg.WatchContent &&
					cfg.BuildConcurrency == 8 &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json"
			},
		},
		{name: "invalid FRONTMATTER_MODE", env: map[string]string{"FRONTMATTER_MODE": "toml"}, wantErr: true},
		{name: "invalid WATCH_CONTENT", env: map[string]string{"WATCH_CONTENT": "sometimes"}, wantErr: true},
		{name: "invalid BUILD_CONCURRENCY", env: map[string]string{"BUILD_CONCURRENCY": "many"}, wantErr: true},
		{name: "zero BUILD_CONCURRENCY", env: map[string]string{"BUILD_CONCURRENCY": "0"}, wantErr: true},
		{name: "invalid LOG_LEVEL", env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
		{name: "invalid LOG_FORMAT", env: map[string]string{"LOG_FORMAT": "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_DotEnvFromParent(t *testing.T) {
	clearEnv(t)

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("API_PORT=7777\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	nested := filepath.Join(root, "cmd", "api")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	t.Chdir(nested)
	// godotenv sets variables directly; register the key so it is restored.
	t.Setenv("API_PORT", "")
	if err := os.Unsetenv("API_PORT"); err != nil {
		t.Fatalf("Unsetenv() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7777" {
		t.Errorf("APIPort = %q, want value from parent .env", cfg.APIPort)
	}
}

func TestRequireContentDir(t *testing.T) {
	dataDir := t.TempDir()
	content := t.TempDir()
	file := filepath.Join(content, "file.md")
	if err := os.WriteFile(file, []byte("# x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name       string
		contentDir string
		wantErr    bool
	}{
		{name: "existing directory", contentDir: content},
		{name: "missing", contentDir: "", wantErr: true},
		{name: "does not exist", contentDir: filepath.Join(content, "nope"), wantErr: true},
		{name: "not a directory", contentDir: file, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ContentDir: tt.contentDir,
				IndexPath:  filepath.Join(dataDir, tt.name, "index", "search-index.json"),
				DBPath:     filepath.Join(dataDir, tt.name, "db", "ubreader.db"),
			}
			err := cfg.RequireContentDir()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireContentDir() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for _, path := range []string{cfg.IndexPath, cfg.DBPath} {
				if _, err := os.Stat(filepath.Dir(path)); err != nil {
					t.Errorf("RequireContentDir() should create %s: %v", filepath.Dir(path), err)
				}
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: `"msg":"hello"`},
		{format: "text", want: "msg=hello"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &Config{LogFormat: tt.format, LogLevel: slog.LevelWarn}
			logger := cfg.NewLogger(&buf)

			logger.Info("hidden")
			logger.Warn("hello")

			if strings.Contains(buf.String(), "hidden") {
				t.Errorf("logger wrote below its level: %s", buf.String())
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", "TEST_ENV_VAR", tt.defaultValue, got, tt.want)
			}
		})
	}
}
