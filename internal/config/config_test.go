package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

// isolate runs the test in an empty directory so no stray config.yaml is
// picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("FOODGRAM_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.PageSize != 6 || cfg.API.MaxPageSize != 100 {
		t.Errorf("API = %+v, want page size 6, max 100", cfg.API)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if len(cfg.CORS.Origins) != 1 || cfg.CORS.Origins[0] != "*" {
		t.Errorf("CORS.Origins = %v", cfg.CORS.Origins)
	}
	if cfg.Database.Path != "data/foodgram.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FOODGRAM_AUTH_JWT_SECRET", testSecret)
	t.Setenv("FOODGRAM_SERVER_PORT", "9000")
	t.Setenv("FOODGRAM_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("FOODGRAM_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("FOODGRAM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FOODGRAM_LOG_LEVEL", "debug")
	t.Setenv("FOODGRAM_UNKNOWN_THING", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit.Window = %v, want 30s", cfg.RateLimit.Window)
	}
	if got := strings.Join(cfg.CORS.Origins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("CORS.Origins = %v", cfg.CORS.Origins)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)

	content := `
server:
  port: 8888
database:
  path: /tmp/recipes.db
auth:
  jwt_secret: file-secret-long-enough
api:
  page_size: 10
`
	path := filepath.Join(t.TempDir(), "foodgram.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FOODGRAM_SERVER_PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want env value 7000", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/recipes.db" {
		t.Errorf("Database.Path = %q, want file value", cfg.Database.Path)
	}
	if cfg.API.PageSize != 10 {
		t.Errorf("API.PageSize = %d, want 10", cfg.API.PageSize)
	}
	if cfg.Auth.JWTSecret != "file-secret-long-enough" {
		t.Errorf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"FOODGRAM_AUTH_JWT_SECRET": "short"}},
		{"bad port", map[string]string{"FOODGRAM_AUTH_JWT_SECRET": testSecret, "FOODGRAM_SERVER_PORT": "70000"}},
		{"bad level", map[string]string{"FOODGRAM_AUTH_JWT_SECRET": testSecret, "FOODGRAM_LOG_LEVEL": "loud"}},
		{"page size above max", map[string]string{"FOODGRAM_AUTH_JWT_SECRET": testSecret, "FOODGRAM_API_PAGE_SIZE": "500"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want validation failure")
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"FOODGRAM_SERVER_PORT":          "server.port",
		"FOODGRAM_SERVER_WRITE_TIMEOUT": "server.write_timeout",
		"FOODGRAM_RATE_LIMIT_REQUESTS":  "rate_limit.requests",
		"FOODGRAM_API_MAX_PAGE_SIZE":    "api.max_page_size",
		"FOODGRAM_AUTH_JWT_SECRET":      "auth.jwt_secret",
		"FOODGRAM_NOPE":                 "",
		"FOODGRAM_SERVER_":              "",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
