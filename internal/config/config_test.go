package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "STORIES_DIR", "DEFAULT_STORY", "SESSION_TTL", "WATCH_STORIES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected development, got %s", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("Expected localhost:6379, got %s", cfg.RedisURL)
	}
	if cfg.StoriesDir != "./data/stories" {
		t.Errorf("Expected ./data/stories, got %s", cfg.StoriesDir)
	}
	if cfg.DefaultStory != "voyage_aeon.yaml" {
		t.Errorf("Expected voyage_aeon.yaml, got %s", cfg.DefaultStory)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("Expected 1h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.WatchStories {
		t.Error("Expected story watching off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("WATCH_STORIES", "true")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("Expected 15m TTL, got %v", cfg.SessionTTL)
	}
	if !cfg.WatchStories {
		t.Error("Expected story watching on")
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("Expected warn level, got %v", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable ttl", "SESSION_TTL", "soon"},
		{"negative ttl", "SESSION_TTL", "-5m"},
		{"bad bool", "WATCH_STORIES", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
