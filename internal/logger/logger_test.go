package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/internal/config"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	id := uuid.New()
	WithSession(log, id).Info("Session started", "story", "voyage_aeon.yaml")
	log.Debug("filtered")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["service"] != ServiceName {
		t.Errorf("Expected service %q, got %v", ServiceName, record["service"])
	}
	if record["session_id"] != id.String() {
		t.Errorf("Expected session_id %s, got %v", id, record["session_id"])
	}
	if record["story"] != "voyage_aeon.yaml" {
		t.Errorf("Expected story attribute, got %v", record["story"])
	}
}

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelDebug})
	log.Debug("Story reloaded", "file", "deep_field.yaml")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "file=deep_field.yaml") {
		t.Errorf("Expected text record with debug level, got %q", out)
	}
}
