package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"ReviewHarvester/internal/config"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{"error", slog.LevelError},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"", slog.LevelDebug},
	}
	for _, tc := range cases {
		if got := levelFromString(tc.in); got != tc.want {
			t.Errorf("levelFromString(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"})
	logger.Debug("hidden")
	logger.Info("run finished", "run_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["msg"] != "run finished" || entry["run_id"] != "abc" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestTextFormatIsDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newWithWriter(&buf, config.LoggingConfig{Level: "info"}).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello k=v") {
		t.Fatalf("unexpected text output: %q", buf.String())
	}
}
