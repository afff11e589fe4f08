package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	if cfg.Ingest.ReviewPolicy != "watermark-stop" {
		t.Fatalf("unexpected default policy: %s", cfg.Ingest.ReviewPolicy)
	}
	if cfg.Feed.Pages != 5 || cfg.Feed.ProductLimit != 4 {
		t.Fatalf("unexpected feed defaults: %+v", cfg.Feed)
	}
	if !cfg.Analysis.SkipAnalyzedReviews() {
		t.Fatal("skipAnalyzed should default to true")
	}
	if cfg.Analysis.BatchSize != 20 {
		t.Fatalf("unexpected analysis batch size: %d", cfg.Analysis.BatchSize)
	}
	for _, stage := range []string{"ingest", "normalize", "analyze"} {
		if !cfg.Pipeline.StageEnabled(stage) {
			t.Fatalf("stage %s should be enabled by default", stage)
		}
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
database:
  driver: sqlite
  dsn: file:reviews.db
feed:
  pages: 2
  timeout: 3s
ingest:
  reviewPolicy: per-record
analysis:
  exclude: ["별로예요"]
  skipAnalyzed: false
pipeline:
  stages: [ingest]
scheduler:
  timezone: UTC
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "file:override.db")
	t.Setenv(chatGPTAPIKeyEnv, "sk-test")

	cfg := Load()

	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:override.db" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Feed.Pages != 2 || cfg.Feed.Timeout != 3*time.Second {
		t.Fatalf("unexpected feed config: %+v", cfg.Feed)
	}
	if cfg.Feed.ProductLimit != 4 {
		t.Fatalf("product limit should keep its default, got %d", cfg.Feed.ProductLimit)
	}
	if cfg.Ingest.ReviewPolicy != "per-record" {
		t.Fatalf("unexpected policy: %s", cfg.Ingest.ReviewPolicy)
	}
	if len(cfg.Analysis.Exclude) != 1 || cfg.Analysis.SkipAnalyzedReviews() {
		t.Fatalf("unexpected analysis config: %+v", cfg.Analysis)
	}
	if cfg.Pipeline.StageEnabled("analyze") {
		t.Fatal("analyze stage should be disabled")
	}
	if cfg.ChatGPT.APIKey != "sk-test" {
		t.Fatalf("api key override not applied")
	}
	if cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unexpected location: %v", cfg.Scheduler.Location())
	}
}
