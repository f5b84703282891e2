package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

func TestApplyYAMLOverlayEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lvflow.yaml")
	body := "LVFLOW_TEST_GROUP_CONCURRENCY: 8\nlvflow_test_archive_dir: /srv/pdfs\nLVFLOW_TEST_LOG_MODE: production\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LVFLOW_TEST_LOG_MODE", "test")
	t.Cleanup(func() {
		_ = os.Unsetenv("LVFLOW_TEST_GROUP_CONCURRENCY")
		_ = os.Unsetenv("LVFLOW_TEST_ARCHIVE_DIR")
	})

	if err := applyYAMLOverlay(path); err != nil {
		t.Fatalf("applyYAMLOverlay: %v", err)
	}
	if got := os.Getenv("LVFLOW_TEST_GROUP_CONCURRENCY"); got != "8" {
		t.Fatalf("concurrency: got %q", got)
	}
	if got := os.Getenv("LVFLOW_TEST_ARCHIVE_DIR"); got != "/srv/pdfs" {
		t.Fatalf("archive dir: got %q", got)
	}
	if got := os.Getenv("LVFLOW_TEST_LOG_MODE"); got != "test" {
		t.Fatalf("env should win over yaml, got %q", got)
	}
}

func TestApplyYAMLOverlayErrors(t *testing.T) {
	if err := applyYAMLOverlay(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("- just\n- a list\n"), 0o644)
	if err := applyYAMLOverlay(path); err == nil {
		t.Fatalf("expected error for non-mapping yaml")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("INGEST_GROUP_CONCURRENCY", "6")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JOB_RETENTION", "2h")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := LoadConfig()
	if cfg.GroupConcurrency != 6 || cfg.DB.Driver != "sqlite" || cfg.JobRetention != 2*time.Hour {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("provider: got %q", cfg.LLM.Provider)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.Archive.Dir != "data/pdfs" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestExtractorFactoryFailsPerRunWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	factory := extractorFactory(logger.Nop(), LLMConfig{Provider: "openai"})
	for i := 0; i < 2; i++ {
		if _, err := factory(context.Background()); err == nil {
			t.Fatalf("call %d: expected missing key error", i)
		}
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	ex, err := factory(context.Background())
	if err != nil || ex == nil {
		t.Fatalf("expected extractor once the key is set: %v", err)
	}
	again, _ := factory(context.Background())
	if again != ex {
		t.Fatalf("expected cached extractor")
	}
}

func TestNewCompleterUnknownProvider(t *testing.T) {
	if _, err := newCompleter(context.Background(), logger.Nop(), LLMConfig{Provider: "mystery"}); err == nil {
		t.Fatalf("expected error")
	}
}
