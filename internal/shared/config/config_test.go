package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")

	cfg := load(viper.New())

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.DocStore != "postgres" {
		t.Fatalf("expected docstore postgres, got %q", cfg.DocStore)
	}
	if cfg.LLMProvider != "gemini" || cfg.LLMModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected llm defaults: %s/%s", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Fatalf("expected 120s timeout, got %s", cfg.LLMTimeout)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev-like config")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DOCSTORE", "Firestore")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("PUBLIC_BASE_URL", "https://codm.example/")

	cfg := load(viper.New())

	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
	if cfg.DocStore != "firestore" {
		t.Fatalf("expected firestore, got %q", cfg.DocStore)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Fatalf("expected openai default model, got %q", cfg.LLMModel)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.PublicBaseURL != "https://codm.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}
}

func TestLoadMergesEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=9191\nSCREENSHOT_ARCHIVE=true\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg := load(viper.New(), path, filepath.Join(dir, "missing.env"))

	if cfg.Port != "9191" {
		t.Fatalf("expected port from env file, got %q", cfg.Port)
	}
	if !cfg.ScreenshotArchive {
		t.Fatalf("expected screenshot archive enabled from env file")
	}
}
