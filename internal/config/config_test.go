package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"papercast/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, found, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for %s", path)
	}
	if cfg.LLM.Backend != "groq" {
		t.Fatalf("unexpected default backend: %q", cfg.LLM.Backend)
	}
	if cfg.Workflow.StreamBuffer <= 0 {
		t.Fatal("expected positive default stream buffer")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[llm]
backend = "openai"

[tts]
backend = "none"

[workflow]
stream_buffer = 4
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, found, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected config file to be found")
	}
	if cfg.LLM.Backend != "openai" {
		t.Fatalf("expected backend override, got %q", cfg.LLM.Backend)
	}
	if cfg.TTS.Backend != "none" {
		t.Fatalf("expected tts backend override, got %q", cfg.TTS.Backend)
	}
	if cfg.Workflow.StreamBuffer != 4 {
		t.Fatalf("expected stream buffer override, got %d", cfg.Workflow.StreamBuffer)
	}
	// Untouched sections keep defaults.
	if cfg.TTS.HostVoice == "" {
		t.Fatal("expected default host voice to survive merge")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tts]\nformat = \"flac\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unsupported audio format")
	}
}

func TestEnvOverrideAPIKey(t *testing.T) {
	t.Setenv("PAPERCAST_LLM_API_KEY", "env-key")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", cfg.LLM.APIKey)
	}
}

func TestResolveLLMBackend(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "shared"
	cfg.LLM.Backends = map[string]config.LLMBackend{
		"groq": {Model: "custom-model"},
	}

	backend, err := cfg.ResolveLLMBackend("groq")
	if err != nil {
		t.Fatalf("ResolveLLMBackend failed: %v", err)
	}
	if backend.Model != "custom-model" {
		t.Fatalf("expected model override, got %q", backend.Model)
	}
	if backend.APIKey != "shared" {
		t.Fatalf("expected shared api key, got %q", backend.APIKey)
	}
	if !strings.Contains(backend.BaseURL, "groq.com") {
		t.Fatalf("expected builtin base url, got %q", backend.BaseURL)
	}

	if _, err := cfg.ResolveLLMBackend("bogus"); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	// Empty name falls back to the configured default backend.
	fallback, err := cfg.ResolveLLMBackend("")
	if err != nil {
		t.Fatalf("ResolveLLMBackend fallback failed: %v", err)
	}
	if fallback.Model == "" {
		t.Fatal("expected fallback backend to resolve")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}
