package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("expected default model %q, got %q", "gpt-4o", cfg.Model)
	}
	if cfg.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.Upload.MaxFileMB != 100 || cfg.Upload.MaxTotalMB != 200 {
		t.Errorf("unexpected upload limits: %d/%d", cfg.Upload.MaxFileMB, cfg.Upload.MaxTotalMB)
	}
	if cfg.Editor.AutosaveDebounceMS != 2000 {
		t.Errorf("expected 2000ms autosave debounce, got %d", cfg.Editor.AutosaveDebounceMS)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.caserelay.yml")

	original := DefaultConfig()
	original.Provider = ProviderOllama
	original.Model = "llama3"
	original.Port = 8090
	original.Remote.URL = "https://processing.example.com"
	original.Upload.AllowedPatterns = []string{"*.pdf", "*.txt"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.Remote.URL != original.Remote.URL {
		t.Errorf("remote.url: got %q, want %q", loaded.Remote.URL, original.Remote.URL)
	}
	if len(loaded.Upload.AllowedPatterns) != 2 {
		t.Errorf("allowed_patterns length: got %d, want 2", len(loaded.Upload.AllowedPatterns))
	}
	for i, v := range loaded.Upload.AllowedPatterns {
		if v != original.Upload.AllowedPatterns[i] {
			t.Errorf("allowed_patterns[%d]: got %q, want %q", i, v, original.Upload.AllowedPatterns[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	os.Setenv("CASERELAY_PROVIDER", "ollama")
	defer os.Unsetenv("CASERELAY_PROVIDER")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"no patterns", func(c *Config) { c.Upload.AllowedPatterns = nil }},
		{"total below per-file", func(c *Config) { c.Upload.MaxTotalMB = 10 }},
		{"zero debounce", func(c *Config) { c.Editor.AutosaveDebounceMS = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("openai env var: got %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama should need no key, got %q", got)
	}
}
