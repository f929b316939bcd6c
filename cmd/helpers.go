package cmd

import (
	"fmt"

	"github.com/caserelay/caserelay/internal/config"
	"github.com/caserelay/caserelay/internal/llm"
)

// createLLMProviderFromConfig creates an LLM provider based on config settings.
// A nil provider with a nil error means no credentials are available; callers
// run with heuristic fallback generation in that case.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `caserelay init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
