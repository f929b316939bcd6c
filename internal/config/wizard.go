package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .caserelay.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to caserelay! Let's configure your installation.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	defaultModel := "gpt-4o"
	if cfg.Provider == ProviderOllama {
		defaultModel = "llama3"
	}
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModel,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model prompt: %w", err)
	}
	cfg.Model = model

	// Warn early if the provider needs a key that is not set.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("Note: %s is not set. AI generation will fall back to basic extraction until it is.\n", envVar)
	}

	// 3. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 4. Remote processing API (optional).
	remotePrompt := promptui.Prompt{
		Label:   "Remote processing API URL (empty for local-only processing)",
		Default: "",
	}
	remoteURL, err := remotePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("remote URL prompt: %w", err)
	}
	cfg.Remote.URL = remoteURL

	// 5. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir prompt: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(".caserelay.yml"); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Configuration saved to .caserelay.yml")
	fmt.Println("Run `caserelay server` to start the server.")

	return cfg, nil
}
