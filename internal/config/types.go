package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// RemoteConfig describes the remote document-processing API. When URL is
// empty, all processing happens locally.
type RemoteConfig struct {
	URL              string `yaml:"url" koanf:"url"`
	APIKey           string `yaml:"api_key" koanf:"api_key"`
	TimeoutShortSec  int    `yaml:"timeout_short_sec" koanf:"timeout_short_sec"`
	TimeoutMediumSec int    `yaml:"timeout_medium_sec" koanf:"timeout_medium_sec"`
	TimeoutLongSec   int    `yaml:"timeout_long_sec" koanf:"timeout_long_sec"`
}

// UploadConfig holds file-upload limits and validation patterns.
type UploadConfig struct {
	Dir             string   `yaml:"dir" koanf:"dir"`
	MaxFileMB       int      `yaml:"max_file_mb" koanf:"max_file_mb"`
	MaxTotalMB      int      `yaml:"max_total_mb" koanf:"max_total_mb"`
	MaxFiles        int      `yaml:"max_files" koanf:"max_files"`
	AllowedPatterns []string `yaml:"allowed_patterns" koanf:"allowed_patterns"`
}

// EditorConfig holds editor-session tuning.
type EditorConfig struct {
	AutosaveDebounceMS int `yaml:"autosave_debounce_ms" koanf:"autosave_debounce_ms"`
	AlertDisplayMS     int `yaml:"alert_display_ms" koanf:"alert_display_ms"`
	AlertMaxVisible    int `yaml:"alert_max_visible" koanf:"alert_max_visible"`
}

// Config is the top-level caserelay configuration, corresponding to .caserelay.yml.
type Config struct {
	Port     int          `yaml:"port" koanf:"port"`
	DataDir  string       `yaml:"data_dir" koanf:"data_dir"`
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	Upload   UploadConfig `yaml:"upload" koanf:"upload"`
	Remote   RemoteConfig `yaml:"remote" koanf:"remote"`
	Editor   EditorConfig `yaml:"editor" koanf:"editor"`
	AllowAll bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
