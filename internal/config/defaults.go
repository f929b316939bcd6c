package config

// DefaultAllowedPatterns are the upload filename patterns accepted by default.
var DefaultAllowedPatterns = []string{
	"*.pdf",
	"*.doc",
	"*.docx",
	"*.pptx",
	"*.txt",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:     5000,
		DataDir:  "data",
		Provider: ProviderOpenAI,
		Model:    "gpt-4o",
		Upload: UploadConfig{
			Dir:             "uploads",
			MaxFileMB:       100,
			MaxTotalMB:      200,
			MaxFiles:        10,
			AllowedPatterns: DefaultAllowedPatterns,
		},
		Remote: RemoteConfig{
			TimeoutShortSec:  30,
			TimeoutMediumSec: 120,
			TimeoutLongSec:   300,
		},
		Editor: EditorConfig{
			AutosaveDebounceMS: 2000,
			AlertDisplayMS:     5000,
			AlertMaxVisible:    5,
		},
	}
}
