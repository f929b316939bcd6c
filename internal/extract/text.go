package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// processText reads a plain-text file. Invalid UTF-8 is reinterpreted as
// Latin-1 rather than rejected, matching how most exported notes arrive.
func processText(path string, result *Result) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading text file: %w", err)
	}

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		var sb strings.Builder
		sb.Grow(len(data))
		for _, b := range data {
			sb.WriteRune(rune(b))
		}
		text = sb.String()
	}

	result.Text = text
	result.Structured = Structure(text)
	if strings.TrimSpace(result.Text) == "" {
		return fmt.Errorf("text file is empty")
	}
	return nil
}
