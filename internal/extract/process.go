package extract

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Size thresholds controlling how much work is attempted per document.
const (
	largeFileBytes     = 15 * 1024 * 1024 // skip LLM generation above this
	veryLargeFileBytes = 25 * 1024 * 1024 // skip image extraction above this

	// Oversized extracted text is trimmed to head+tail before storage.
	maxStoredTextBytes = 1 << 20
	storedHeadBytes    = 200_000
	storedTailBytes    = 100_000
)

// ErrUnsupportedType is wrapped into errors for extensions with no extractor.
var ErrUnsupportedType = fmt.Errorf("unsupported file type")

var wordRe = regexp.MustCompile(`\b\w+\b`)

// WordCount counts whole words in text.
func WordCount(text string) int {
	return len(wordRe.FindAllString(text, -1))
}

// Process extracts text, images and structure from the file or URL.
// URLs are fetched and parsed as web pages; files dispatch on extension.
func Process(pathOrURL string) (*Result, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return ProcessURL(pathOrURL)
	}

	filename := filepath.Base(pathOrURL)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	info, err := os.Stat(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", pathOrURL, err)
	}

	result := &Result{
		Metadata: Metadata{
			Filename: filename,
			FileType: ext,
			FileSize: info.Size(),
			Status:   "success",
		},
	}

	isLarge := info.Size() > largeFileBytes
	isVeryLarge := info.Size() > veryLargeFileBytes
	if isLarge {
		log.Printf("extract: large file %s (%.1fMB), optimizing processing", filename, float64(info.Size())/1024/1024)
	}

	switch ext {
	case "pdf":
		err = processPDF(pathOrURL, result, isVeryLarge)
	case "docx":
		err = processDOCX(pathOrURL, result, isVeryLarge)
	case "pptx":
		err = processPPTX(pathOrURL, result, isVeryLarge)
	case "txt":
		err = processText(pathOrURL, result)
	case "doc":
		err = fmt.Errorf("%w: legacy .doc is not supported, convert to .docx", ErrUnsupportedType)
	default:
		err = fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
	if err != nil {
		result.Metadata.Status = "error"
		result.Metadata.Error = err.Error()
		return nil, err
	}

	if isLarge {
		result.SkipAI = true
	}

	if len(result.Text) > maxStoredTextBytes {
		log.Printf("extract: truncating stored text from %d bytes", len(result.Text))
		result.Text = headTail(result.Text, storedHeadBytes, storedTailBytes)
	}

	if result.Structured.Title == "" || len(result.Structured.Sections) == 0 {
		result.Structured = Structure(result.Text)
	}
	result.Metadata.WordCount = WordCount(result.Text)

	return result, nil
}

// headTail keeps the beginning and end of oversized text with a marker in
// between, preserving the parts generation cares about most.
func headTail(text string, head, tail int) string {
	if len(text) <= head+tail {
		return text
	}
	return text[:head] + "\n\n[...content truncated...]\n\n" + text[len(text)-tail:]
}
