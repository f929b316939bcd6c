package extract

// ImageData is a single illustration pulled out of a document, carried as
// base64 so it can be stored and inlined without touching the filesystem.
type ImageData struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
	Type    string `json:"type"`
	Data    string `json:"data"`
}

// Section is a heading plus the text that followed it.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StructuredContent is the outline derived from the raw text. The fallback
// generator leans on it when no LLM is available.
type StructuredContent struct {
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	KeyPoints []string  `json:"key_points"`
}

// Metadata describes the processed file and the outcome of processing.
type Metadata struct {
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	FileSize  int64  `json:"file_size"`
	WordCount int    `json:"word_count"`
	PageCount int    `json:"page_count,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Result is everything extracted from one document.
type Result struct {
	Text       string            `json:"text"`
	Images     []ImageData       `json:"images"`
	Structured StructuredContent `json:"structured_content"`
	Metadata   Metadata          `json:"metadata"`

	// SkipAI marks documents too large for LLM generation; the fallback
	// generator is used instead.
	SkipAI bool `json:"skip_ai_processing,omitempty"`
}
