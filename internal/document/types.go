package document

import (
	"time"

	"github.com/caserelay/caserelay/internal/extract"
)

// Document is an uploaded source document after extraction. ExtractedData
// carries the full extraction result as stored JSON.
type Document struct {
	ID               string          `json:"id"`
	Filename         string          `json:"filename"`
	OriginalFilename string          `json:"original_filename"`
	FileType         string          `json:"file_type"`
	FileSize         int64           `json:"file_size"`
	UploadDate       time.Time       `json:"upload_date"`
	Extracted        *extract.Result `json:"extracted_data,omitempty"`
}

// Image is a stored document image with its selection state. Position is the
// image's order of appearance in the source document; selection listings keep
// that order regardless of the order toggles arrived in.
type Image struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ImageID    string `json:"image_id"`
	Caption    string `json:"caption"`
	Type       string `json:"image_type"`
	Data       string `json:"image_data"`
	Position   int    `json:"position"`
	Selected   bool   `json:"selected"`
}

// ProcessingPhase values reported over the status stream while an upload is
// being extracted and turned into a draft.
const (
	PhaseQueued     = "queued"
	PhaseExtracting = "extracting"
	PhaseGenerating = "generating"
	PhaseCompleted  = "completed"
	PhaseFailed     = "failed"
)

// StatusUpdate is one progress event for an upload job.
type StatusUpdate struct {
	JobID    string `json:"job_id"`
	Phase    string `json:"phase"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}
