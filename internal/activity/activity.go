package activity

import "time"

// Action describes what happened.
type Action string

const (
	ActionDocumentUploaded     Action = "document_uploaded"
	ActionCaseStudyGenerated   Action = "case_study_generated"
	ActionCaseStudyRegenerated Action = "case_study_regenerated"
	ActionContentSaved         Action = "content_saved"
	ActionTextImproved         Action = "text_improved"
	ActionCaseStudyExported    Action = "case_study_exported"
)

// Entry is a single activity record.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	DocumentID  string    `json:"document_id,omitempty"`
	CaseStudyID string    `json:"case_study_id,omitempty"`
	Summary     string    `json:"summary"`
	Detail      string    `json:"detail,omitempty"`
}
