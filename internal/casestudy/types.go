package casestudy

import "time"

// Audience values the generator tailors its narrative for.
const (
	AudienceGeneral   = "general"
	AudienceExecutive = "executive"
	AudienceTechnical = "technical"
	AudienceMarketing = "marketing"
)

// ValidAudience reports whether audience is one of the supported values.
func ValidAudience(audience string) bool {
	switch audience {
	case AudienceGeneral, AudienceExecutive, AudienceTechnical, AudienceMarketing:
		return true
	}
	return false
}

// Content holds the narrative sections of a case study. It is both the
// generator's output shape and the JSON format the model is asked for.
type Content struct {
	Title     string   `json:"title"`
	Challenge string   `json:"challenge"`
	Approach  string   `json:"approach"`
	Solution  string   `json:"solution"`
	Outcomes  string   `json:"outcomes"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// CaseStudy is a persisted case study tied to its source document.
type CaseStudy struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Audience    string    `json:"audience"`
	Content     Content   `json:"case_study"`
	ImageIDs    []string  `json:"image_ids"`
	HTMLContent string    `json:"html_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImprovementType values accepted by the text improvement endpoint.
const (
	ImproveDefault  = "improve"
	ImproveSimplify = "simplify"
	ImproveExtend   = "extend"
)

// MinImproveLength is the shortest selection (in runes, after trimming)
// the improvement endpoint accepts. Shorter fragments produce rewrites with
// no anchor in the surrounding text.
const MinImproveLength = 10
