package casestudy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caserelay/caserelay/internal/db"
)

// Store manages persistence of case studies.
type Store struct {
	db *db.DB
}

// NewStore creates a new case-study store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create persists a new case study.
func (s *Store) Create(ctx context.Context, cs CaseStudy) (*CaseStudy, error) {
	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}
	if cs.Audience == "" {
		cs.Audience = AudienceGeneral
	}
	now := time.Now().UTC()
	cs.CreatedAt = now
	cs.UpdatedAt = now

	keyPoints, err := json.Marshal(orEmpty(cs.Content.KeyPoints))
	if err != nil {
		return nil, fmt.Errorf("encoding key points: %w", err)
	}
	imageIDs, err := json.Marshal(orEmpty(cs.ImageIDs))
	if err != nil {
		return nil, fmt.Errorf("encoding image ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO case_studies (id, document_id, title, audience, challenge, approach, solution, outcomes, summary, key_points, image_ids, html_content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cs.ID, cs.DocumentID, cs.Content.Title, cs.Audience,
		cs.Content.Challenge, cs.Content.Approach, cs.Content.Solution, cs.Content.Outcomes,
		cs.Content.Summary, string(keyPoints), string(imageIDs), cs.HTMLContent, cs.CreatedAt, cs.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting case study: %w", err)
	}
	return &cs, nil
}

const selectColumns = `id, document_id, title, audience, challenge, approach, solution, outcomes, summary, key_points, image_ids, html_content, created_at, updated_at`

func scanCaseStudy(row interface{ Scan(...any) error }) (*CaseStudy, error) {
	var cs CaseStudy
	var keyPoints, imageIDs string
	var htmlContent sql.NullString
	err := row.Scan(&cs.ID, &cs.DocumentID, &cs.Content.Title, &cs.Audience,
		&cs.Content.Challenge, &cs.Content.Approach, &cs.Content.Solution, &cs.Content.Outcomes,
		&cs.Content.Summary, &keyPoints, &imageIDs, &htmlContent, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cs.HTMLContent = htmlContent.String
	if err := json.Unmarshal([]byte(keyPoints), &cs.Content.KeyPoints); err != nil {
		return nil, fmt.Errorf("decoding key points: %w", err)
	}
	if err := json.Unmarshal([]byte(imageIDs), &cs.ImageIDs); err != nil {
		return nil, fmt.Errorf("decoding image ids: %w", err)
	}
	return &cs, nil
}

// GetByID retrieves a case study, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*CaseStudy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM case_studies WHERE id = ?`, id)
	cs, err := scanCaseStudy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting case study: %w", err)
	}
	return cs, nil
}

// LatestForDocument returns the most recent case study for a document.
func (s *Store) LatestForDocument(ctx context.Context, documentID string) (*CaseStudy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM case_studies WHERE document_id = ? ORDER BY updated_at DESC LIMIT 1`,
		documentID)
	cs, err := scanCaseStudy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting case study: %w", err)
	}
	return cs, nil
}

// UpdateContent replaces the narrative sections and audience of a case study.
func (s *Store) UpdateContent(ctx context.Context, id, audience string, content Content) error {
	keyPoints, err := json.Marshal(orEmpty(content.KeyPoints))
	if err != nil {
		return fmt.Errorf("encoding key points: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE case_studies SET title = ?, audience = ?, challenge = ?, approach = ?, solution = ?, outcomes = ?, summary = ?, key_points = ?, updated_at = ?
		 WHERE id = ?`,
		content.Title, audience, content.Challenge, content.Approach, content.Solution, content.Outcomes,
		content.Summary, string(keyPoints), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating case study: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("case study not found: %s", id)
	}
	return nil
}

// SaveContent stores the editor's current HTML content. This is the sink
// behind the autosave debouncer.
func (s *Store) SaveContent(ctx context.Context, id, htmlContent string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE case_studies SET html_content = ?, updated_at = ? WHERE id = ?`,
		htmlContent, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("case study not found: %s", id)
	}
	return nil
}

// SetImageIDs stores the selected image IDs for a case study.
func (s *Store) SetImageIDs(ctx context.Context, id string, imageIDs []string) error {
	data, err := json.Marshal(orEmpty(imageIDs))
	if err != nil {
		return fmt.Errorf("encoding image ids: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE case_studies SET image_ids = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating image ids: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("case study not found: %s", id)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
