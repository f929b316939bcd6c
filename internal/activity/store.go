package activity

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caserelay/caserelay/internal/db"
)

// Store provides persistence for activity entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new activity entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_entries (id, timestamp, action, document_id, case_study_id, summary, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, string(entry.Action),
		entry.DocumentID, entry.CaseStudyID, entry.Summary, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Record is a fire-and-forget Log used from request handlers, where an
// activity write must never fail the operation it describes.
func (s *Store) Record(ctx context.Context, action Action, documentID, caseStudyID, summary string) {
	err := s.Log(ctx, Entry{
		Action:      action,
		DocumentID:  documentID,
		CaseStudyID: caseStudyID,
		Summary:     summary,
	})
	if err != nil {
		log.Printf("activity: recording %s: %v", action, err)
	}
}

// QueryFilter controls which activity entries are returned by Query.
type QueryFilter struct {
	Action      Action
	DocumentID  string
	CaseStudyID string
	Since       *time.Time
	Limit       int
	Offset      int
}

// Query returns activity entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.DocumentID != "" {
		clauses = append(clauses, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.CaseStudyID != "" {
		clauses = append(clauses, "case_study_id = ?")
		args = append(args, filter.CaseStudyID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := "SELECT id, timestamp, action, document_id, case_study_id, summary, detail FROM activity_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.DocumentID, &e.CaseStudyID, &e.Summary, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries older than the given time, returning how many
// were deleted.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activity_entries WHERE timestamp < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting old activity entries: %w", err)
	}
	return res.RowsAffected()
}
