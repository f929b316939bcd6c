package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caserelay/caserelay/internal/db"
	"github.com/caserelay/caserelay/internal/extract"
)

// Store manages persistence of documents and their images.
type Store struct {
	db *db.DB
}

// NewStore creates a new document store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create persists a document and its extracted images. Images start
// unselected; selection is driven by the editor afterwards.
func (s *Store) Create(ctx context.Context, doc Document) (*Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.UploadDate = time.Now().UTC()

	extracted := "{}"
	if doc.Extracted != nil {
		data, err := json.Marshal(doc.Extracted)
		if err != nil {
			return nil, fmt.Errorf("encoding extraction result: %w", err)
		}
		extracted = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, original_filename, file_type, file_size, upload_date, extracted_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.OriginalFilename, doc.FileType, doc.FileSize, doc.UploadDate, extracted,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	if doc.Extracted != nil {
		for i, img := range doc.Extracted.Images {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO images (id, document_id, image_id, caption, image_type, image_data, position, selected)
				 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
				uuid.New().String(), doc.ID, img.ID, img.Caption, img.Type, img.Data, i,
			)
			if err != nil {
				return nil, fmt.Errorf("inserting image %s: %w", img.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing document: %w", err)
	}
	return &doc, nil
}

// GetByID retrieves a document, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Document, error) {
	var doc Document
	var extracted string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, original_filename, file_type, file_size, upload_date, extracted_data
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.FileType, &doc.FileSize, &doc.UploadDate, &extracted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	if extracted != "" && extracted != "{}" {
		var res extract.Result
		if err := json.Unmarshal([]byte(extracted), &res); err != nil {
			return nil, fmt.Errorf("decoding extraction result: %w", err)
		}
		doc.Extracted = &res
	}
	return &doc, nil
}

// List returns all documents, most recent first, without extraction payloads.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, original_filename, file_type, file_size, upload_date
		 FROM documents ORDER BY upload_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.OriginalFilename, &d.FileType, &d.FileSize, &d.UploadDate); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Delete removes a document. Images and case studies cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// Images returns a document's images in source order.
func (s *Store) Images(ctx context.Context, documentID string) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, image_id, caption, image_type, image_data, position, selected
		 FROM images WHERE document_id = ? ORDER BY position ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.DocumentID, &img.ImageID, &img.Caption, &img.Type, &img.Data, &img.Position, &img.Selected); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ToggleImage flips an image's selection state and returns the new state.
func (s *Store) ToggleImage(ctx context.Context, documentID, imageID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE images SET selected = 1 - selected WHERE document_id = ? AND image_id = ?`,
		documentID, imageID)
	if err != nil {
		return false, fmt.Errorf("toggling image: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return false, fmt.Errorf("image not found: %s", imageID)
	}

	var selected bool
	err = s.db.QueryRowContext(ctx,
		`SELECT selected FROM images WHERE document_id = ? AND image_id = ?`,
		documentID, imageID).Scan(&selected)
	if err != nil {
		return false, fmt.Errorf("reading image state: %w", err)
	}
	return selected, nil
}

// SetSelection replaces the selection with exactly the given image IDs.
func (s *Store) SetSelection(ctx context.Context, documentID string, imageIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE images SET selected = 0 WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clearing selection: %w", err)
	}
	for _, id := range imageIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE images SET selected = 1 WHERE document_id = ? AND image_id = ?`, documentID, id); err != nil {
			return fmt.Errorf("selecting image %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SelectedImageIDs returns the selected image IDs in source order. The order
// is the document's, never the order the selections were made in.
func (s *Store) SelectedImageIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_id FROM images WHERE document_id = ? AND selected = 1 ORDER BY position ASC`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("listing selected images: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning image id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
