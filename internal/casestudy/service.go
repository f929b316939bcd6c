package casestudy

import (
	"context"
	"fmt"

	"github.com/caserelay/caserelay/internal/activity"
	"github.com/caserelay/caserelay/internal/document"
)

// DraftService turns processed documents into stored, editable case-study
// drafts. It satisfies the upload pipeline's generator dependency.
type DraftService struct {
	store    *Store
	docs     *document.Store
	gen      *Generator
	activity *activity.Store
}

// NewDraftService creates a DraftService.
func NewDraftService(store *Store, docs *document.Store, gen *Generator, act *activity.Store) *DraftService {
	return &DraftService{store: store, docs: docs, gen: gen, activity: act}
}

// GenerateDraft generates content for a document, pre-selects its strongest
// images and persists the draft. Returns the new case study's ID.
func (d *DraftService) GenerateDraft(ctx context.Context, doc *document.Document) (string, error) {
	content := d.gen.Generate(ctx, doc.Extracted, AudienceGeneral)

	var imageIDs []string
	if doc.Extracted != nil {
		for _, img := range SelectImages(doc.Extracted.Images, content) {
			imageIDs = append(imageIDs, img.ID)
		}
	}

	html, err := RenderHTML(content)
	if err != nil {
		return "", fmt.Errorf("rendering draft: %w", err)
	}

	cs, err := d.store.Create(ctx, CaseStudy{
		DocumentID:  doc.ID,
		Audience:    AudienceGeneral,
		Content:     content,
		ImageIDs:    imageIDs,
		HTMLContent: html,
	})
	if err != nil {
		return "", err
	}

	if len(imageIDs) > 0 {
		if err := d.docs.SetSelection(ctx, doc.ID, imageIDs); err != nil {
			return "", fmt.Errorf("selecting draft images: %w", err)
		}
	}

	if d.activity != nil {
		d.activity.Record(ctx, activity.ActionCaseStudyGenerated, doc.ID, cs.ID,
			fmt.Sprintf("Generated case study %q", content.Title))
	}
	return cs.ID, nil
}
