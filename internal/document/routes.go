package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caserelay/caserelay/internal/activity"
	"github.com/caserelay/caserelay/internal/config"
	"github.com/caserelay/caserelay/internal/extract"
)

// DraftGenerator turns a stored document into an editable case-study draft.
// Implemented by the casestudy package; decoupled here so uploads do not
// depend on generation internals.
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, doc *Document) (caseStudyID string, err error)
}

// Handler serves the upload and document APIs.
type Handler struct {
	store     *Store
	processor *Processor
	tracker   *StatusTracker
	generator DraftGenerator
	activity  *activity.Store
	cfg       config.UploadConfig
}

// NewHandler creates the document API handler.
func NewHandler(store *Store, processor *Processor, tracker *StatusTracker, generator DraftGenerator, act *activity.Store, cfg config.UploadConfig) *Handler {
	return &Handler{store: store, processor: processor, tracker: tracker, generator: generator, activity: act, cfg: cfg}
}

// RegisterRoutes mounts the document API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/upload", h.handleUpload)
	r.Get("/api/documents", h.handleList)
	r.Route("/api/documents/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDelete)
		r.Get("/images", h.handleImages)
		r.Get("/images/selected", h.handleSelectedImages)
		r.Post("/images/{imageID}/toggle", h.handleToggleImage)
	})
	r.Get("/ws/status", h.tracker.HandleWebSocket)
}

// allowed reports whether the filename matches any configured upload pattern.
func (h *Handler) allowed(filename string) bool {
	name := strings.ToLower(filepath.Base(filename))
	for _, pattern := range h.cfg.AllowedPatterns {
		if ok, err := doublestar.Match(strings.ToLower(pattern), name); err == nil && ok {
			return true
		}
	}
	return false
}

// handleUpload accepts one primary document plus optional supplementary
// documents, extracts them, stores the merged result and kicks off draft
// generation in the background.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxTotal := int64(h.cfg.MaxTotalMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxTotal+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the total size limit")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no documents provided")
		return
	}
	if len(files) > h.cfg.MaxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many files: limit is %d", h.cfg.MaxFiles))
		return
	}

	maxFile := int64(h.cfg.MaxFileMB) << 20
	var total int64
	for _, fh := range files {
		if !h.allowed(fh.Filename) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file type not allowed: %s", fh.Filename))
			return
		}
		if fh.Size > maxFile {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds the %dMB file limit", fh.Filename, h.cfg.MaxFileMB))
			return
		}
		total += fh.Size
	}
	if total > maxTotal {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds the %dMB total limit", h.cfg.MaxTotalMB))
		return
	}

	jobID := uuid.New().String()
	h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseExtracting, Message: "Extracting documents", Progress: 10})

	var results []*extract.Result
	paths := make([]string, 0, len(files))
	defer func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}()

	for i, fh := range files {
		path, err := h.saveUpload(fh)
		if err != nil {
			h.failJob(w, jobID, fmt.Sprintf("saving %s: %v", fh.Filename, err))
			return
		}
		paths = append(paths, path)

		res, err := h.processor.Process(r.Context(), path)
		if err != nil {
			h.failJob(w, jobID, fmt.Sprintf("processing %s: %v", fh.Filename, err))
			return
		}
		results = append(results, res)

		progress := 10 + (50*(i+1))/len(files)
		h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseExtracting,
			Message: fmt.Sprintf("Extracted %s", fh.Filename), Progress: progress})
	}

	merged := Merge(results[0], results[1:])
	primary := files[0]
	doc, err := h.store.Create(r.Context(), Document{
		Filename:         filepath.Base(paths[0]),
		OriginalFilename: primary.Filename,
		FileType:         merged.Metadata.FileType,
		FileSize:         total,
		Extracted:        merged,
	})
	if err != nil {
		h.failJob(w, jobID, "storing document: "+err.Error())
		return
	}

	if h.activity != nil {
		h.activity.Record(r.Context(), activity.ActionDocumentUploaded, doc.ID, "",
			fmt.Sprintf("Uploaded %s (%d files)", primary.Filename, len(files)))
	}

	go h.generate(jobID, doc)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"job_id":      jobID,
		"document_id": doc.ID,
	})
}

// generate runs draft generation in the background, reporting over the
// status stream. Generation outlives the upload request, so it gets its own
// context.
func (h *Handler) generate(jobID string, doc *Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseGenerating, Message: "Generating case study", Progress: 70})

	caseStudyID, err := h.generator.GenerateDraft(ctx, doc)
	if err != nil {
		log.Printf("document: draft generation for %s failed: %v", doc.ID, err)
		h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseFailed, Message: "Generation failed", Error: err.Error()})
		return
	}
	h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseCompleted,
		Message: "Case study ready: " + caseStudyID, Progress: 100})
}

func (h *Handler) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		return "", err
	}
	// Stored names are prefixed with a UUID to avoid collisions while keeping
	// the original extension for the extractor dispatch.
	name := uuid.New().String() + "_" + sanitizeFilename(fh.Filename)
	path := filepath.Join(h.cfg.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// sanitizeFilename strips path components and characters unsafe for storage.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func (h *Handler) failJob(w http.ResponseWriter, jobID, detail string) {
	log.Printf("document: upload job %s failed: %s", jobID, detail)
	h.tracker.Publish(StatusUpdate{JobID: jobID, Phase: PhaseFailed, Message: "Upload failed", Error: detail})
	writeError(w, http.StatusInternalServerError, detail)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []Document{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (h *Handler) handleImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.Images(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if images == nil {
		images = []Image{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(images)
}

func (h *Handler) handleSelectedImages(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.SelectedImageIDs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"selected": ids})
}

func (h *Handler) handleToggleImage(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	selected, err := h.store.ToggleImage(r.Context(), docID, chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	ids, err := h.store.SelectedImageIDs(r.Context(), docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"selected":     selected,
		"selected_ids": ids,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
