package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caserelay/caserelay/internal/casestudy"
	"github.com/caserelay/caserelay/internal/config"
	"github.com/caserelay/caserelay/internal/document"
	"github.com/caserelay/caserelay/internal/editor"
)

// Handler serves the browser UI and the editor bootstrap API.
type Handler struct {
	docs     *document.Store
	studies  *casestudy.Store
	sessions *editor.Manager
	cfg      config.EditorConfig
}

// NewHandler creates the web UI handler.
func NewHandler(docs *document.Store, studies *casestudy.Store, sessions *editor.Manager, cfg config.EditorConfig) *Handler {
	return &Handler{docs: docs, studies: studies, sessions: sessions, cfg: cfg}
}

// RegisterRoutes mounts the UI pages and editor bootstrap endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.serveIndex)
	r.Get("/editor", h.serveEditor)
	r.Get("/api/editor-state", h.handleEditorState)
}

// serveEditor opens an editing session for the requested document and sets
// the session cookie before handing over to the editor page. The page then
// loads its state through /api/editor-state.
func (h *Handler) serveEditor(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("document_id")
	if documentID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cs, err := h.studies.LatestForDocument(r.Context(), documentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cs == nil {
		http.Error(w, "no case study for this document yet", http.StatusNotFound)
		return
	}

	sess, err := h.sessions.Open(r.Context(), documentID, cs.ID)
	if err != nil {
		log.Printf("web: opening session: %v", err)
		http.Error(w, "could not open editing session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     casestudy.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.ServeEditorPage(w, r)
}

// editorState is everything the editor page needs to render.
type editorState struct {
	Document  *document.Document   `json:"document"`
	CaseStudy *casestudy.CaseStudy `json:"case_study"`
	Images    []document.Image     `json:"images"`
	Editor    editorSettings       `json:"editor"`
}

type editorSettings struct {
	AutosaveDebounceMS int `json:"autosave_debounce_ms"`
	AlertDisplayMS     int `json:"alert_display_ms"`
	AlertMaxVisible    int `json:"alert_max_visible"`
}

func (h *Handler) handleEditorState(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(casestudy.SessionCookie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "no active editing session")
		return
	}
	sess, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusBadRequest, "unknown editing session")
		return
	}

	doc, err := h.docs.GetByID(r.Context(), sess.DocumentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cs, err := h.studies.GetByID(r.Context(), sess.CaseStudyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil || cs == nil {
		writeError(w, http.StatusNotFound, "document or case study not found")
		return
	}
	// The full extraction payload is large and the page does not need it.
	doc.Extracted = nil

	images, err := h.docs.Images(r.Context(), sess.DocumentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if images == nil {
		images = []document.Image{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(editorState{
		Document:  doc,
		CaseStudy: cs,
		Images:    images,
		Editor: editorSettings{
			AutosaveDebounceMS: h.cfg.AutosaveDebounceMS,
			AlertDisplayMS:     h.cfg.AlertDisplayMS,
			AlertMaxVisible:    h.cfg.AlertMaxVisible,
		},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
