package casestudy

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/caserelay/caserelay/internal/activity"
	"github.com/caserelay/caserelay/internal/document"
	"github.com/caserelay/caserelay/internal/editor"
	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/remote"
)

// SessionCookie carries the editing session ID between requests.
const SessionCookie = "caserelay_session"

// Handler serves the editor-facing case study API.
type Handler struct {
	store    *Store
	docs     *document.Store
	gen      *Generator
	remote   *remote.Client // nil when no remote API is configured
	sessions *editor.Manager
	alerts   *editor.AlertQueue
	activity *activity.Store
}

// NewHandler creates the case-study API handler.
func NewHandler(store *Store, docs *document.Store, gen *Generator, remoteClient *remote.Client, sessions *editor.Manager, alerts *editor.AlertQueue, act *activity.Store) *Handler {
	return &Handler{store: store, docs: docs, gen: gen, remote: remoteClient, sessions: sessions, alerts: alerts, activity: act}
}

// RegisterRoutes mounts the case-study API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/improve-text", h.handleImproveText)
	r.Post("/api/regenerate", h.handleRegenerate)
	r.Post("/api/save-content", h.handleSaveContent)
	r.Get("/api/case-studies/{id}", h.handleGet)
	r.Get("/api/export", h.handleExport)
	r.Get("/api/alerts", h.handleAlerts)
	r.Post("/api/alerts/{id}/dismiss", h.handleDismissAlert)
}

type improveRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

func (h *Handler) handleImproveText(w http.ResponseWriter, r *http.Request) {
	var req improveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trimmed := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(trimmed) <= MinImproveLength {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("selection too short: needs more than %d characters", MinImproveLength))
		return
	}

	improved := ""
	if h.remote != nil {
		remoteText, err := h.remote.ImproveText(r.Context(), trimmed, req.Type)
		if err != nil {
			log.Printf("casestudy: remote text improvement failed, trying local: %v", err)
		} else {
			improved = remoteText
		}
	}
	if improved == "" {
		improved = h.gen.ImproveText(r.Context(), trimmed, req.Type)
	}

	if h.activity != nil {
		if sess := h.session(r); sess != nil {
			h.activity.Record(r.Context(), activity.ActionTextImproved, sess.DocumentID, sess.CaseStudyID,
				fmt.Sprintf("Improved a selection (%s)", improvementLabel(req.Type)))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"improved_text": improved})
}

func improvementLabel(t string) string {
	if _, ok := improvementPrompts[t]; ok {
		return t
	}
	return ImproveDefault
}

type regenerateRequest struct {
	Audience string `json:"audience"`
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Audience == "" {
		req.Audience = AudienceGeneral
	}
	if !ValidAudience(req.Audience) {
		writeError(w, http.StatusBadRequest, "unknown audience: "+req.Audience)
		return
	}

	sess := h.session(r)
	if sess == nil {
		writeError(w, http.StatusBadRequest, "no active editing session")
		return
	}

	cs, extracted, err := h.sessionCaseStudy(r, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cs == nil {
		writeError(w, http.StatusNotFound, "case study not found")
		return
	}

	content := h.gen.Generate(r.Context(), extracted, req.Audience)
	if err := h.store.UpdateContent(r.Context(), cs.ID, req.Audience, content); err != nil {
		h.pushAlert(editor.AlertError, "Regeneration could not be saved")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The editor reloads its document from the regenerated sections.
	if html, err := RenderHTML(content); err == nil {
		if err := h.store.SaveContent(r.Context(), cs.ID, html); err != nil {
			log.Printf("casestudy: storing regenerated content: %v", err)
		}
	}

	if h.activity != nil {
		h.activity.Record(r.Context(), activity.ActionCaseStudyRegenerated, sess.DocumentID, cs.ID,
			"Regenerated for audience "+req.Audience)
	}
	h.pushAlert(editor.AlertSuccess, "Case study regenerated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]Content{"case_study": content})
}

type saveContentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.session(r)
	if sess == nil {
		writeError(w, http.StatusBadRequest, "no active editing session")
		return
	}

	// The session debouncer coalesces rapid edits into a single write.
	sess.Queue(req.Content)
	if h.activity != nil {
		h.activity.Record(r.Context(), activity.ActionContentSaved, sess.DocumentID, sess.CaseStudyID, "Autosave queued")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Content saved",
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	cs, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cs == nil {
		writeError(w, http.StatusNotFound, "case study not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cs)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		writeError(w, http.StatusBadRequest, "no active editing session")
		return
	}

	// Flush any pending autosave so the export reflects the latest edits.
	if err := sess.Flush(r.Context()); err != nil {
		log.Printf("casestudy: flushing before export: %v", err)
	}

	cs, err := h.store.GetByID(r.Context(), sess.CaseStudyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cs == nil {
		writeError(w, http.StatusNotFound, "case study not found")
		return
	}

	body := cs.HTMLContent
	if body == "" {
		body, err = RenderHTML(cs.Content)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	page, err := editor.ExportHTML(cs.Content.Title, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := editor.ExportFilename(cs.Content.Title)
	if h.activity != nil {
		h.activity.Record(r.Context(), activity.ActionCaseStudyExported, sess.DocumentID, cs.ID, "Exported as "+filename)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(page))
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.alerts.Active())
}

func (h *Handler) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	h.alerts.Dismiss(chi.URLParam(r, "id"))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// sessionCaseStudy loads the session's case study and the extraction result
// of its source document. The extraction may be nil when the document is
// gone; generation then degrades to its defaults.
func (h *Handler) sessionCaseStudy(r *http.Request, sess *editor.Session) (*CaseStudy, *extract.Result, error) {
	cs, err := h.store.GetByID(r.Context(), sess.CaseStudyID)
	if err != nil || cs == nil {
		return cs, nil, err
	}
	doc, err := h.docs.GetByID(r.Context(), cs.DocumentID)
	if err != nil {
		return cs, nil, err
	}
	if doc == nil {
		return cs, nil, nil
	}
	return cs, doc.Extracted, nil
}

// session resolves the editing session from the request cookie. Returns nil
// when there is no usable session.
func (h *Handler) session(r *http.Request) *editor.Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	sess, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		log.Printf("casestudy: resolving session: %v", err)
		return nil
	}
	return sess
}

func (h *Handler) pushAlert(level, message string) {
	if h.alerts != nil {
		h.alerts.Push(level, message)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
