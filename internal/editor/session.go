package editor

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caserelay/caserelay/internal/db"
)

// Saver persists editor content once a quiet period elapses.
type Saver interface {
	SaveContent(ctx context.Context, caseStudyID, htmlContent string) error
}

// Session is one browser editing session. Each session owns a single
// debounce timer: queuing new content while a save is pending cancels the
// earlier timer, so at most one save fires per quiet period.
type Session struct {
	ID          string
	DocumentID  string
	CaseStudyID string

	saver    Saver
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	dirty   bool
	closed  bool
}

// Queue schedules content for saving after the debounce interval. Later
// calls supersede earlier ones that have not fired yet.
func (s *Session) Queue(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = content
	s.dirty = true

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

func (s *Session) flushPending() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	content := s.pending
	s.dirty = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.saver.SaveContent(ctx, s.CaseStudyID, content); err != nil {
		log.Printf("editor: autosave for case study %s failed: %v", s.CaseStudyID, err)
	}
}

// Flush saves pending content immediately, cancelling any armed timer.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	content := s.pending
	s.dirty = false
	s.mu.Unlock()

	return s.saver.SaveContent(ctx, s.CaseStudyID, content)
}

// Close flushes and permanently disables the session's timer.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// Manager tracks editing sessions, persisting them so a session cookie
// survives a server restart.
type Manager struct {
	db       *db.DB
	saver    Saver
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. debounceMS is the autosave quiet
// period in milliseconds.
func NewManager(database *db.DB, saver Saver, debounceMS int) *Manager {
	return &Manager{
		db:       database,
		saver:    saver,
		debounce: time.Duration(debounceMS) * time.Millisecond,
		sessions: make(map[string]*Session),
	}
}

// Open creates a new editing session for a document and its case study.
func (m *Manager) Open(ctx context.Context, documentID, caseStudyID string) (*Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO edit_sessions (id, document_id, case_study_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, documentID, caseStudyID, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	sess := &Session{
		ID:          id,
		DocumentID:  documentID,
		CaseStudyID: caseStudyID,
		saver:       m.saver,
		debounce:    m.debounce,
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session with the given ID, rehydrating it from the
// database if the in-memory state was lost. Returns nil when unknown.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	var documentID, caseStudyID string
	err := m.db.QueryRowContext(ctx,
		`SELECT document_id, case_study_id FROM edit_sessions WHERE id = ?`, id,
	).Scan(&documentID, &caseStudyID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess = &Session{
		ID:          id,
		DocumentID:  documentID,
		CaseStudyID: caseStudyID,
		saver:       m.saver,
		debounce:    m.debounce,
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess, nil
}

// CloseAll flushes every active session. Called during server shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			log.Printf("editor: closing session %s: %v", s.ID, err)
		}
	}
}
