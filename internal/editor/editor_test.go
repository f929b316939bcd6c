package editor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caserelay/caserelay/internal/db"
)

type recordingSaver struct {
	mu    sync.Mutex
	saves []string
}

func (r *recordingSaver) SaveContent(ctx context.Context, caseStudyID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, content)
	return nil
}

func (r *recordingSaver) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.saves...)
}

func testManager(t *testing.T, saver Saver, debounceMS int) *Manager {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewManager(database, saver, debounceMS)
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	saver := &recordingSaver{}
	m := testManager(t, saver, 30)
	sess, err := m.Open(context.Background(), "doc-1", "cs-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Rapid keystrokes: only the last state should be saved, once.
	sess.Queue("<p>v1</p>")
	sess.Queue("<p>v2</p>")
	sess.Queue("<p>v3</p>")

	time.Sleep(150 * time.Millisecond)
	saves := saver.all()
	if len(saves) != 1 {
		t.Fatalf("expected 1 save, got %d: %v", len(saves), saves)
	}
	if saves[0] != "<p>v3</p>" {
		t.Errorf("saved %q, want last queued content", saves[0])
	}
}

func TestDebounceSeparateQuietPeriods(t *testing.T) {
	saver := &recordingSaver{}
	m := testManager(t, saver, 20)
	sess, _ := m.Open(context.Background(), "doc-1", "cs-1")

	sess.Queue("<p>first</p>")
	time.Sleep(100 * time.Millisecond)
	sess.Queue("<p>second</p>")
	time.Sleep(100 * time.Millisecond)

	saves := saver.all()
	if len(saves) != 2 || saves[0] != "<p>first</p>" || saves[1] != "<p>second</p>" {
		t.Errorf("saves = %v", saves)
	}
}

func TestFlushSavesImmediately(t *testing.T) {
	saver := &recordingSaver{}
	m := testManager(t, saver, 60_000)
	sess, _ := m.Open(context.Background(), "doc-1", "cs-1")

	sess.Queue("<p>pending</p>")
	if err := sess.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if saves := saver.all(); len(saves) != 1 || saves[0] != "<p>pending</p>" {
		t.Errorf("saves = %v", saves)
	}

	// Nothing pending: flush is a no-op.
	if err := sess.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if saves := saver.all(); len(saves) != 1 {
		t.Errorf("flush without pending content saved again: %v", saves)
	}
}

func TestClosedSessionIgnoresQueue(t *testing.T) {
	saver := &recordingSaver{}
	m := testManager(t, saver, 10)
	sess, _ := m.Open(context.Background(), "doc-1", "cs-1")

	sess.Close(context.Background())
	sess.Queue("<p>late</p>")
	time.Sleep(50 * time.Millisecond)
	if saves := saver.all(); len(saves) != 0 {
		t.Errorf("closed session saved: %v", saves)
	}
}

func TestManagerRehydratesSession(t *testing.T) {
	saver := &recordingSaver{}
	m := testManager(t, saver, 10)
	sess, _ := m.Open(context.Background(), "doc-9", "cs-9")

	// Simulate losing in-memory state.
	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.mu.Unlock()

	got, err := m.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.DocumentID != "doc-9" || got.CaseStudyID != "cs-9" {
		t.Errorf("rehydrated session = %+v", got)
	}

	if unknown, _ := m.Get(context.Background(), "nope"); unknown != nil {
		t.Error("unknown session should be nil")
	}
}

func TestSelectionOrderIsDocumentOrder(t *testing.T) {
	s := NewSelectionSet([]string{"img_1", "img_2", "img_3"})

	// Toggle out of order.
	s.Toggle("img_3")
	s.Toggle("img_1")

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "img_1" || ids[1] != "img_3" {
		t.Errorf("ids = %v", ids)
	}

	out, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if out != `["img_1","img_3"]` {
		t.Errorf("json = %s", out)
	}
}

func TestSelectionToggleAndRestore(t *testing.T) {
	s := NewSelectionSet([]string{"a", "b"})

	if on, _ := s.Toggle("a"); !on {
		t.Error("first toggle should select")
	}
	if on, _ := s.Toggle("a"); on {
		t.Error("second toggle should deselect")
	}
	if _, err := s.Toggle("zzz"); err == nil {
		t.Error("unknown image should error")
	}

	s.Restore([]string{"b", "ghost"})
	if ids := s.IDs(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("ids after restore = %v", ids)
	}
}

func TestAlertQueueEvictsOldest(t *testing.T) {
	q := NewAlertQueue(3, 60_000)
	for _, msg := range []string{"one", "two", "three", "four"} {
		q.Push(AlertInfo, msg)
	}

	active := q.Active()
	if len(active) != 3 {
		t.Fatalf("active = %d", len(active))
	}
	if active[0].Message != "two" || active[2].Message != "four" {
		t.Errorf("wrong alerts survived: %+v", active)
	}
}

func TestAlertQueueExpiry(t *testing.T) {
	q := NewAlertQueue(5, 1000)
	base := time.Now()
	q.now = func() time.Time { return base }

	q.Push(AlertError, "stale")
	q.now = func() time.Time { return base.Add(2 * time.Second) }
	q.Push(AlertSuccess, "fresh")

	active := q.Active()
	if len(active) != 1 || active[0].Message != "fresh" {
		t.Errorf("active = %+v", active)
	}
}

func TestAlertQueueDismiss(t *testing.T) {
	q := NewAlertQueue(5, 60_000)
	a := q.Push(AlertWarning, "dismiss me")
	q.Push(AlertInfo, "keep me")

	q.Dismiss(a.ID)
	active := q.Active()
	if len(active) != 1 || active[0].Message != "keep me" {
		t.Errorf("active = %+v", active)
	}
}

func TestExportFilename(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"My Case Study #1!", "my_case_study_1.html"},
		{"  Spaces   Everywhere  ", "spaces_everywhere.html"},
		{"!!!", "case_study.html"},
		{"", "case_study.html"},
		{"Already_clean-ish", "already_clean_ish.html"},
		{"Étude à Paris 2024", "tude_paris_2024.html"},
	}
	for _, tc := range cases {
		if got := ExportFilename(tc.title); got != tc.want {
			t.Errorf("ExportFilename(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestExportHTML(t *testing.T) {
	out, err := ExportHTML("Platform Launch", "<h1>Platform Launch</h1><p>Body</p>")
	if err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}
	if !strings.Contains(out, "<title>Platform Launch</title>") {
		t.Errorf("missing title: %s", out)
	}
	if !strings.Contains(out, "<p>Body</p>") {
		t.Error("body was escaped or dropped")
	}
}
