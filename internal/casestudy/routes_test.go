package casestudy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caserelay/caserelay/internal/activity"
	"github.com/caserelay/caserelay/internal/db"
	"github.com/caserelay/caserelay/internal/document"
	"github.com/caserelay/caserelay/internal/editor"
	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/llm"
)

type fixture struct {
	router   chi.Router
	store    *Store
	docs     *document.Store
	sessions *editor.Manager
	doc      *document.Document
	cs       *CaseStudy
	sess     *editor.Session
}

func newFixture(t *testing.T, provider *fakeProvider) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	docs := document.NewStore(database)
	act := activity.NewStore(database)
	var p llm.Provider
	if provider != nil {
		p = provider
	}
	gen := NewGenerator(p, "gpt-4o")
	sessions := editor.NewManager(database, store, 20)
	alerts := editor.NewAlertQueue(5, 60_000)

	ctx := context.Background()
	doc, err := docs.Create(ctx, document.Document{
		OriginalFilename: "deck.pptx",
		FileType:         "pptx",
		Extracted: &extract.Result{
			Text:       "Challenge Overview\nManual work everywhere.",
			Structured: extract.StructuredContent{Title: "Ops Automation", Sections: []extract.Section{{Title: "Challenge Overview", Content: "Manual work everywhere."}}},
		},
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	cs, err := store.Create(ctx, CaseStudy{
		DocumentID: doc.ID,
		Content:    Content{Title: "Ops Automation", Challenge: "Manual work everywhere."},
	})
	if err != nil {
		t.Fatalf("create case study: %v", err)
	}
	sess, err := sessions.Open(ctx, doc.ID, cs.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	h := NewHandler(store, docs, gen, nil, sessions, alerts, act)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	return &fixture{router: r, store: store, docs: docs, sessions: sessions, doc: doc, cs: cs, sess: sess}
}

func (f *fixture) request(t *testing.T, method, path, body string, withSession bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if withSession {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: f.sess.ID})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestImproveTextEndpoint(t *testing.T) {
	provider := &fakeProvider{responses: []string{"A much better sentence."}}
	f := newFixture(t, provider)

	rec := f.request(t, http.MethodPost, "/api/improve-text",
		`{"text":"This sentence could be better.","type":"improve"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["improved_text"] != "A much better sentence." {
		t.Errorf("improved_text = %q", resp["improved_text"])
	}
}

func TestImproveTextRejectsShortSelection(t *testing.T) {
	f := newFixture(t, nil)

	// Exactly 10 runes after trimming: at the threshold, still rejected.
	rec := f.request(t, http.MethodPost, "/api/improve-text", `{"text":"  ten chars.  ","type":"improve"}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestImproveTextAcceptsElevenRunes(t *testing.T) {
	f := newFixture(t, nil)

	// One rune past the threshold is accepted.
	rec := f.request(t, http.MethodPost, "/api/improve-text", `{"text":"elevenchars","type":"improve"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["improved_text"] != "elevenchars" {
		t.Errorf("improved_text = %q", resp["improved_text"])
	}
}

func TestImproveTextNoProviderReturnsOriginal(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.request(t, http.MethodPost, "/api/improve-text",
		`{"text":"Nothing can improve this paragraph.","type":"extend"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["improved_text"] != "Nothing can improve this paragraph." {
		t.Errorf("improved_text = %q", resp["improved_text"])
	}
}

func TestRegenerateEndpoint(t *testing.T) {
	content := Content{
		Title:     "Ops Automation For Executives",
		Challenge: "Executive framing of the problem.",
		Approach:  "a", Solution: "s", Outcomes: "o",
	}
	provider := &fakeProvider{responses: []string{modelJSON(t, content)}}
	f := newFixture(t, provider)

	rec := f.request(t, http.MethodPost, "/api/regenerate", `{"audience":"executive"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]Content
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["case_study"].Title != content.Title {
		t.Errorf("title = %q", resp["case_study"].Title)
	}

	stored, _ := f.store.GetByID(context.Background(), f.cs.ID)
	if stored.Audience != "executive" || stored.Content.Challenge != content.Challenge {
		t.Errorf("stored = %+v", stored)
	}
	if stored.HTMLContent == "" {
		t.Error("regenerated html content not stored")
	}
}

func TestRegenerateRejectsUnknownAudience(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.request(t, http.MethodPost, "/api/regenerate", `{"audience":"martians"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRegenerateWithoutSession(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.request(t, http.MethodPost, "/api/regenerate", `{"audience":"general"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSaveContentDebounces(t *testing.T) {
	f := newFixture(t, nil)

	for _, v := range []string{"<p>a</p>", "<p>ab</p>", "<p>abc</p>"} {
		rec := f.request(t, http.MethodPost, "/api/save-content", `{"content":"`+v+`"}`, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp map[string]any
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["success"] != true {
			t.Errorf("resp = %v", resp)
		}
	}

	// Wait out the debounce period, then confirm only the last content landed.
	time.Sleep(150 * time.Millisecond)
	stored, _ := f.store.GetByID(context.Background(), f.cs.ID)
	if stored.HTMLContent != "<p>abc</p>" {
		t.Errorf("stored html = %q", stored.HTMLContent)
	}
}

func TestExportEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.SaveContent(context.Background(), f.cs.ID, "<h1>Ops Automation</h1><p>Body</p>"); err != nil {
		t.Fatal(err)
	}

	rec := f.request(t, http.MethodGet, "/api/export", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "ops_automation.html") {
		t.Errorf("disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "<p>Body</p>") {
		t.Error("export missing editor content")
	}
}

func TestAlertsEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.request(t, http.MethodGet, "/api/alerts", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var alerts []editor.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestCaseStudyStoreRoundTrip(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if _, err := database.Exec("INSERT INTO documents (id, filename, original_filename, file_type, file_size) VALUES ('doc-1','a','a','pdf',1)"); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	store := NewStore(database)
	ctx := context.Background()

	cs, err := store.Create(ctx, CaseStudy{
		DocumentID: "doc-1",
		Audience:   AudienceTechnical,
		Content: Content{
			Title: "T", Challenge: "C", Approach: "A", Solution: "S", Outcomes: "O",
			Summary: "Sum", KeyPoints: []string{"k1", "k2"},
		},
		ImageIDs: []string{"img_2", "img_5"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByID(ctx, cs.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Audience != AudienceTechnical || got.Content.Summary != "Sum" {
		t.Errorf("got %+v", got)
	}
	if len(got.Content.KeyPoints) != 2 || len(got.ImageIDs) != 2 {
		t.Errorf("json fields lost: %+v", got)
	}

	if err := store.SetImageIDs(ctx, cs.ID, []string{"img_1"}); err != nil {
		t.Fatalf("SetImageIDs: %v", err)
	}
	got, _ = store.GetByID(ctx, cs.ID)
	if len(got.ImageIDs) != 1 || got.ImageIDs[0] != "img_1" {
		t.Errorf("image ids = %v", got.ImageIDs)
	}

	latest, err := store.LatestForDocument(ctx, "doc-1")
	if err != nil || latest == nil || latest.ID != cs.ID {
		t.Errorf("latest = %+v, err %v", latest, err)
	}

	if missing, _ := store.GetByID(ctx, "nope"); missing != nil {
		t.Error("missing case study should be nil")
	}
}
