package casestudy

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/llm"
)

// fakeProvider returns canned responses and records requests.
type fakeProvider struct {
	responses []string
	errs      []error
	requests  []llm.CompletionRequest
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := f.responses[0]
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &llm.CompletionResponse{Content: content}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func modelJSON(t *testing.T, c Content) string {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestGenerateUsesModel(t *testing.T) {
	want := Content{
		Title:     "Platform Migration",
		Challenge: "Legacy systems slowed releases.",
		Approach:  "Incremental strangler migration.",
		Solution:  "A managed container platform.",
		Outcomes:  "Release cadence tripled.",
		Summary:   "A migration story.",
		KeyPoints: []string{"Tripled release cadence"},
	}
	provider := &fakeProvider{responses: []string{modelJSON(t, want)}}
	g := NewGenerator(provider, "gpt-4o")

	res := &extract.Result{Text: "Long enough document text about a platform migration."}
	got := g.Generate(context.Background(), res, AudienceExecutive)
	if got.Title != want.Title || got.Outcomes != want.Outcomes {
		t.Errorf("got %+v", got)
	}

	req := provider.requests[0]
	if !req.JSONMode {
		t.Error("request should use JSON mode")
	}
	if !strings.Contains(req.Messages[1].Content, "Target audience: executive") {
		t.Error("audience not in prompt")
	}
}

func TestGenerateGeneralAudienceOmitsAudienceLine(t *testing.T) {
	provider := &fakeProvider{responses: []string{modelJSON(t, Content{Title: "T", Challenge: "C"})}}
	g := NewGenerator(provider, "gpt-4o")

	g.Generate(context.Background(), &extract.Result{Text: "Some document text."}, AudienceGeneral)
	if strings.Contains(provider.requests[0].Messages[1].Content, "Target audience") {
		t.Error("general audience should not add an audience line")
	}
}

func TestGenerateFallsBackOnModelFailure(t *testing.T) {
	provider := &fakeProvider{
		responses: []string{"", "", ""},
		errs:      []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
	}
	g := NewGenerator(provider, "gpt-4o")

	res := &extract.Result{
		Text:       "Background\nThings were broken.",
		Structured: extract.StructuredContent{Title: "Outage Review", Sections: []extract.Section{{Title: "Background", Content: "Things were broken."}}},
	}
	got := g.Generate(context.Background(), res, AudienceGeneral)
	if got.Title != "Outage Review" {
		t.Errorf("fallback should keep document title, got %q", got.Title)
	}
	if got.Challenge != "Things were broken." {
		t.Errorf("fallback challenge = %q", got.Challenge)
	}
	if len(provider.requests) != maxRetries {
		t.Errorf("expected %d attempts, got %d", maxRetries, len(provider.requests))
	}
}

func TestGenerateFallsBackOnBadJSON(t *testing.T) {
	provider := &fakeProvider{responses: []string{"not json", "not json", "not json"}}
	g := NewGenerator(provider, "gpt-4o")

	got := g.Generate(context.Background(), &extract.Result{Text: "text content here"}, AudienceGeneral)
	if got.Title != defaultTitle {
		t.Errorf("expected default fallback title, got %q", got.Title)
	}
}

func TestGenerateSkipsModelWhenFlagged(t *testing.T) {
	provider := &fakeProvider{responses: []string{modelJSON(t, Content{Title: "ignored"})}}
	g := NewGenerator(provider, "gpt-4o")

	res := &extract.Result{Text: "huge deck text", SkipAI: true}
	g.Generate(context.Background(), res, AudienceGeneral)
	if len(provider.requests) != 0 {
		t.Error("flagged document must not reach the model")
	}
}

func TestGenerateNilProviderUsesFallback(t *testing.T) {
	g := NewGenerator(nil, "")
	got := g.Generate(context.Background(), &extract.Result{Text: "some text"}, AudienceGeneral)
	if got.Title == "" {
		t.Error("fallback must always produce a title")
	}
}

func TestFallbackSlideKeywordMatching(t *testing.T) {
	text := strings.Join([]string{
		"The Challenge Ahead",
		"Reporting was manual and slow.",
		"Our Approach",
		"We automated the pipeline end to end.",
		"Solution Platform",
		"A hosted analytics product.",
		"Results And Impact",
		"Reporting time dropped from days to minutes.",
	}, "\n")

	g := NewGenerator(nil, "")
	res := &extract.Result{
		Text:     text,
		Metadata: extract.Metadata{FileType: "pptx"},
	}
	got := g.Generate(context.Background(), res, AudienceGeneral)

	if !strings.Contains(got.Challenge, "Reporting was manual") {
		t.Errorf("challenge = %q", got.Challenge)
	}
	if !strings.Contains(got.Approach, "automated the pipeline") {
		t.Errorf("approach = %q", got.Approach)
	}
	if !strings.Contains(got.Solution, "hosted analytics") {
		t.Errorf("solution = %q", got.Solution)
	}
	if !strings.Contains(got.Outcomes, "days to minutes") {
		t.Errorf("outcomes = %q", got.Outcomes)
	}
}

func TestFallbackSectionLimit(t *testing.T) {
	long := strings.Repeat("x", 2000)
	g := NewGenerator(nil, "")
	res := &extract.Result{
		Text:       long,
		Structured: extract.StructuredContent{Sections: []extract.Section{{Title: "A", Content: long}}},
	}
	got := g.Generate(context.Background(), res, AudienceGeneral)
	if len(got.Challenge) > fallbackSectionLimit {
		t.Errorf("challenge length = %d", len(got.Challenge))
	}
}

func TestCompactInputPrefersSections(t *testing.T) {
	sections := make([]extract.Section, 20)
	for i := range sections {
		sections[i] = extract.Section{
			Title:   "Section " + strings.Repeat("I", i+1),
			Content: strings.Repeat("body ", 100),
		}
	}
	res := &extract.Result{
		Text:       strings.Repeat("t", 50_000),
		Structured: extract.StructuredContent{Sections: sections},
	}
	compact := compactInput(res)
	if !strings.Contains(compact, "## Section I\n") {
		t.Errorf("compact input missing section headers: %.200s", compact)
	}
	if len(compact) >= len(res.Text) {
		t.Error("compact input did not shrink")
	}
}

func TestCompactInputHeadTail(t *testing.T) {
	res := &extract.Result{Text: strings.Repeat("a", 30_000) + strings.Repeat("z", 30_000)}
	compact := compactInput(res)
	if !strings.Contains(compact, "[...content truncated...]") {
		t.Errorf("missing truncation marker")
	}
	if !strings.HasPrefix(compact, "aaaa") || !strings.HasSuffix(compact, "zzzz") {
		t.Error("head or tail missing")
	}
}

func TestImproveTextNilProviderReturnsOriginal(t *testing.T) {
	g := NewGenerator(nil, "")
	text := "The original selection stays intact."
	if got := g.ImproveText(context.Background(), text, ImproveSimplify); got != text {
		t.Errorf("got %q", got)
	}
}

func TestImproveTextUsesTypePrompt(t *testing.T) {
	provider := &fakeProvider{responses: []string{"Shorter."}}
	g := NewGenerator(provider, "gpt-4o")

	got := g.ImproveText(context.Background(), "A rather elaborate sentence.", ImproveSimplify)
	if got != "Shorter." {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(provider.requests[0].Messages[0].Content, "simplifying") {
		t.Errorf("system prompt = %q", provider.requests[0].Messages[0].Content)
	}
}

func TestImproveTextErrorReturnsOriginal(t *testing.T) {
	provider := &fakeProvider{responses: []string{""}, errs: []error{errors.New("rate limited")}}
	g := NewGenerator(provider, "gpt-4o")

	text := "Keep me as I am."
	if got := g.ImproveText(context.Background(), text, ImproveDefault); got != text {
		t.Errorf("got %q", got)
	}
}

func TestSelectImagesFewPassThrough(t *testing.T) {
	images := []extract.ImageData{{ID: "a"}, {ID: "b"}}
	got := SelectImages(images, Content{})
	if len(got) != 2 {
		t.Errorf("got %d images", len(got))
	}
}

func TestSelectImagesScoring(t *testing.T) {
	images := []extract.ImageData{
		{ID: "deco", Caption: "background decoration"},
		{ID: "cover", Caption: "Slide 1 cover image"},
		{ID: "diagram", Caption: "Architecture diagram of the platform"},
		{ID: "late", Caption: ""},
		{ID: "icon", Caption: "bullet icon"},
	}
	content := Content{Solution: "The platform architecture handled scale."}

	got := SelectImages(images, content)
	if len(got) != MaxSelectedImages {
		t.Fatalf("selected %d", len(got))
	}
	ids := map[string]bool{}
	for _, img := range got {
		ids[img.ID] = true
	}
	if !ids["cover"] || !ids["diagram"] {
		t.Errorf("expected cover and diagram selected, got %v", ids)
	}
	if ids["icon"] {
		t.Error("decorative icon should be penalized out")
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(Content{
		Title:     "Launch Story",
		Summary:   "A summary.",
		Challenge: "It was hard.",
		Solution:  "We shipped.",
		KeyPoints: []string{"Shipped on time"},
	})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<h1", "Launch Story", "<h2", "Challenge", "<li>Shipped on time</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in %s", want, html)
		}
	}
	if strings.Contains(html, "Approach") {
		t.Error("empty sections should be omitted")
	}
}
