package casestudy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/llm"
)

// Input size thresholds for generation.
const (
	maxGenerationChars = 200_000 // beyond this, skip the model entirely
	largeInputChars    = 20_000  // beyond this, compact the input first

	maxRetries = 3
)

// Generator produces case-study content from extracted documents. A nil
// provider disables model-backed generation; the heuristic fallback then
// handles everything.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a Generator. provider may be nil.
func NewGenerator(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

// Generate builds case-study content for the given extraction result. It
// never fails outright: any model problem degrades to the heuristic
// fallback, mirroring how drafts must always reach the editor.
func (g *Generator) Generate(ctx context.Context, res *extract.Result, audience string) Content {
	if res == nil || strings.TrimSpace(res.Text) == "" {
		log.Print("casestudy: no extracted text, using fallback generation")
		return g.fallback(res, audience)
	}
	if res.SkipAI {
		log.Print("casestudy: document flagged to skip model generation, using fallback")
		return g.fallback(res, audience)
	}
	if len(res.Text) > maxGenerationChars {
		log.Printf("casestudy: input too large for model (%d chars), using fallback", len(res.Text))
		return g.fallback(res, audience)
	}
	if g.provider == nil {
		log.Print("casestudy: no model provider configured, using fallback generation")
		return g.fallback(res, audience)
	}

	text := res.Text
	largeInput := len(text) > largeInputChars
	if largeInput {
		text = compactInput(res)
		log.Printf("casestudy: compacted input from %d to %d chars", len(res.Text), len(text))
	}

	content, err := g.complete(ctx, text, audience, largeInput)
	if err != nil {
		log.Printf("casestudy: model generation failed, using fallback: %v", err)
		return g.fallback(res, audience)
	}
	return *content
}

// complete calls the model with retries. Each retry shrinks large inputs
// further, since timeouts usually mean the prompt was too big.
func (g *Generator) complete(ctx context.Context, text, audience string, largeInput bool) (*Content, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if largeInput {
				factor := 0.7 - 0.1*float64(attempt)
				text = shrink(text, factor)
				log.Printf("casestudy: retry %d with input shrunk to %d chars", attempt, len(text))
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
		}

		prompt := buildGenerationPrompt(text, audience, largeInput)
		maxTokens := 3000
		if len(prompt) >= 30_000 {
			maxTokens = 2000
		}

		resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
			Model: g.model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: generationSystemPrompt},
				{Role: llm.RoleUser, Content: prompt},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.7,
			JSONMode:    true,
		})
		if err != nil {
			lastErr = err
			continue
		}

		var content Content
		if err := json.Unmarshal([]byte(resp.Content), &content); err != nil {
			lastErr = fmt.Errorf("parsing model response: %w", err)
			continue
		}
		if content.Title == "" && content.Challenge == "" {
			lastErr = fmt.Errorf("model response missing required sections")
			continue
		}
		return &content, nil
	}
	return nil, lastErr
}

// compactInput builds a shortened representation of a large document. When
// the outline has enough sections, a sampled selection of them carries more
// signal than a raw prefix of the text.
func compactInput(res *extract.Result) string {
	sections := res.Structured.Sections
	if len(sections) > 5 {
		keep := append([]extract.Section{}, sections[:5]...)
		if len(sections) > 15 {
			mid := len(sections) / 3
			keep = append(keep, sections[mid:mid+3]...)
		}
		keep = append(keep, sections[len(sections)-5:]...)

		var sb strings.Builder
		for _, s := range keep {
			if s.Title == "" || s.Content == "" {
				continue
			}
			snippet := s.Content
			if len(snippet) > 600 {
				snippet = snippet[:600]
			}
			fmt.Fprintf(&sb, "\n## %s\n%s\n", s.Title, snippet)
		}
		if sb.Len() > 1000 {
			return sb.String()
		}
	}

	text := res.Text
	first := text[:10_000]
	last := text[len(text)-5_000:]
	if len(text) < 100_000 {
		midStart := len(text)/2 - 1000
		middle := text[midStart : midStart+2000]
		return first + "\n\n[...content truncated...]\n\n" + middle + "\n\n[...content truncated...]\n\n" + last
	}
	return first + "\n\n[...most content truncated...]\n\n" + last
}

// shrink keeps the front-weighted head and tail of text at roughly
// factor times its current size.
func shrink(text string, factor float64) string {
	newLen := int(float64(len(text)) * factor)
	if newLen >= len(text) || newLen < 200 {
		return text
	}
	head := newLen * 3 / 4
	tail := newLen - head
	return text[:head] + "\n\n[...content significantly truncated...]\n\n" + text[len(text)-tail:]
}

// ImproveText rewrites a selection according to the improvement type. The
// original text comes back unchanged when no provider is configured or the
// model call fails, so the editor never loses the user's selection.
func (g *Generator) ImproveText(ctx context.Context, text, improvementType string) string {
	prompts, ok := improvementPrompts[improvementType]
	if !ok {
		prompts = improvementPrompts[ImproveDefault]
	}
	if g.provider == nil {
		log.Print("casestudy: no model provider, returning text unimproved")
		return text
	}

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: prompts.system},
			{Role: llm.RoleUser, Content: fmt.Sprintf(prompts.user, text)},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("casestudy: text improvement failed, returning original: %v", err)
		return text
	}
	improved := strings.TrimSpace(resp.Content)
	if improved == "" {
		return text
	}
	return improved
}
