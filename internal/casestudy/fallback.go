package casestudy

import (
	"strings"

	"github.com/caserelay/caserelay/internal/extract"
)

// Section defaults used when nothing better can be extracted.
const (
	defaultTitle     = "Document Analysis Report"
	defaultChallenge = "Analysis of the provided document content."
	defaultApproach  = "Document processing and content extraction."
	defaultSolution  = "Automated extraction of key information from the document."
	defaultOutcomes  = "Generated report based on document analysis."
	defaultSummary   = "This report was automatically generated from the document content."

	fallbackSectionLimit = 800
)

var defaultKeyPoints = []string{
	"Document processed successfully",
	"Content extracted and analyzed",
	"Report generated from content",
}

// Keyword lists matching slide titles to case-study sections.
var (
	challengeKeywords = []string{"challenge", "problem", "issue", "background", "overview", "introduction"}
	approachKeywords  = []string{"approach", "methodology", "strategy", "process", "plan"}
	solutionKeywords  = []string{"solution", "implementation", "platform", "technology", "product"}
	outcomesKeywords  = []string{"outcomes", "results", "benefits", "impact", "conclusion", "success"}
)

// fallback builds case-study content heuristically, without a model. Slide
// decks get a keyword pass over their slide titles; everything else maps the
// first outline sections onto the narrative in order.
func (g *Generator) fallback(res *extract.Result, audience string) Content {
	content := Content{
		Title:     defaultTitle,
		Challenge: defaultChallenge,
		Approach:  defaultApproach,
		Solution:  defaultSolution,
		Outcomes:  defaultOutcomes,
		Summary:   defaultSummary,
		KeyPoints: defaultKeyPoints,
	}
	if res == nil {
		return content
	}
	if res.Structured.Title != "" {
		content.Title = res.Structured.Title
	}

	matched := false
	if strings.EqualFold(res.Metadata.FileType, "pptx") {
		matched = fallbackFromSlides(res, &content)
	}
	if !matched {
		fallbackFromSections(res, &content)
	}
	return content
}

// fallbackFromSlides assigns slide contents to sections by slide-title
// keywords, reporting whether anything matched.
func fallbackFromSlides(res *extract.Result, content *Content) bool {
	type slide struct {
		title string
		lines []string
	}
	var slides []slide
	var titles []string

	for _, raw := range strings.Split(res.Text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isBoilerplate(line) {
			continue
		}
		if looksLikeSlideTitle(line) {
			slides = append(slides, slide{title: line})
			titles = append(titles, line)
			continue
		}
		if len(slides) > 0 {
			slides[len(slides)-1].lines = append(slides[len(slides)-1].lines, line)
		}
	}

	var challenge, approach, solution, outcomes []string
	for _, s := range slides {
		lower := strings.ToLower(s.title)
		switch {
		case matchesAny(lower, challengeKeywords):
			challenge = append(challenge, s.lines...)
		case matchesAny(lower, approachKeywords):
			approach = append(approach, s.lines...)
		case matchesAny(lower, solutionKeywords):
			solution = append(solution, s.lines...)
		case matchesAny(lower, outcomesKeywords):
			outcomes = append(outcomes, s.lines...)
		case len(challenge) < 3:
			challenge = append(challenge, s.lines...)
		case len(approach) < 3:
			approach = append(approach, s.lines...)
		case len(solution) < 3:
			solution = append(solution, s.lines...)
		default:
			outcomes = append(outcomes, s.lines...)
		}
	}

	if len(challenge)+len(approach)+len(solution)+len(outcomes) == 0 {
		return false
	}

	if len(challenge) > 0 {
		content.Challenge = truncate(strings.Join(challenge, " "), fallbackSectionLimit)
	}
	if len(approach) > 0 {
		content.Approach = truncate(strings.Join(approach, " "), fallbackSectionLimit)
	}
	if len(solution) > 0 {
		content.Solution = truncate(strings.Join(solution, " "), fallbackSectionLimit)
	}
	if len(outcomes) > 0 {
		content.Outcomes = truncate(strings.Join(outcomes, " "), fallbackSectionLimit)
	}

	var summaryParts []string
	if len(challenge) > 0 {
		summaryParts = append(summaryParts, strings.Join(firstN(challenge, 2), " "))
	}
	if len(solution) > 0 {
		summaryParts = append(summaryParts, strings.Join(firstN(solution, 2), " "))
	}
	if len(summaryParts) > 0 {
		content.Summary = truncate(strings.Join(summaryParts, " "), 400)
	}

	if kps := slideKeyPoints(titles, challenge, solution, outcomes); len(kps) > 0 {
		content.KeyPoints = kps
	} else if len(res.Structured.KeyPoints) > 0 {
		content.KeyPoints = res.Structured.KeyPoints
	}
	return true
}

// slideKeyPoints derives key points from slide titles and bullet lines.
func slideKeyPoints(titles []string, sections ...[]string) []string {
	var candidates []string
	if len(titles) > 3 {
		for _, t := range titles {
			lower := strings.ToLower(t)
			if matchesAny(lower, []string{"agenda", "content", "overview", "thank"}) {
				continue
			}
			candidates = append(candidates, t)
			if len(candidates) == 5 {
				break
			}
		}
	}
	for _, lines := range sections {
		for _, line := range lines {
			for _, marker := range []string{"•", "-", "*"} {
				if strings.HasPrefix(line, marker) {
					candidates = append(candidates, strings.TrimLeft(line, "•-* "))
					break
				}
			}
		}
	}

	var points []string
	for _, c := range candidates {
		if len(c) > 15 && len(c) < 100 {
			points = append(points, c)
			if len(points) == 5 {
				break
			}
		}
	}
	return points
}

// fallbackFromSections maps the first outline sections onto the narrative
// in order.
func fallbackFromSections(res *extract.Result, content *Content) {
	var bodies []string
	for _, s := range res.Structured.Sections {
		if s.Content != "" {
			bodies = append(bodies, s.Content)
		}
	}
	if len(bodies) >= 1 {
		content.Challenge = truncate(bodies[0], fallbackSectionLimit)
	}
	if len(bodies) >= 2 {
		content.Approach = truncate(bodies[1], fallbackSectionLimit)
	}
	if len(bodies) >= 3 {
		content.Solution = truncate(bodies[2], fallbackSectionLimit)
	}
	if len(bodies) >= 4 {
		content.Outcomes = truncate(bodies[3], fallbackSectionLimit)
	}
	if len(bodies) > 0 {
		var parts []string
		for _, b := range firstN(bodies, 3) {
			parts = append(parts, truncate(b, 150))
		}
		content.Summary = strings.Join(parts, " ")
	}
	if len(res.Structured.KeyPoints) > 0 {
		content.KeyPoints = res.Structured.KeyPoints
	}
}

func looksLikeSlideTitle(line string) bool {
	if len(line) >= 60 || strings.HasSuffix(line, ".") || strings.HasPrefix(line, "---") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 10 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) > 1 && r[0] >= 'A' && r[0] <= 'Z' {
			return true
		}
	}
	return false
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range []string{"confidential", "page", "copyright", "©", "all rights reserved", "footer"} {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func matchesAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
