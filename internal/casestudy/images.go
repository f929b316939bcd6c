package casestudy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caserelay/caserelay/internal/extract"
)

// MaxSelectedImages caps how many images a generated draft pre-selects.
const MaxSelectedImages = 3

var diagramKeywords = []string{"diagram", "chart", "graph", "figure", "process", "workflow", "infographic", "results"}
var decorativeKeywords = []string{"icon", "bullet", "background", "decoration"}

// SelectImages ranks a document's images against the generated content and
// returns up to MaxSelectedImages of them. Early images, cover pages and
// diagram-like captions score high; decorative elements score low.
func SelectImages(images []extract.ImageData, content Content) []extract.ImageData {
	if len(images) <= MaxSelectedImages {
		return images
	}

	contentText := strings.ToLower(strings.Join([]string{
		content.Title, content.Challenge, content.Approach,
		content.Solution, content.Outcomes, content.Summary,
	}, " "))

	type scored struct {
		score float64
		index int
	}
	ranked := make([]scored, len(images))
	for i, img := range images {
		caption := strings.ToLower(img.Caption)
		score := 0.0

		// Earlier images are usually more important.
		if i < 100 {
			score += float64(100-i) * 0.5
		}

		switch {
		case strings.Contains(caption, "slide 1") || strings.Contains(caption, "page 1") || strings.Contains(caption, "cover"):
			score += 100
		case strings.Contains(caption, "slide 2") || strings.Contains(caption, "page 2"):
			score += 80
		case containsPageRange(caption, 3, 5):
			score += 60
		}

		// Caption words that also appear in the narrative suggest relevance.
		for _, word := range strings.Fields(caption) {
			if len(word) > 4 && strings.Contains(contentText, word) {
				score += 10
			}
		}

		if matchesAny(caption, diagramKeywords) {
			score += 50
		}
		if matchesAny(caption, decorativeKeywords) {
			score -= 50
		}

		ranked[i] = scored{score: score, index: i}
	}

	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	selected := make([]extract.ImageData, 0, MaxSelectedImages)
	for _, r := range ranked[:MaxSelectedImages] {
		selected = append(selected, images[r.index])
	}
	return selected
}

func containsPageRange(caption string, from, to int) bool {
	for n := from; n <= to; n++ {
		if strings.Contains(caption, fmt.Sprintf("slide %d", n)) || strings.Contains(caption, fmt.Sprintf("page %d", n)) {
			return true
		}
	}
	return false
}
