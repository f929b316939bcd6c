package extract

import (
	"strings"
	"unicode"
)

// footerMarkers identify boilerplate lines excluded from the outline.
var footerMarkers = []string{"confidential", "copyright", "©", "all rights reserved"}

// Structure derives a title, heading-delimited sections and bullet key points
// from raw text. It is heuristic by nature; the result feeds prompt building
// and the no-LLM fallback generator, not user-visible output.
func Structure(text string) StructuredContent {
	var sc StructuredContent

	var (
		current       *Section
		currentBuffer []string
	)
	flush := func() {
		if current != nil {
			current.Content = strings.Join(currentBuffer, " ")
			sc.Sections = append(sc.Sections, *current)
		}
		current = nil
		currentBuffer = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isFooterLine(line) {
			continue
		}

		if bullet := bulletText(line); bullet != "" {
			if len(bullet) > 15 && len(bullet) < 100 && len(sc.KeyPoints) < 10 {
				sc.KeyPoints = append(sc.KeyPoints, bullet)
			}
			if current != nil {
				currentBuffer = append(currentBuffer, bullet)
			}
			continue
		}

		if looksLikeHeading(line) {
			if sc.Title == "" {
				sc.Title = line
			}
			flush()
			current = &Section{Title: line}
			continue
		}

		if current != nil {
			currentBuffer = append(currentBuffer, line)
		}
	}
	flush()

	return sc
}

// looksLikeHeading applies the slide-title heuristic: short, no trailing
// period, and capitalized somewhere.
func looksLikeHeading(line string) bool {
	if len(line) >= 60 || strings.HasSuffix(line, ".") {
		return false
	}
	if strings.HasPrefix(line, "---") { // page/slide separators
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 10 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) > 1 && unicode.IsUpper(r[0]) {
			return true
		}
	}
	return false
}

// bulletText strips a leading bullet marker, returning "" for non-bullets.
func bulletText(line string) string {
	for _, marker := range []string{"•", "-", "*"} {
		if strings.HasPrefix(line, marker+" ") {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return ""
}

func isFooterLine(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range footerMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
