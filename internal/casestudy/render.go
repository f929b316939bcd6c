package casestudy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderHTML converts the case-study content into the HTML the editor loads
// as its initial document. Section bodies pass through a markdown renderer
// so model output that uses emphasis or lists survives the round trip.
func RenderHTML(content Content) (string, error) {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", content.Title)
	if content.Summary != "" {
		fmt.Fprintf(&md, "*%s*\n\n", content.Summary)
	}

	sections := []struct {
		heading string
		body    string
	}{
		{"Challenge", content.Challenge},
		{"Approach", content.Approach},
		{"Solution", content.Solution},
		{"Outcomes", content.Outcomes},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		fmt.Fprintf(&md, "## %s\n\n%s\n\n", s.heading, s.body)
	}

	if len(content.KeyPoints) > 0 {
		md.WriteString("## Key Points\n\n")
		for _, kp := range content.KeyPoints {
			fmt.Fprintf(&md, "- %s\n", kp)
		}
		md.WriteString("\n")
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("rendering case study: %w", err)
	}
	return buf.String(), nil
}
