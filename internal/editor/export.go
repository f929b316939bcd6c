package editor

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ExportFilename derives a download filename from the case-study title:
// lowercase, runs of characters outside [a-z0-9] collapsed to single
// underscores, with a default when nothing usable remains.
func ExportFilename(title string) string {
	var sb strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			sb.WriteRune('_')
			lastUnderscore = true
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "case_study"
	}
	return name + ".html"
}

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; line-height: 1.6; }
h1 { border-bottom: 2px solid #2c5f8a; padding-bottom: 0.5rem; }
h2 { color: #2c5f8a; margin-top: 2rem; }
img { max-width: 100%; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// ExportHTML wraps the editor's content in a standalone HTML document for
// download. The body is the editor's own HTML and is trusted as-is.
func ExportHTML(title, body string) (string, error) {
	var buf bytes.Buffer
	err := exportTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("rendering export: %w", err)
	}
	return buf.String(), nil
}
