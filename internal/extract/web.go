package extract

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var webClient = &http.Client{Timeout: 60 * time.Second}

// ProcessURL fetches a web page and extracts its title and visible text.
func ProcessURL(url string) (*Result, error) {
	resp, err := webClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	title, text := pageContent(root)

	result := &Result{
		Text: text,
		Metadata: Metadata{
			Filename: url,
			FileType: "html",
			FileSize: int64(len(text)),
			Status:   "success",
		},
	}
	result.Structured = Structure(text)
	if title != "" {
		result.Structured.Title = title
	}
	result.Metadata.WordCount = WordCount(text)

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no extractable text at %s", url)
	}
	return result, nil
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"head": true, "nav": true, "footer": true,
}

// blockElements force a line break around their text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func pageContent(root *html.Node) (title, text string) {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
			if skippedElements[n.Data] {
				// Still descend into head for the title.
				if n.Data == "head" {
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						walk(c)
					}
				}
				return
			}
			if blockElements[n.Data] {
				sb.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	// Collapse blank-line runs left behind by nested blocks.
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return title, strings.Join(out, "\n")
}
