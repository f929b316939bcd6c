package extract

import (
	"fmt"
	"os"
	"sort"
	"strings"

	rpdf "rsc.io/pdf"
)

// processPDF extracts per-page text via rsc.io/pdf. The library exposes no
// embedded-image access, so PDF results carry page count but no images.
func processPDF(path string, result *Result, skipImages bool) (err error) {
	// rsc.io/pdf panics on malformed cross-reference tables; convert to an
	// error so the caller can surface it like any other extraction failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF processing error: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat PDF: %w", err)
	}

	doc, err := rpdf.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("reading PDF: %w", err)
	}

	var sb strings.Builder
	numPages := doc.NumPage()
	for i := 1; i <= numPages; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s", i, text)
	}

	result.Text = sb.String()
	result.Metadata.PageCount = numPages
	if result.Text == "" {
		return fmt.Errorf("PDF processing error: no extractable text in %d pages", numPages)
	}
	return nil
}

// pageText reassembles the positioned text fragments of a page into lines,
// top to bottom, left to right.
func pageText(page rpdf.Page) string {
	content := page.Content()
	texts := content.Text
	if len(texts) == 0 {
		return ""
	}

	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y // PDF Y grows upward
		}
		return texts[i].X < texts[j].X
	})

	var (
		sb    strings.Builder
		lastY = texts[0].Y
		lastX float64
	)
	for i, t := range texts {
		if t.S == "" {
			continue
		}
		if i > 0 {
			if t.Y != lastY {
				sb.WriteString("\n")
			} else if t.X-lastX > t.FontSize/2 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
		lastY = t.Y
		lastX = t.X + t.W
	}
	return strings.TrimSpace(sb.String())
}
