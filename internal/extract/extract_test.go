package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const docxBody = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Project Phoenix Overview</w:t></w:r></w:p>
    <w:p><w:r><w:t>The rollout reduced onboarding time</w:t></w:r><w:r><w:t> by half.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestProcessDOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	writeZip(t, path, map[string][]byte{
		"word/document.xml":   []byte(docxBody),
		"word/media/img1.png": []byte("fakepngbytes"),
		"word/media/chart.emf": []byte("vectordata"),
	})

	res, err := Process(path)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(res.Text, "Project Phoenix Overview") {
		t.Errorf("missing heading in text: %q", res.Text)
	}
	if !strings.Contains(res.Text, "reduced onboarding time by half.") {
		t.Errorf("runs not concatenated: %q", res.Text)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected 1 raster image (emf skipped), got %d", len(res.Images))
	}
	if res.Images[0].Type != "png" || res.Images[0].ID != "img_1" {
		t.Errorf("unexpected image: %+v", res.Images[0])
	}
	if res.Metadata.FileType != "docx" || res.Metadata.Status != "success" {
		t.Errorf("unexpected metadata: %+v", res.Metadata)
	}
	if res.Metadata.WordCount == 0 {
		t.Error("word count not computed")
	}
}

func slideXML(lines ...string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`)
	for _, l := range lines {
		sb.WriteString(`<p:sp><p:txBody><a:p><a:r><a:t>` + l + `</a:t></a:r></a:p></p:txBody></p:sp>`)
	}
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return []byte(sb.String())
}

func TestProcessPPTX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	writeZip(t, path, map[string][]byte{
		"ppt/slides/slide2.xml": slideXML("The Solution", "We shipped a managed platform"),
		"ppt/slides/slide1.xml": slideXML("Customer Challenge", "Manual reporting took days"),
		"ppt/media/image1.jpeg": []byte("fakejpegbytes"),
	})

	res, err := Process(path)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Slides must appear in numeric order regardless of archive order.
	i1 := strings.Index(res.Text, "Customer Challenge")
	i2 := strings.Index(res.Text, "The Solution")
	if i1 < 0 || i2 < 0 || i1 > i2 {
		t.Errorf("slides out of order: %q", res.Text)
	}
	if res.Metadata.PageCount != 2 {
		t.Errorf("page count = %d, want 2", res.Metadata.PageCount)
	}
	if len(res.Structured.Sections) != 2 || res.Structured.Sections[0].Title != "Customer Challenge" {
		t.Errorf("unexpected sections: %+v", res.Structured.Sections)
	}
	if len(res.Images) != 1 || res.Images[0].Type != "jpeg" {
		t.Errorf("unexpected images: %+v", res.Images)
	}
}

func TestProcessTXT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "Quarterly Review\n\nThe team faced a scaling problem.\n• Cut infrastructure spend by thirty percent\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Process(path)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Text != content {
		t.Errorf("text mismatch")
	}
	if res.Structured.Title != "Quarterly Review" {
		t.Errorf("title = %q", res.Structured.Title)
	}
	if len(res.Structured.KeyPoints) != 1 || !strings.Contains(res.Structured.KeyPoints[0], "infrastructure spend") {
		t.Errorf("key points = %v", res.Structured.KeyPoints)
	}
}

func TestProcessUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.tar")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Process(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestProcessLegacyDoc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.doc")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Process(path); err == nil || !strings.Contains(err.Error(), "convert to .docx") {
		t.Errorf("expected legacy .doc error, got %v", err)
	}
}

func TestHeadTail(t *testing.T) {
	text := strings.Repeat("a", 100) + strings.Repeat("z", 100)
	got := headTail(text, 10, 10)
	if !strings.HasPrefix(got, "aaaaaaaaaa") || !strings.HasSuffix(got, "zzzzzzzzzz") {
		t.Errorf("headTail edges wrong: %q", got)
	}
	if !strings.Contains(got, "[...content truncated...]") {
		t.Errorf("missing marker: %q", got)
	}
	if short := headTail("short", 10, 10); short != "short" {
		t.Errorf("short text should pass through, got %q", short)
	}
}

func TestStructureHeadingsAndFooters(t *testing.T) {
	text := "Background\nThe legacy system was slow.\nConfidential - do not distribute\nResults\nThroughput doubled overall this year."
	sc := Structure(text)
	if len(sc.Sections) != 2 {
		t.Fatalf("sections = %+v", sc.Sections)
	}
	if sc.Sections[0].Title != "Background" || sc.Sections[1].Title != "Results" {
		t.Errorf("titles = %q, %q", sc.Sections[0].Title, sc.Sections[1].Title)
	}
	if strings.Contains(sc.Sections[0].Content, "Confidential") {
		t.Error("footer line leaked into section content")
	}
}
