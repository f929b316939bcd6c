package extract

import (
	"archive/zip"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Office Open XML documents are zip archives of XML parts plus a media
// directory. Text extraction walks the XML token stream collecting text runs;
// image extraction lifts the media parts wholesale.

const maxExtractedImages = 20

var imageExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
}

// processDOCX extracts paragraphs from word/document.xml and images from
// word/media/.
func processDOCX(filePath string, result *Result, skipImages bool) error {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("Word document error: opening archive: %w", err)
	}
	defer zr.Close()

	var docXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return fmt.Errorf("Word document error: word/document.xml not found")
	}

	text, err := collectRuns(docXML, "t", "p")
	if err != nil {
		return fmt.Errorf("Word document error: %w", err)
	}
	result.Text = strings.TrimSpace(strings.Join(text, "\n"))
	if result.Text == "" {
		return fmt.Errorf("Word document error: no extractable text")
	}

	if !skipImages {
		result.Images = collectMedia(zr.File, "word/media/", "img")
	}
	return nil
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// processPPTX extracts per-slide text from ppt/slides/slideN.xml in slide
// order and images from ppt/media/.
func processPPTX(filePath string, result *Result, skipImages bool) error {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return fmt.Errorf("PowerPoint error: opening archive: %w", err)
	}
	defer zr.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideNameRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{num: n, file: f})
		}
	}
	if len(slides) == 0 {
		return fmt.Errorf("PowerPoint error: no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var (
		sb       strings.Builder
		sections []Section
	)
	for _, s := range slides {
		lines, err := collectRuns(s.file, "t", "p")
		if err != nil {
			return fmt.Errorf("PowerPoint error: slide %d: %w", s.num, err)
		}
		var nonEmpty []string
		for _, l := range lines {
			if strings.TrimSpace(l) != "" {
				nonEmpty = append(nonEmpty, strings.TrimSpace(l))
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Slide %d ---\n%s", s.num, strings.Join(nonEmpty, "\n"))

		// First line of a slide is its title more often than not.
		sections = append(sections, Section{
			Title:   nonEmpty[0],
			Content: strings.Join(nonEmpty[1:], " "),
		})
	}

	result.Text = sb.String()
	result.Metadata.PageCount = len(slides)
	if result.Text == "" {
		return fmt.Errorf("PowerPoint error: no extractable text in %d slides", len(slides))
	}

	result.Structured = Structure(result.Text)
	if len(sections) > 0 {
		result.Structured.Sections = sections
		if result.Structured.Title == "" {
			result.Structured.Title = sections[0].Title
		}
	}

	if !skipImages {
		result.Images = collectMedia(zr.File, "ppt/media/", "slide_img")
	}
	return nil
}

// collectRuns returns one string per paragraph element, concatenating the
// character data of every text element inside it. textLocal and paraLocal are
// the local (namespace-stripped) element names, "t" and "p" for both WordprocessingML
// and DrawingML.
func collectRuns(f *zip.File, textLocal, paraLocal string) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textLocal {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textLocal:
				inText = false
			case paraLocal:
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs, nil
}

// collectMedia base64-encodes raster images under the given archive prefix,
// in archive order, up to maxExtractedImages.
func collectMedia(files []*zip.File, prefix, idPrefix string) []ImageData {
	var images []ImageData
	n := 0
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		imgType, ok := imageExtensions[strings.ToLower(path.Ext(f.Name))]
		if !ok {
			continue // vector formats (emf/wmf) are not web-renderable
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		n++
		images = append(images, ImageData{
			ID:      fmt.Sprintf("%s_%d", idPrefix, n),
			Caption: fmt.Sprintf("Image %d (%s)", n, path.Base(f.Name)),
			Type:    imgType,
			Data:    base64.StdEncoding.EncodeToString(data),
		})
		if n >= maxExtractedImages {
			break
		}
	}
	return images
}
