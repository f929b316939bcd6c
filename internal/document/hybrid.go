package document

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caserelay/caserelay/internal/extract"
	"github.com/caserelay/caserelay/internal/remote"
)

// Processor extracts documents, preferring the remote processing API and
// falling back to local extraction when the remote is unconfigured or fails.
type Processor struct {
	remote *remote.Client // nil disables the remote path
}

// NewProcessor creates a Processor. Pass a nil client for local-only mode.
func NewProcessor(client *remote.Client) *Processor {
	return &Processor{remote: client}
}

// Process extracts a single file from disk.
func (p *Processor) Process(ctx context.Context, path string) (*extract.Result, error) {
	if p.remote != nil {
		res, err := p.processRemote(ctx, path)
		if err == nil {
			return res, nil
		}
		log.Printf("remote processing failed for %s, falling back to local: %v", filepath.Base(path), err)
	}
	return extract.Process(path)
}

func (p *Processor) processRemote(ctx context.Context, path string) (*extract.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	res, err := p.remote.Process(ctx, filepath.Base(path), fileType, f)
	if err != nil {
		return nil, err
	}

	return &extract.Result{
		Text:       res.Text,
		Images:     res.Images,
		Structured: res.Structured,
		Metadata: extract.Metadata{
			Filename: filepath.Base(path),
			FileType: fileType,
			FileSize: info.Size(),
			Status:   "success",
		},
	}, nil
}

// Merge combines a primary extraction with supplementary ones into a single
// result. Supplementary text is appended under numbered separators, and
// supplementary image IDs are prefixed so they never collide with the
// primary document's.
func Merge(primary *extract.Result, supplementary []*extract.Result) *extract.Result {
	if len(supplementary) == 0 {
		return primary
	}

	merged := *primary
	var sb strings.Builder
	sb.WriteString(primary.Text)

	for i, supp := range supplementary {
		sb.WriteString(fmt.Sprintf("\n\n--- Document %d ---\n\n", i+2))
		sb.WriteString(supp.Text)

		for _, img := range supp.Images {
			img.ID = fmt.Sprintf("supp_%d_%s", i+1, img.ID)
			merged.Images = append(merged.Images, img)
		}
		merged.Structured.Sections = append(merged.Structured.Sections, supp.Structured.Sections...)
		for _, kp := range supp.Structured.KeyPoints {
			if len(merged.Structured.KeyPoints) >= 10 {
				break
			}
			merged.Structured.KeyPoints = append(merged.Structured.KeyPoints, kp)
		}
	}

	merged.Text = sb.String()
	merged.Metadata.WordCount = extract.WordCount(merged.Text)
	return &merged
}
