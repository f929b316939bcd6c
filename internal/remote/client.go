package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/caserelay/caserelay/internal/extract"
)

// Client talks to the remote document-processing API. All methods return a
// typed error (*APIError or one of its refinements) so the hybrid processor
// can demote any remote failure to local processing.
type Client struct {
	baseURL string
	apiKey  string

	short  *http.Client // simple calls: improve text, status polls
	medium *http.Client // uploads
	long   *http.Client // generation and regeneration

	pollInterval time.Duration
	maxPollWait  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeouts overrides the short/medium/long request timeouts.
func WithTimeouts(short, medium, long time.Duration) Option {
	return func(c *Client) {
		c.short.Timeout = short
		c.medium.Timeout = medium
		c.long.Timeout = long
	}
}

// WithPolling overrides the generation status polling cadence.
func WithPolling(interval, maxWait time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPollWait = maxWait
	}
}

// NewClient creates a Client for the given base URL. apiKey may be empty.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		short:        &http.Client{Timeout: 30 * time.Second},
		medium:       &http.Client{Timeout: 120 * time.Second},
		long:         &http.Client{Timeout: 300 * time.Second},
		pollInterval: 5 * time.Second,
		maxPollWait:  5 * time.Minute,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ProcessResult is the remote API's view of a processed document.
type ProcessResult struct {
	DocumentID string                    `json:"document_id"`
	Status     string                    `json:"status"`
	Text       string                    `json:"text"`
	Images     []extract.ImageData       `json:"images"`
	Structured extract.StructuredContent `json:"structured_content"`
}

// CaseStudyData is the remote API's case-study payload.
type CaseStudyData struct {
	Title     string   `json:"title"`
	Challenge string   `json:"challenge"`
	Approach  string   `json:"approach"`
	Solution  string   `json:"solution"`
	Outcomes  string   `json:"outcomes"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Process uploads a document for remote extraction.
func (c *Client) Process(ctx context.Context, filename, fileType string, data io.Reader) (*ProcessResult, error) {
	const op = "uploading document"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, connectionErr(op, err.Error())
	}
	if _, err := io.Copy(fw, data); err != nil {
		return nil, connectionErr(op, err.Error())
	}
	mw.WriteField("document_type", fileType)
	mw.WriteField("process_images", "true")
	if err := mw.Close(); err != nil {
		return nil, connectionErr(op, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process", &body)
	if err != nil {
		return nil, connectionErr(op, err.Error())
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.medium.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Detail: "file too large for remote processing"}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{Op: op, Detail: "invalid response: " + err.Error()}
	}
	if result.DocumentID == "" {
		return nil, &APIError{Op: op, Detail: "invalid response from server: missing document_id"}
	}
	log.Printf("remote: document uploaded with id %s", result.DocumentID)
	return &result, nil
}

// generateResponse is the envelope for generation requests, which may resolve
// synchronously or require polling.
type generateResponse struct {
	CaseStudyID string         `json:"case_study_id"`
	Status      string         `json:"status"`
	Error       string         `json:"error"`
	CaseStudy   *CaseStudyData `json:"case_study"`
}

// GenerateCaseStudy requests generation for a previously processed document,
// polling until the remote reports completion.
func (c *Client) GenerateCaseStudy(ctx context.Context, documentID, audience string) (*CaseStudyData, error) {
	const op = "generating case study"

	resp, err := c.postJSON(ctx, c.long, "/case-studies", map[string]string{
		"document_id": documentID,
		"audience":    audience,
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}

	var gen generateResponse
	if err := json.Unmarshal(resp, &gen); err != nil {
		return nil, &APIError{Op: op, Detail: "invalid response: " + err.Error()}
	}
	if gen.CaseStudy != nil {
		return gen.CaseStudy, nil
	}
	if gen.CaseStudyID == "" {
		return nil, &APIError{Op: op, Detail: "invalid response from server: missing case_study_id"}
	}

	// Async path: poll until completed or failed.
	deadline := time.Now().Add(c.maxPollWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, timeoutErr(op, ctx.Err().Error())
		case <-time.After(c.pollInterval):
		}

		body, err := c.getJSON(ctx, c.short, "/case-studies/"+gen.CaseStudyID)
		if err != nil {
			return nil, wrapOp("checking case study status", err)
		}
		var status generateResponse
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, &APIError{Op: op, Detail: "invalid status response: " + err.Error()}
		}
		switch status.Status {
		case "completed":
			if status.CaseStudy == nil {
				return nil, &APIError{Op: op, Detail: "completed without case_study payload"}
			}
			return status.CaseStudy, nil
		case "failed":
			detail := status.Error
			if detail == "" {
				detail = "unknown error during processing"
			}
			return nil, processingErr(op, detail)
		}
		log.Printf("remote: case study %s still %s", gen.CaseStudyID, status.Status)
	}
	return nil, timeoutErr(op, "timed out waiting for case study generation")
}

// ImproveText asks the remote API to rewrite a text span.
func (c *Client) ImproveText(ctx context.Context, text, improvementType string) (string, error) {
	const op = "improving text"

	resp, err := c.postJSON(ctx, c.short, "/text/improve", map[string]string{
		"text":             text,
		"improvement_type": improvementType,
	})
	if err != nil {
		return "", wrapOp(op, err)
	}

	var out struct {
		ImprovedText *string `json:"improved_text"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", &APIError{Op: op, Detail: "invalid response: " + err.Error()}
	}
	if out.ImprovedText == nil {
		return "", &APIError{Op: op, Detail: "invalid response from server: missing improved_text"}
	}
	return *out.ImprovedText, nil
}

// Regenerate asks for an existing remote case study targeted at a new audience.
func (c *Client) Regenerate(ctx context.Context, caseStudyID, audience string) (*CaseStudyData, error) {
	const op = "regenerating case study"

	resp, err := c.postJSON(ctx, c.long, "/case-studies/"+caseStudyID+"/regenerate", map[string]string{
		"audience": audience,
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}

	var out struct {
		CaseStudy *CaseStudyData `json:"case_study"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, &APIError{Op: op, Detail: "invalid response: " + err.Error()}
	}
	if out.CaseStudy == nil {
		return nil, &APIError{Op: op, Detail: "invalid response from server: missing case_study data"}
	}
	return out.CaseStudy, nil
}

// Save pushes edited case-study content to the remote store.
func (c *Client) Save(ctx context.Context, caseStudyID string, content map[string]any) error {
	const op = "saving case study"

	body, err := json.Marshal(content)
	if err != nil {
		return &APIError{Op: op, Detail: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/case-studies/"+caseStudyID, bytes.NewReader(body))
	if err != nil {
		return connectionErr(op, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.short.Do(req)
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Op: op, Status: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) postJSON(ctx context.Context, hc *http.Client, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, transportErr("", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetailBytes(data)}
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, hc *http.Client, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	c.authorize(req)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, transportErr("", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Detail: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetailBytes(data)}
	}
	return data, nil
}

// transportErr classifies a transport failure as timeout or connection error.
func transportErr(op string, err error) error {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return timeoutErr(op, "request timed out; the server might be busy")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutErr(op, "request timed out; the server might be busy")
	}
	return connectionErr(op, err.Error())
}

// wrapOp stamps the operation name onto errors produced by the shared
// request helpers.
func wrapOp(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Op == "" {
		apiErr.Op = op
	}
	return err
}

// errorDetail extracts the server's error field, falling back to a prefix of
// the raw body.
func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return errorDetailBytes(data)
}

func errorDetailBytes(data []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	if len(data) > 100 {
		data = data[:100]
	}
	detail := string(bytes.TrimSpace(data))
	if detail == "" {
		detail = "Unknown error"
	}
	return detail
}
