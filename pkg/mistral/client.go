// Package mistral is a client for the Mistral OCR HTTP API.
//
// The service protocol has three steps: upload the document bytes, exchange
// the upload id for a temporary signed URL, then run OCR against that URL.
// The OCR result is an ordered sequence of pages, each carrying recognized
// text as markdown plus the inline images the markdown references.
//
// The Gateway interface captures exactly that capability so callers can
// substitute a fake in tests; Client is the HTTP implementation.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.mistral.ai/v1"
	// DefaultModel is the OCR model used when none is configured.
	DefaultModel = "mistral-ocr-latest"
)

// Gateway is the capability surface the conversion pipeline needs from the
// OCR service. Every call is a single round trip; none of them retry.
type Gateway interface {
	// UploadPDF uploads document bytes with purpose "ocr" and returns the
	// file id assigned by the service.
	UploadPDF(ctx context.Context, name string, data []byte) (string, error)
	// SignedURL exchanges an uploaded file id for a temporary access URL.
	// Expiry is expressed in whole days.
	SignedURL(ctx context.Context, fileID string, expiryDays int) (string, error)
	// ProcessOCR runs recognition against a signed document URL, requesting
	// inline image payloads.
	ProcessOCR(ctx context.Context, documentURL string) (*OCRResponse, error)
	// DeleteFile removes a previously uploaded file from the service.
	DeleteFile(ctx context.Context, fileID string) error
}

// StatusError reports a non-2xx response from the service.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mistral: %s failed with status %d: %s", e.Op, e.Status, e.Body)
}

// Client implements Gateway over HTTP.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithModel selects the OCR model.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the OCR model the client submits recognition requests with.
func (c *Client) Model() string { return c.model }

// UploadPDF uploads the document as a multipart form and returns the file id.
func (c *Client) UploadPDF(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "ocr"); err != nil {
		return "", fmt.Errorf("write purpose field: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do("upload", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("mistral: upload response carried no file id")
	}
	return out.ID, nil
}

// SignedURL exchanges a file id for a temporary access URL valid for
// expiryDays whole days.
func (c *Client) SignedURL(ctx context.Context, fileID string, expiryDays int) (string, error) {
	url := fmt.Sprintf("%s/files/%s/url?expiry=%d", c.baseURL, fileID, expiryDays)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build signed URL request: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.do("sign", req, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("mistral: sign response carried no url")
	}
	return out.URL, nil
}

// ProcessOCR submits a signed document URL for recognition and returns the
// per-page result with inline image payloads included.
func (c *Client) ProcessOCR(ctx context.Context, documentURL string) (*OCRResponse, error) {
	reqBody := OCRRequest{
		Model: c.model,
		Document: DocumentURL{
			Type:        "document_url",
			DocumentURL: documentURL,
		},
		IncludeImageBase64: true,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out OCRResponse
	if err := c.do("ocr", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile removes an uploaded file from the service.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	return c.do("delete", req, nil)
}

// do executes a request with bearer auth and decodes a JSON response into out
// when out is non-nil. Non-2xx responses become a StatusError carrying the
// response body.
func (c *Client) do(op string, req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("mistral: %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mistral: decode %s response: %w", op, err)
	}
	return nil
}
