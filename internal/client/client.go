// Package client is a Go client for the sentembed HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/sentembed/internal/models"
)

const (
	defaultBaseURL     = "http://localhost:8001"
	defaultHTTPTimeout = 60 * time.Second
	// DefaultBatchSize matches the server's per-request limit.
	DefaultBatchSize = 100
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// Client talks to one sentembed server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client for baseURL (empty uses http://localhost:8001).
func New(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Embed calls POST /embed with one batch.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out models.EmbedResponse
	if err := c.do(ctx, http.MethodPost, "/embed", models.EmbedRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	if len(out.Vectors) != len(texts) {
		return nil, fmt.Errorf("server returned %d vectors for %d texts", len(out.Vectors), len(texts))
	}
	return out.Vectors, nil
}

// EmbedAll splits texts into batches of at most batchSize and concatenates the results in order.
// A batch made only of blank texts would be rejected by the server, so it is not sent; its
// slots get the embedding of "" taken from another batch. Input with no text at all is still
// sent so the server reports the error.
func (c *Client) EmbedAll(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	out := make([][]float32, len(texts))
	var blankBatches [][2]int
	var placeholder []float32
	firstValid := -1
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		valid := firstNonBlank(batch)
		if valid < 0 && (firstValid >= 0 || hasNonBlank(texts[end:])) {
			blankBatches = append(blankBatches, [2]int{start, end})
			continue
		}
		vectors, err := c.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}
		copy(out[start:end], vectors)
		if firstValid < 0 {
			firstValid = start + valid
		}
		if placeholder == nil {
			for i, text := range batch {
				if isBlank(text) {
					placeholder = vectors[i]
					break
				}
			}
		}
	}
	if len(blankBatches) == 0 {
		return out, nil
	}

	if placeholder == nil {
		vectors, err := c.Embed(ctx, []string{"", texts[firstValid]})
		if err != nil {
			return nil, fmt.Errorf("blank placeholder: %w", err)
		}
		placeholder = vectors[0]
	}
	for _, b := range blankBatches {
		for i := b[0]; i < b[1]; i++ {
			v := make([]float32, len(placeholder))
			copy(v, placeholder)
			out[i] = v
		}
	}
	return out, nil
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func firstNonBlank(texts []string) int {
	for i, text := range texts {
		if !isBlank(text) {
			return i
		}
	}
	return -1
}

func hasNonBlank(texts []string) bool {
	return firstNonBlank(texts) >= 0
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var e models.ErrorResponse
		if json.Unmarshal(b, &e) == nil && e.Detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: e.Detail}
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
