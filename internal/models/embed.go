// Package models defines the JSON request and response bodies of the HTTP API.
package models

import "fmt"

// EmbedRequest is the body of POST /embed.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

// Validate checks the batch size: between 1 and maxTexts texts inclusive.
// Blank texts are allowed here; the service decides what to do with them.
func (r *EmbedRequest) Validate(maxTexts int) error {
	if len(r.Texts) == 0 {
		return fmt.Errorf("texts must contain at least 1 item")
	}
	if len(r.Texts) > maxTexts {
		return fmt.Errorf("texts must contain at most %d items, got %d", maxTexts, len(r.Texts))
	}
	return nil
}

// EmbedResponse holds one vector per request text, in request order.
type EmbedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// HealthResponse is the fixed body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// ErrorResponse is returned with every 4xx/5xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
