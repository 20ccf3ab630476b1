// Package cli provides output helpers for the sentembed command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/sentembed/internal/models"
	"github.com/hyperjump/sentembed/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteVectors writes one vector per text to w. Text output shows dimensionality, L2 norm and
// the first preview values of each vector; JSON output is the /embed response body.
func WriteVectors(w io.Writer, texts []string, vectors [][]float32, format OutputFormat, preview int) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.EmbedResponse{Vectors: vectors})
	}
	for i, vec := range vectors {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		fmt.Fprintf(w, "[%d] %q\n", i, utils.Truncate(text, 60))
		fmt.Fprintf(w, "    dims=%d norm=%.4f %s\n", len(vec), utils.L2Norm(vec), formatPreview(vec, preview))
	}
	return nil
}

// WriteHealth writes a /health response.
func WriteHealth(w io.Writer, h *models.HealthResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	fmt.Fprintf(w, "status: %s\nmodel: %s\ndimension: %d\n", h.Status, h.Model, h.Dimension)
	return nil
}

func formatPreview(vec []float32, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(vec) {
		n = len(vec)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.4f", vec[i])
	}
	s := "[" + strings.Join(parts, " ")
	if n < len(vec) {
		s += " ..."
	}
	return s + "]"
}
