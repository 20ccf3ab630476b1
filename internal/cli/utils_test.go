package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/sentembed/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "json"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestWriteVectors_JSON(t *testing.T) {
	var buf bytes.Buffer
	vectors := [][]float32{{1, 0}, {0, 1}}
	if err := WriteVectors(&buf, []string{"a", "b"}, vectors, OutputJSON, 0); err != nil {
		t.Fatalf("WriteVectors(json): %v", err)
	}
	var decoded models.EmbedResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Vectors) != 2 || decoded.Vectors[1][1] != 1 {
		t.Errorf("decoded: %v", decoded.Vectors)
	}
}

func TestWriteVectors_Text(t *testing.T) {
	var buf bytes.Buffer
	vectors := [][]float32{{0.6, 0.8, 0}}
	if err := WriteVectors(&buf, []string{"hello"}, vectors, OutputText, 2); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`[0] "hello"`, "dims=3", "norm=1.0000", "[0.6000 0.8000 ...]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatPreview(t *testing.T) {
	if got := formatPreview([]float32{1, 2}, 5); got != "[1.0000 2.0000]" {
		t.Errorf("formatPreview: got %q", got)
	}
	if got := formatPreview([]float32{1}, 0); got != "" {
		t.Errorf("formatPreview(0): got %q", got)
	}
}

func TestWriteHealth(t *testing.T) {
	var buf bytes.Buffer
	h := &models.HealthResponse{Status: "healthy", Model: "all-MiniLM-L6-v2", Dimension: 384}
	if err := WriteHealth(&buf, h, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "dimension: 384") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
