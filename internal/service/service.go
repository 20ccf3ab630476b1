// Package service implements the embedding endpoint logic: batch validation, blank-text
// handling and order-preserving reassembly around a single provider call.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/sentembed/internal/embedding"
	"github.com/hyperjump/sentembed/internal/metrics"
	"github.com/hyperjump/sentembed/internal/models"
	"github.com/hyperjump/sentembed/pkg/utils"
	"go.uber.org/zap"
)

// Service embeds batches of texts with a shared, read-only Embedder.
type Service struct {
	embedder embedding.Embedder
	maxTexts int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records text counts and provider failures.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a service accepting at most maxTexts texts per batch.
func NewService(embedder embedding.Embedder, maxTexts int, opts ...ServiceOption) *Service {
	s := &Service{
		embedder: embedder,
		maxTexts: maxTexts,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the provider's model identifier.
func (s *Service) Model() string {
	return s.embedder.Model()
}

// Dimensions returns the provider's vector size.
func (s *Service) Dimensions() int {
	return s.embedder.Dimensions()
}

// MaxTexts returns the batch size limit.
func (s *Service) MaxTexts() int {
	return s.maxTexts
}

// Embed returns one vector per text in input order. Blank texts (empty or whitespace only)
// get the embedding of the empty string. The result is all-or-nothing.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := models.EmbedRequest{Texts: texts}
	if err := req.Validate(s.maxTexts); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	validTexts := make([]string, 0, len(texts))
	validIdx := make([]int, 0, len(texts))
	var blankIdx []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			blankIdx = append(blankIdx, i)
			continue
		}
		validTexts = append(validTexts, text)
		validIdx = append(validIdx, i)
	}
	if len(validTexts) == 0 {
		return nil, &ValidationError{Message: "all texts are empty"}
	}
	s.metrics.AddTexts(len(validTexts), len(blankIdx))

	s.logger.Info("embedding texts",
		zap.Int("valid", len(validTexts)),
		zap.Int("blank", len(blankIdx)),
	)
	s.logger.Debug("first text", zap.String("text", utils.Truncate(validTexts[0], 80)))

	vectors, err := s.embedder.EmbedBatch(ctx, validTexts)
	if err != nil {
		return nil, s.providerFailure(err)
	}
	if err := s.checkVectors(vectors, len(validTexts)); err != nil {
		return nil, s.providerFailure(err)
	}

	out := make([][]float32, len(texts))
	for j, i := range validIdx {
		out[i] = vectors[j]
	}
	if len(blankIdx) > 0 {
		// The provider is deterministic, so one placeholder serves every blank slot.
		placeholder, err := s.embedder.Embed(ctx, "")
		if err != nil {
			return nil, s.providerFailure(err)
		}
		if err := s.checkVectors([][]float32{placeholder}, 1); err != nil {
			return nil, s.providerFailure(err)
		}
		for _, i := range blankIdx {
			out[i] = cloneVector(placeholder)
		}
	}
	return out, nil
}

func (s *Service) checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), want)
	}
	dims := s.embedder.Dimensions()
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("provider returned vector %d with %d dimensions, want %d", i, len(v), dims)
		}
	}
	return nil
}

func (s *Service) providerFailure(err error) error {
	s.metrics.IncProviderErrors()
	s.logger.Error("embedding provider failed", zap.Error(err))
	return &ProviderError{Err: err}
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
