package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAIOptions configures an OpenAI-compatible remote provider.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // e.g. http://localhost:11434/v1 for Ollama; empty uses api.openai.com
	Model      string
	Dimensions int
	CacheSize  int
	Extra      []option.RequestOption

	// OmitDimensions skips the "dimensions" request parameter; Dimensions is still the
	// expected vector size.
	OmitDimensions bool
}

// OpenAIEmbedder calls the /embeddings endpoint of an OpenAI-compatible server.
// The SDK client is safe for concurrent use.
type OpenAIEmbedder struct {
	client         openai.Client
	model          string
	dimensions     int
	omitDimensions bool
	cache          *VectorCache
}

// NewOpenAIEmbedder builds the SDK client. Retries are disabled; callers see the first failure.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("openai: model is required")
	}
	if opts.Dimensions <= 0 {
		return nil, errors.New("openai: dimensions must be positive")
	}
	requestOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(key))
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	requestOpts = append(requestOpts, opts.Extra...)

	return &OpenAIEmbedder{
		client:         openai.NewClient(requestOpts...),
		model:          opts.Model,
		dimensions:     opts.Dimensions,
		omitDimensions: opts.OmitDimensions,
		cache:          NewVectorCache(opts.CacheSize),
	}, nil
}

// Embed returns the embedding of a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends every uncached text in one request and fills results by the returned index.
// The API rejects empty strings, so they are sent as a single space.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var pending []string
	var pendingIdx []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			out[i] = cached
			continue
		}
		input := text
		if input == "" {
			input = " "
		}
		pending = append(pending, input)
		pendingIdx = append(pendingIdx, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}
	if !e.omitDimensions {
		params.Dimensions = param.NewOpt(int64(e.dimensions))
	}
	params.Input.OfArrayOfStrings = pending
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(pending) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(pending))
	}
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(pending) {
			return nil, fmt.Errorf("openai returned out-of-range index %d", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		dst := pendingIdx[item.Index]
		out[dst] = vec
		e.cache.Set(texts[dst], vec)
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("openai returned no embedding for input %d", i)
		}
	}
	return out, nil
}

// Dimensions returns the requested embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the remote model name.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close is a no-op; the SDK holds no resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
