package embedding

import (
	"fmt"

	"github.com/hyperjump/sentembed/internal/config"
)

// NewEmbedder creates the provider named by cfg.Provider. It is called once at startup;
// an error means the model could not be loaded and the server must not start.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderONNX, "":
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelName:   cfg.Model,
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			LibraryPath: cfg.ONNXLibraryPath,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
			CacheSize:   cfg.CacheSize,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIOptions{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Dimensions:     cfg.Dimensions,
			OmitDimensions: cfg.OmitDimensions,
			CacheSize:      cfg.CacheSize,
		})
	case config.ProviderMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, mock)", cfg.Provider)
	}
}
