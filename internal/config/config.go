// Package config provides configuration loading and structs for the sentembed server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PortEnv is the environment variable that overrides server.port.
const PortEnv = "PORT"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "onnx", "openai" or "mock".
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	ModelPath       string `yaml:"model_path"`
	VocabPath       string `yaml:"vocab_path"`
	ONNXLibraryPath string `yaml:"onnx_library_path"`
	Dimensions      int    `yaml:"dimensions"`
	MaxTokens       int    `yaml:"max_tokens"`
	CacheSize       int    `yaml:"cache_size"`
	MaxBatchSize    int    `yaml:"max_batch_size"`
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`

	// OmitDimensions leaves "dimensions" out of OpenAI requests, for models that reject it.
	// The model must then return Dimensions-sized vectors natively.
	OmitDimensions bool `yaml:"omit_dimensions"`
}

// Load reads the optional config file at path (empty path skips it), loads a .env file from the
// working directory if present, applies defaults and the PORT override, and expands paths.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.VocabPath != "" {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv(PortEnv)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", PortEnv, raw, err)
		}
		cfg.Server.Port = port
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	switch c.Embedding.Provider {
	case ProviderONNX, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unknown embedding provider: %s (supported: %s, %s, %s)",
			c.Embedding.Provider, ProviderONNX, ProviderOpenAI, ProviderMock)
	}
	if c.Embedding.MaxBatchSize <= 0 {
		return fmt.Errorf("embedding max_batch_size must be positive: %d", c.Embedding.MaxBatchSize)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
