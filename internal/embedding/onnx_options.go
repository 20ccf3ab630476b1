package embedding

// ONNXOptions configures NewONNXEmbedder.
type ONNXOptions struct {
	ModelName   string
	ModelPath   string
	VocabPath   string
	LibraryPath string // onnxruntime shared library; empty uses the platform default
	Dimensions  int
	MaxTokens   int
	CacheSize   int
}
