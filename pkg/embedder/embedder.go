package embedder

import (
	"context"
	"math"
)

// Default configuration values.
const (
	DefaultLocalModel  = "all-MiniLM-L6-v2"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultBatchSize   = 256
	DefaultDimensions  = 384
)

// Client defines the interface for embedding providers. Implementations must
// return one unit-normalized vector per input text, in input order, with a
// dimensionality that is constant for the process lifetime.
type Client interface {
	// Embed generates embeddings for a batch of texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common configuration for embedding clients.
type Config struct {
	Model      string `json:"model"`
	BatchSize  int    `json:"batch_size"`
	Dimensions int    `json:"dimensions"`
	BaseURL    string `json:"base_url,omitempty"`
}

// NormalizeL2 scales vector to unit length in place and returns it. Zero
// vectors are returned unchanged.
func NormalizeL2(vector []float32) []float32 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vector
	}
	inv := float32(1.0 / norm)
	for i := range vector {
		vector[i] *= inv
	}
	return vector
}

// normalizeAll applies NormalizeL2 to every row of a matrix.
func normalizeAll(vectors [][]float32) [][]float32 {
	for i := range vectors {
		vectors[i] = NormalizeL2(vectors[i])
	}
	return vectors
}
