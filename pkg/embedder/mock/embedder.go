// Package mock provides a deterministic test double for embedder.Client.
package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder"
)

// Dimensions of the vectors produced by the default behavior.
const Dimensions = 32

// Embedder is a test double for embedder.Client. It allows custom behavior
// injection via function fields; when a field is nil a deterministic
// hash-derived unit vector is produced, so identical text always embeds to
// the identical vector.
type Embedder struct {
	// EmbedFunc is called by Embed if set.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	calls     int
	seenTexts []string
}

// New creates a mock embedder with default deterministic behavior.
func New() *Embedder {
	return &Embedder{}
}

// Embed generates deterministic embeddings, one per input text.
func (m *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.seenTexts = append(m.seenTexts, texts...)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text)
	}
	return vectors, nil
}

// EmbedSingle generates a deterministic embedding for one text.
func (m *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the vector dimensionality.
func (m *Embedder) Dimensions() int {
	return Dimensions
}

// Close is a no-op.
func (m *Embedder) Close() error {
	return nil
}

// Calls returns how many Embed/EmbedSingle calls were made.
func (m *Embedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SeenTexts returns every text passed to the embedder, in call order.
func (m *Embedder) SeenTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seenTexts...)
}

// deterministicVector derives a unit vector from the FNV hash of text.
func deterministicVector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, Dimensions)
	for i := range vector {
		// LCG constants
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return embedder.NormalizeL2(vector)
}

var _ embedder.Client = (*Embedder)(nil)
