package embedder_test

import (
	"math"
	"testing"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder"
	"github.com/stretchr/testify/assert"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		config embedder.Config
	}{
		{
			name:   "defaults",
			apiKey: "test-api-key",
			config: embedder.Config{},
		},
		{
			name:   "custom model",
			apiKey: "test-api-key",
			config: embedder.Config{Model: "text-embedding-3-large", Dimensions: 3072},
		},
		{
			name:   "custom base URL",
			apiKey: "test-api-key",
			config: embedder.Config{BaseURL: "https://api.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := embedder.NewOpenAIEmbedder(tt.apiKey, tt.config)
			assert.NotNil(t, client)
			assert.Greater(t, client.Dimensions(), 0)
		})
	}
}

func TestClientInterface(t *testing.T) {
	var _ embedder.Client = (*embedder.OpenAIEmbedder)(nil)
	var _ embedder.Client = (*embedder.EmbedEverythingClient)(nil)
}

func TestEmbedEverythingLazyInit(t *testing.T) {
	// Construction must not load the model; loading happens on first Embed.
	client := embedder.NewEmbedEverythingClient(embedder.Config{})
	assert.Equal(t, embedder.DefaultDimensions, client.Dimensions())
	assert.NoError(t, client.Close())
}

func TestNormalizeL2(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := embedder.NormalizeL2([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := embedder.NormalizeL2([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})
}
