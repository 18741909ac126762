package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/utils"
)

// EmbedEverythingClient implements the Client interface on top of a local
// EmbedEverything sentence-embedding model.
//
// The model handle is constructed lazily on first use: initialization is
// idempotent and safe to call concurrently, so a process never loads the
// model twice. A failed load is a startup-class error and is returned to
// every caller.
type EmbedEverythingClient struct {
	config Config

	once    sync.Once
	client  *embedder.Embedder
	initErr error
}

// NewEmbedEverythingClient creates a new EmbedEverything client. The model is
// not loaded until the first Embed call.
func NewEmbedEverythingClient(config Config) *EmbedEverythingClient {
	if config.Model == "" {
		config.Model = DefaultLocalModel
	}
	if config.Dimensions <= 0 {
		config.Dimensions = DefaultDimensions
	}
	return &EmbedEverythingClient{config: config}
}

// ensure loads the model handle exactly once.
func (e *EmbedEverythingClient) ensure() error {
	e.once.Do(func() {
		client, err := embedder.NewEmbedder(e.config.Model)
		if err != nil {
			e.initErr = fmt.Errorf("failed to create embedder for model %q: %w", e.config.Model, err)
			return
		}
		e.client = client
	})
	return e.initErr
}

// Embed generates unit-normalized embeddings for the given texts.
func (e *EmbedEverythingClient) Embed(ctx context.Context, texts []string) (_ [][]float32, err error) {
	if err := e.ensure(); err != nil {
		return nil, err
	}
	// The native inference path can panic on malformed model files.
	defer utils.RecoverAsError(&err)
	// go-embedeverything does not support context yet
	embeddings, err := e.client.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return normalizeAll(embeddings), nil
}

// EmbedSingle generates an embedding for a single text.
func (e *EmbedEverythingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (e *EmbedEverythingClient) Dimensions() int {
	return e.config.Dimensions
}

// Close cleans up the model handle if it was ever loaded.
func (e *EmbedEverythingClient) Close() error {
	if e.client != nil {
		e.client.Close()
	}
	return nil
}
