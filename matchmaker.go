package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/corpus"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/patients"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/registry"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

var (
	// ErrNotReady is returned when a ranking request arrives before any
	// corpus and vectors are cached.
	ErrNotReady = errors.New("trials not loaded yet")

	// ErrInvalidPatient is returned when a match request carries an invalid
	// patient profile.
	ErrInvalidPatient = errors.New("invalid patient profile")
)

// Config holds configuration for the matchmaker client.
type Config struct {
	// CacheDir is where embedding cache files are persisted.
	CacheDir string
	// PatientsDir holds one JSON profile per patient.
	PatientsDir string
	// BatchSize bounds embedding batch calls during corpus updates.
	BatchSize int
	// TopK is the default shortlist length when a request passes 0.
	TopK int
}

// Client is the main implementation of the Matchmaker interface.
type Client struct {
	embedder embedder.Client
	corpus   *corpus.Manager
	registry *registry.Client
	patients *patients.Store
	config   *Config
	logger   *slog.Logger
}

// NewClient creates a matchmaker client around the given embedding provider.
// A nil logger falls back to slog.Default().
func NewClient(embedderClient embedder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if embedderClient == nil {
		return nil, errors.New("embedder client is required")
	}
	if config == nil {
		config = &Config{}
	}
	if config.CacheDir == "" {
		config.CacheDir = "data"
	}
	if config.PatientsDir == "" {
		config.PatientsDir = "data/patients"
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}

	corpusOpts := []corpus.Option{corpus.WithLogger(logger)}
	if config.BatchSize > 0 {
		corpusOpts = append(corpusOpts, corpus.WithBatchSize(config.BatchSize))
	}
	manager, err := corpus.NewManager(embedderClient, config.CacheDir, corpusOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus manager: %w", err)
	}

	return &Client{
		embedder: embedderClient,
		corpus:   manager,
		registry: registry.NewClient(registry.WithLogger(logger)),
		patients: patients.NewStore(config.PatientsDir),
		config:   config,
		logger:   logger,
	}, nil
}

// SetRegistry replaces the trial registry client. Intended for pointing the
// matchmaker at a mirror or a test server.
func (c *Client) SetRegistry(client *registry.Client) {
	if client != nil {
		c.registry = client
	}
}

// UpdateCorpus adopts a new trial corpus.
func (c *Client) UpdateCorpus(ctx context.Context, records []types.TrialRecord) error {
	return c.corpus.UpdateCorpus(ctx, records)
}

// LoadCachedCorpus restores the corpus persisted by a previous run. Returns
// corpus.ErrNoCorpus when nothing was ever persisted.
func (c *Client) LoadCachedCorpus(ctx context.Context) error {
	return c.corpus.LoadPersisted(ctx)
}

// RefreshCorpus fetches a fresh corpus from the registry using a named
// preset and adopts it. On fetch failure the previously cached corpus stays
// in service.
func (c *Client) RefreshCorpus(ctx context.Context, preset string) error {
	records, err := c.registry.FetchTrials(ctx, registry.Preset(preset))
	if err != nil {
		return fmt.Errorf("refresh corpus: %w", err)
	}
	return c.corpus.UpdateCorpus(ctx, records)
}

// RebuildEmbeddings re-encodes the current corpus from scratch.
func (c *Client) RebuildEmbeddings(ctx context.Context) error {
	return c.corpus.RebuildEmbeddings(ctx)
}

// Status returns the cache introspection view; it never fails.
func (c *Client) Status() types.CacheStatus {
	return c.corpus.Status()
}

// ListPatients returns the available patient identifiers, sorted.
func (c *Client) ListPatients() ([]string, error) {
	return c.patients.List()
}

// LoadPatient reads one stored patient profile.
func (c *Client) LoadPatient(patientID string) (*types.PatientProfile, error) {
	return c.patients.Load(patientID)
}

// MatchPatient is a convenience combining LoadPatient and Match.
func (c *Client) MatchPatient(ctx context.Context, patientID string, topK int) ([]types.RankingResult, error) {
	patient, err := c.LoadPatient(patientID)
	if err != nil {
		return nil, err
	}
	return c.Match(ctx, patient, topK)
}

// Close releases the embedding model handle.
func (c *Client) Close() error {
	return c.embedder.Close()
}
