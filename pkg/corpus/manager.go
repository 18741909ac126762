package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

var (
	// ErrNoCorpus is returned when an operation needs a loaded corpus and
	// none has ever been adopted.
	ErrNoCorpus = errors.New("no corpus loaded")
)

// DefaultBatchSize bounds how many rows are sent to the embedder per call.
// Batching exists purely for throughput and memory control; the resulting
// matrix is identical regardless of batch size.
const DefaultBatchSize = 256

// State is one immutable published (snapshot, entry) pair. The entry's
// vectors are always embeddings of the paired snapshot's normalized text, in
// the same row order.
type State struct {
	Snapshot *types.CorpusSnapshot
	Entry    *types.EmbeddingCacheEntry
}

// Manager owns the process-wide corpus cache state.
type Manager struct {
	embedder  embedder.Client
	store     *Store
	batchSize int
	logger    *slog.Logger

	// writeMu serializes UpdateCorpus/RebuildEmbeddings. Readers never take
	// it; they load the published state pointer.
	writeMu sync.Mutex
	state   atomic.Pointer[State]
}

// Option configures a Manager.
type Option func(*Manager)

// WithBatchSize sets the embedding batch size.
func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a corpus cache manager persisting under cacheDir.
func NewManager(embedderClient embedder.Client, cacheDir string, opts ...Option) (*Manager, error) {
	if embedderClient == nil {
		return nil, errors.New("embedder client is required")
	}
	store, err := NewStore(cacheDir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		embedder:  embedderClient,
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Current returns the published (snapshot, entry) pair, or ErrNoCorpus when
// nothing has been adopted yet. The returned state is immutable and stays
// valid for the whole request even if a concurrent update publishes a newer
// pair.
func (m *Manager) Current() (*State, error) {
	state := m.state.Load()
	if state == nil {
		return nil, ErrNoCorpus
	}
	return state, nil
}

// UpdateCorpus normalizes raw trial rows into a new snapshot, obtains its
// embedding matrix (from the persisted cache when the content fingerprint is
// already known, otherwise by encoding) and publishes the new pair in one
// atomic swap. On any failure the previously published state is left
// untouched.
func (m *Manager) UpdateCorpus(ctx context.Context, records []types.TrialRecord) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	snapshot := BuildSnapshot(records)
	fingerprint := Fingerprint(snapshot)

	if m.store.Exists(fingerprint) {
		vectors, err := m.store.Load(fingerprint)
		if err == nil && len(vectors) == snapshot.Len() {
			m.logger.Info("loaded embeddings from cache",
				"fingerprint", fingerprint, "vectors", len(vectors))
			m.saveTrials(snapshot)
			m.publish(snapshot, fingerprint, vectors)
			return nil
		}
		if err != nil {
			m.logger.Warn("persisted embedding cache unreadable, re-encoding",
				"fingerprint", fingerprint, "error", err)
		} else {
			m.logger.Warn("persisted embedding cache misaligned, re-encoding",
				"fingerprint", fingerprint, "vectors", len(vectors), "rows", snapshot.Len())
		}
	}

	vectors, err := m.encode(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("update corpus: %w", err)
	}

	m.saveTrials(snapshot)
	if err := m.store.Save(fingerprint, vectors); err != nil {
		// Disk persistence is an optimization; in-memory state is authoritative.
		m.logger.Warn("failed to persist embedding cache", "fingerprint", fingerprint, "error", err)
	} else {
		m.logger.Info("saved embeddings", "path", m.store.Path(fingerprint), "vectors", len(vectors))
	}

	m.publish(snapshot, fingerprint, vectors)
	return nil
}

// LoadPersisted restores the corpus persisted by a previous process: trial
// rows from disk plus their embedding matrix, re-encoding when the matrix
// is missing. Returns ErrNoCorpus when nothing was ever persisted.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	if !m.store.HasTrials() {
		return ErrNoCorpus
	}
	records, err := m.store.LoadTrials()
	if err != nil {
		return fmt.Errorf("load persisted corpus: %w", err)
	}
	return m.UpdateCorpus(ctx, records)
}

// RebuildEmbeddings discards the persisted cache entry for the current
// fingerprint and re-encodes the current snapshot unconditionally. Returns
// ErrNoCorpus when no corpus has ever been loaded.
func (m *Manager) RebuildEmbeddings(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	state := m.state.Load()
	if state == nil {
		return ErrNoCorpus
	}

	fingerprint := state.Entry.Fingerprint
	if err := m.store.Delete(fingerprint); err != nil {
		m.logger.Warn("failed to delete embedding cache", "fingerprint", fingerprint, "error", err)
	}

	vectors, err := m.encode(ctx, state.Snapshot)
	if err != nil {
		return fmt.Errorf("rebuild embeddings: %w", err)
	}

	if err := m.store.Save(fingerprint, vectors); err != nil {
		m.logger.Warn("failed to persist embedding cache", "fingerprint", fingerprint, "error", err)
	}

	m.publish(state.Snapshot, fingerprint, vectors)
	return nil
}

// Status returns the read-only cache introspection view. It never fails;
// internal problems are reported in the Error field.
func (m *Manager) Status() (status types.CacheStatus) {
	// Status must never panic through to a health check.
	defer func() {
		if r := recover(); r != nil {
			status = types.CacheStatus{Error: fmt.Sprint(r)}
		}
	}()

	state := m.state.Load()
	if state == nil {
		return types.CacheStatus{}
	}
	return types.CacheStatus{
		TrialRows:         state.Snapshot.Len(),
		TrialsUpdated:     state.Snapshot.UpdatedAt.Format("2006-01-02 15:04"),
		EmbeddingsMemory:  state.Entry.Count() > 0,
		EmbeddingsVectors: state.Entry.Count(),
		EmbeddingsDisk:    m.store.Exists(state.Entry.Fingerprint),
	}
}

// saveTrials persists the trial rows of a corpus that is about to be
// published. A rejected update must never replace the previous rows on disk,
// so this runs only after encoding (or a cache hit) has succeeded.
func (m *Manager) saveTrials(snapshot *types.CorpusSnapshot) {
	if err := m.store.SaveTrials(snapshot.Records); err != nil {
		// Disk persistence is an optimization; in-memory state is authoritative.
		m.logger.Warn("failed to persist trial corpus", "error", err)
	}
}

// publish swaps in a brand-new immutable state pair.
func (m *Manager) publish(snapshot *types.CorpusSnapshot, fingerprint string, vectors [][]float32) {
	m.state.Store(&State{
		Snapshot: snapshot,
		Entry: &types.EmbeddingCacheEntry{
			Fingerprint: fingerprint,
			Vectors:     vectors,
		},
	})
}

// encode embeds every row's "title | eligibility" text in batches.
func (m *Manager) encode(ctx context.Context, snapshot *types.CorpusSnapshot) ([][]float32, error) {
	texts := make([]string, snapshot.Len())
	for i := range texts {
		texts[i] = snapshot.EmbeddingText(i)
	}

	m.logger.Info("building embeddings", "rows", len(texts), "batch", m.batchSize)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += m.batchSize {
		end := min(start+m.batchSize, len(texts))
		batch, err := m.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to encode rows %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
		m.logger.Debug("encoded batch", "done", end, "total", len(texts))
	}
	return vectors, nil
}
