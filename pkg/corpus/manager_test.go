package corpus

import (
	"context"
	"testing"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/embedder/mock"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []types.TrialRecord {
	return []types.TrialRecord{
		{NCTID: "NCT001", Title: "Heart Failure Study", EligibilityCriteria: "Ages 18 to 65", Status: "RECRUITING"},
		{NCTID: "NCT002", Title: "Diabetes Trial", EligibilityCriteria: "older than 50", Status: "RECRUITING"},
		{NCTID: "NCT003", Title: "Asthma Study", EligibilityCriteria: "Females only", Status: "RECRUITING"},
	}
}

func newTestManager(t *testing.T) (*Manager, *mock.Embedder) {
	t.Helper()
	emb := mock.New()
	m, err := NewManager(emb, t.TempDir(), WithBatchSize(2))
	require.NoError(t, err)
	return m, emb
}

func TestCurrentBeforeUpdate(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoCorpus)
}

func TestUpdateCorpusPublishesAlignedState(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.UpdateCorpus(context.Background(), testRecords()))

	state, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, state.Snapshot.Len())
	assert.Equal(t, 3, state.Entry.Count())
	assert.Len(t, state.Entry.Fingerprint, 12)

	// Row i must hold the embedding of record i.
	for i := range state.Entry.Vectors {
		assert.Len(t, state.Entry.Vectors[i], mock.Dimensions, "row %d", i)
	}
}

func TestUpdateCorpusIdempotentFingerprintReuse(t *testing.T) {
	m, emb := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateCorpus(ctx, testRecords()))
	first, err := m.Current()
	require.NoError(t, err)
	callsAfterFirst := emb.Calls()

	// Byte-identical content: the persisted entry must be reused, not
	// re-encoded.
	require.NoError(t, m.UpdateCorpus(ctx, testRecords()))
	second, err := m.Current()
	require.NoError(t, err)

	assert.Equal(t, first.Entry.Fingerprint, second.Entry.Fingerprint)
	assert.Equal(t, callsAfterFirst, emb.Calls())
	assert.Equal(t, first.Entry.Vectors, second.Entry.Vectors)
}

func TestUpdateCorpusBatchSizeDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()

	small, err := NewManager(mock.New(), t.TempDir(), WithBatchSize(1))
	require.NoError(t, err)
	large, err := NewManager(mock.New(), t.TempDir(), WithBatchSize(100))
	require.NoError(t, err)

	require.NoError(t, small.UpdateCorpus(ctx, testRecords()))
	require.NoError(t, large.UpdateCorpus(ctx, testRecords()))

	a, err := small.Current()
	require.NoError(t, err)
	b, err := large.Current()
	require.NoError(t, err)
	assert.Equal(t, a.Entry.Vectors, b.Entry.Vectors)
}

func TestUpdateCorpusFailureLeavesStateIntact(t *testing.T) {
	m, emb := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateCorpus(ctx, testRecords()))
	before, err := m.Current()
	require.NoError(t, err)

	emb.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}
	err = m.UpdateCorpus(ctx, []types.TrialRecord{
		{NCTID: "NCT999", Title: "New Study", EligibilityCriteria: "unreachable"},
	})
	require.Error(t, err)

	after, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestUpdateCorpusFailureLeavesPersistedTrialsIntact(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	emb := mock.New()
	m, err := NewManager(emb, dir)
	require.NoError(t, err)
	require.NoError(t, m.UpdateCorpus(ctx, testRecords()))

	emb.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}
	err = m.UpdateCorpus(ctx, []types.TrialRecord{
		{NCTID: "NCT999", Title: "New Study", EligibilityCriteria: "unreachable"},
	})
	require.Error(t, err)

	// A fresh manager over the same directory must restore the last adopted
	// corpus, not the rejected one.
	fresh, err := NewManager(mock.New(), dir)
	require.NoError(t, err)
	require.NoError(t, fresh.LoadPersisted(ctx))

	state, err := fresh.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, state.Snapshot.Len())
	assert.Equal(t, "NCT001", state.Snapshot.Records[0].NCTID)
}

func TestRebuildEmbeddings(t *testing.T) {
	m, emb := newTestManager(t)
	ctx := context.Background()

	t.Run("without corpus", func(t *testing.T) {
		assert.ErrorIs(t, m.RebuildEmbeddings(ctx), ErrNoCorpus)
	})

	t.Run("re-encodes current snapshot", func(t *testing.T) {
		require.NoError(t, m.UpdateCorpus(ctx, testRecords()))
		calls := emb.Calls()

		require.NoError(t, m.RebuildEmbeddings(ctx))
		assert.Greater(t, emb.Calls(), calls)

		state, err := m.Current()
		require.NoError(t, err)
		assert.Equal(t, state.Snapshot.Len(), state.Entry.Count())
		assert.True(t, m.Status().EmbeddingsDisk)
	})
}

func TestStatus(t *testing.T) {
	m, _ := newTestManager(t)

	t.Run("empty cache", func(t *testing.T) {
		status := m.Status()
		assert.Empty(t, status.Error)
		assert.Equal(t, 0, status.TrialRows)
		assert.False(t, status.EmbeddingsMemory)
		assert.False(t, status.Ready())
	})

	t.Run("after update", func(t *testing.T) {
		require.NoError(t, m.UpdateCorpus(context.Background(), testRecords()))
		status := m.Status()
		assert.Empty(t, status.Error)
		assert.Equal(t, 3, status.TrialRows)
		assert.True(t, status.EmbeddingsMemory)
		assert.Equal(t, 3, status.EmbeddingsVectors)
		assert.True(t, status.EmbeddingsDisk)
		assert.NotEmpty(t, status.TrialsUpdated)
		assert.True(t, status.Ready())
	})
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	require.NoError(t, store.Save("abc123def456", vectors))
	assert.True(t, store.Exists("abc123def456"))

	loaded, err := store.Load("abc123def456")
	require.NoError(t, err)
	assert.Equal(t, vectors, loaded)

	require.NoError(t, store.Delete("abc123def456"))
	assert.False(t, store.Exists("abc123def456"))

	// Deleting a missing entry is not an error.
	assert.NoError(t, store.Delete("abc123def456"))
}

func TestStoreTrialsRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.HasTrials())

	records := testRecords()
	require.NoError(t, store.SaveTrials(records))
	assert.True(t, store.HasTrials())

	loaded, err := store.LoadTrials()
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestLoadPersistedRestoresPreviousCorpus(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewManager(mock.New(), dir)
	require.NoError(t, err)
	require.NoError(t, first.UpdateCorpus(ctx, testRecords()))
	firstState, err := first.Current()
	require.NoError(t, err)

	// A fresh manager over the same directory picks up trials and vectors
	// without re-encoding.
	emb := mock.New()
	second, err := NewManager(emb, dir)
	require.NoError(t, err)
	require.NoError(t, second.LoadPersisted(ctx))

	state, err := second.Current()
	require.NoError(t, err)
	assert.Equal(t, firstState.Snapshot.Records, state.Snapshot.Records)
	assert.Equal(t, firstState.Entry.Fingerprint, state.Entry.Fingerprint)
	assert.Equal(t, firstState.Entry.Vectors, state.Entry.Vectors)
	assert.Equal(t, 0, emb.Calls())
}

func TestLoadPersistedWithoutCacheFails(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.LoadPersisted(context.Background()), ErrNoCorpus)
}
