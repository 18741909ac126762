package corpus

import (
	"testing"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot(t *testing.T) {
	records := []types.TrialRecord{
		{NCTID: "NCT001", Title: "  Heart  Failure Study ", EligibilityCriteria: "Ages 18 to 65"},
		{Title: "missing identifier"},
		{NCTID: "NCT002", Title: "Diabetes Trial", EligibilityCriteria: ""},
		{NCTID: "NCT001", Title: "duplicate, later occurrence"},
	}

	s := BuildSnapshot(records)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, "NCT001", s.Records[0].NCTID)
	assert.Equal(t, "NCT002", s.Records[1].NCTID)

	// First occurrence wins for duplicates.
	assert.Equal(t, "  Heart  Failure Study ", s.Records[0].Title)

	// Normalized fields are aligned and non-nil, empty string permitted.
	assert.Equal(t, []string{"heart failure study", "diabetes trial"}, s.TitleNorm)
	assert.Equal(t, []string{"ages 18 to 65", ""}, s.EligibilityNorm)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestBuildSnapshotEmpty(t *testing.T) {
	s := BuildSnapshot(nil)
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.TitleNorm)
	assert.NotNil(t, s.EligibilityNorm)
}

func TestEmbeddingText(t *testing.T) {
	s := BuildSnapshot([]types.TrialRecord{
		{NCTID: "NCT001", Title: "A  Study", EligibilityCriteria: "Older Than 50"},
	})
	assert.Equal(t, "a study | older than 50", s.EmbeddingText(0))
}

func TestFingerprint(t *testing.T) {
	a := BuildSnapshot([]types.TrialRecord{
		{NCTID: "NCT001", Title: "Study A", EligibilityCriteria: "Ages 18 to 65"},
	})
	b := BuildSnapshot([]types.TrialRecord{
		{NCTID: "NCT001", Title: "Study A", EligibilityCriteria: "Ages 18 to 65"},
	})
	c := BuildSnapshot([]types.TrialRecord{
		{NCTID: "NCT001", Title: "Study A, longer title", EligibilityCriteria: "Ages 18 to 65"},
	})

	assert.Len(t, Fingerprint(a), 12)
	// Content-addressed: identical content means identical fingerprint even
	// across separately built snapshots.
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
