package matchmaker

import (
	"context"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// This file defines focused interfaces composed into the main Matchmaker
// interface. Consumers should depend on the smallest interface that meets
// their needs.

// Matcher answers ranking requests against the currently cached corpus.
type Matcher interface {
	// Match ranks every trial of the current corpus against the patient and
	// returns the top-K explained results. Fails with ErrNotReady when no
	// corpus or vectors are cached.
	Match(ctx context.Context, patient *types.PatientProfile, topK int) ([]types.RankingResult, error)
}

// CorpusAdmin manages the corpus cache lifecycle.
type CorpusAdmin interface {
	// UpdateCorpus adopts a new trial corpus, reusing persisted embeddings
	// when the content fingerprint is already known.
	UpdateCorpus(ctx context.Context, records []types.TrialRecord) error

	// RefreshCorpus fetches a fresh corpus from the trial registry using a
	// named preset and adopts it.
	RefreshCorpus(ctx context.Context, preset string) error

	// LoadCachedCorpus restores the corpus persisted by a previous run.
	LoadCachedCorpus(ctx context.Context) error

	// RebuildEmbeddings discards the persisted vectors for the current
	// corpus and re-encodes it unconditionally.
	RebuildEmbeddings(ctx context.Context) error

	// Status returns the cache introspection view; it never fails.
	Status() types.CacheStatus
}

// PatientDirectory exposes the stored patient profiles.
type PatientDirectory interface {
	// ListPatients returns the available patient identifiers, sorted.
	ListPatients() ([]string, error)

	// LoadPatient reads one stored profile; a missing record surfaces as
	// patients.ErrPatientNotFound.
	LoadPatient(patientID string) (*types.PatientProfile, error)
}

// Matchmaker is the full public surface of the trial matching service.
type Matchmaker interface {
	Matcher
	CorpusAdmin
	PatientDirectory

	// Close releases the embedding model and any other held resources.
	Close() error
}

// Compile-time check that Client implements the composed interface.
var _ Matchmaker = (*Client)(nil)
