package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyPatientID = errors.New("patient_id cannot be empty")
	ErrNegativeAge    = errors.New("age cannot be negative")
	ErrEmptyNCTID     = errors.New("nct_id cannot be empty")
)

// TrialRecord represents one clinical-trial registry entry. Records are
// immutable once they become part of a CorpusSnapshot.
type TrialRecord struct {
	NCTID               string `json:"nct_id" mapstructure:"nct_id"`
	Title               string `json:"title" mapstructure:"title"`
	Condition           string `json:"condition" mapstructure:"condition"`
	EligibilityCriteria string `json:"eligibility_criteria" mapstructure:"eligibility_criteria"`
	StudyType           string `json:"study_type,omitempty" mapstructure:"study_type"`
	Phase               string `json:"phase,omitempty" mapstructure:"phase"`
	EnrollmentCount     int    `json:"enrollment_count,omitempty" mapstructure:"enrollment_count"`
	LocationCountries   string `json:"location_countries,omitempty" mapstructure:"location_countries"`
	Status              string `json:"status,omitempty" mapstructure:"status"`
	StartDate           string `json:"start_date,omitempty" mapstructure:"start_date"`
	CompletionDate      string `json:"completion_date,omitempty" mapstructure:"completion_date"`
}

// Validate checks if the TrialRecord has all required fields set.
func (r *TrialRecord) Validate() error {
	if r.NCTID == "" {
		return ErrEmptyNCTID
	}
	return nil
}

// CorpusSnapshot is an ordered, immutable collection of trial records plus the
// per-record normalized text fields used for embedding and rule matching.
//
// Invariant: len(TitleNorm) == len(EligibilityNorm) == len(Records), and every
// normalized field is non-nil (empty string permitted).
type CorpusSnapshot struct {
	Records []TrialRecord `json:"records"`

	// TitleNorm and EligibilityNorm are aligned 1:1 by index with Records.
	TitleNorm       []string `json:"title_norm"`
	EligibilityNorm []string `json:"eligibility_norm"`

	// UpdatedAt records when this snapshot was adopted.
	UpdatedAt time.Time `json:"updated_at"`
}

// Len returns the number of records in the snapshot.
func (s *CorpusSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// EmbeddingText returns the text that row i is embedded from.
func (s *CorpusSnapshot) EmbeddingText(i int) string {
	return s.TitleNorm[i] + " | " + s.EligibilityNorm[i]
}

// EmbeddingCacheEntry holds the unit-normalized embedding matrix for one
// corpus fingerprint. Vectors are aligned 1:1 by row order with the records
// of the snapshot the fingerprint was computed from.
type EmbeddingCacheEntry struct {
	// Fingerprint is a deterministic content signature of the snapshot's
	// identifying columns. Two snapshots with identical content share a
	// fingerprint and therefore a persisted cache file.
	Fingerprint string

	// Vectors is the embedding matrix, one row per trial record.
	Vectors [][]float32
}

// Count returns the number of vectors in the entry.
func (e *EmbeddingCacheEntry) Count() int {
	if e == nil {
		return 0
	}
	return len(e.Vectors)
}

// PatientProfile is the immutable input to a ranking request.
type PatientProfile struct {
	PatientID   string             `json:"patient_id" mapstructure:"patient_id"`
	Age         int                `json:"age" mapstructure:"age"`
	Sex         string             `json:"sex" mapstructure:"sex"`
	Conditions  []string           `json:"conditions" mapstructure:"conditions"`
	Medications []string           `json:"medications" mapstructure:"medications"`
	Labs        map[string]float64 `json:"labs,omitempty" mapstructure:"labs"`
	Notes       string             `json:"notes,omitempty" mapstructure:"notes"`
}

// Validate checks if the PatientProfile has all required fields set.
func (p *PatientProfile) Validate() error {
	if p.PatientID == "" {
		return ErrEmptyPatientID
	}
	if p.Age < 0 {
		return ErrNegativeAge
	}
	return nil
}

// EligibilityAssessment is the rule-engine output for one (patient, trial)
// pair: human-readable evidence for and against eligibility. Derived per
// request, never stored.
type EligibilityAssessment struct {
	Inclusions []string `json:"include_reasons"`
	Exclusions []string `json:"exclude_reasons"`
}

// RankingResult is one explained entry of the ranked shortlist returned by a
// match request. Ephemeral, recomputed per request.
type RankingResult struct {
	NCTID       string   `json:"nct_id"`
	Title       string   `json:"title"`
	Condition   string   `json:"condition"`
	Score       float64  `json:"score"`
	WhyMatched  []string `json:"why_matched"`
	WhyExcluded []string `json:"why_excluded"`
	URL         string   `json:"nct_url"`
	Status      string   `json:"status"`
}

// CacheStatus is the read-only introspection view of the corpus cache.
// Producing it must never fail; internal errors are reported in Error.
type CacheStatus struct {
	TrialRows         int    `json:"trials_rows"`
	TrialsUpdated     string `json:"trials_updated,omitempty"`
	EmbeddingsMemory  bool   `json:"embeddings_memory"`
	EmbeddingsVectors int    `json:"embeddings_vectors"`
	EmbeddingsDisk    bool   `json:"embeddings_disk"`
	Error             string `json:"error,omitempty"`
}

// Ready reports whether the cache can serve match requests: no internal
// error, at least one row, and vectors held in memory.
func (s CacheStatus) Ready() bool {
	return s.Error == "" && s.TrialRows > 0 && s.EmbeddingsMemory
}
