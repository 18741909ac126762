package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// vectorRow is the parquet row schema of a persisted embedding matrix. Row
// index is stored explicitly so alignment survives readers that reorder row
// groups.
type vectorRow struct {
	Row    int64     `parquet:"row"`
	Vector []float32 `parquet:"vector"`
}

// Store persists one embedding matrix per corpus fingerprint, each in its
// own parquet file. Files are never mutated in place, only created or
// deleted wholesale.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the cache file path for a fingerprint.
func (s *Store) Path(fingerprint string) string {
	return filepath.Join(s.dir, "trial_embs_"+fingerprint+".parquet")
}

// Exists reports whether a matrix is persisted for the fingerprint.
func (s *Store) Exists(fingerprint string) bool {
	_, err := os.Stat(s.Path(fingerprint))
	return err == nil
}

// Save writes the matrix for a fingerprint, replacing any previous file.
func (s *Store) Save(fingerprint string, vectors [][]float32) error {
	rows := make([]vectorRow, len(vectors))
	for i, v := range vectors {
		rows[i] = vectorRow{Row: int64(i), Vector: v}
	}
	if err := parquet.WriteFile(s.Path(fingerprint), rows); err != nil {
		return fmt.Errorf("failed to write embedding cache %s: %w", s.Path(fingerprint), err)
	}
	return nil
}

// Load reads the matrix persisted for a fingerprint, restoring row order.
func (s *Store) Load(fingerprint string) ([][]float32, error) {
	rows, err := parquet.ReadFile[vectorRow](s.Path(fingerprint))
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache %s: %w", s.Path(fingerprint), err)
	}
	vectors := make([][]float32, len(rows))
	for _, r := range rows {
		if r.Row < 0 || r.Row >= int64(len(rows)) {
			return nil, fmt.Errorf("embedding cache %s has out-of-range row index %d", s.Path(fingerprint), r.Row)
		}
		vectors[r.Row] = r.Vector
	}
	return vectors, nil
}

// Delete removes the persisted matrix for a fingerprint. Deleting a missing
// file is not an error.
func (s *Store) Delete(fingerprint string) error {
	err := os.Remove(s.Path(fingerprint))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete embedding cache %s: %w", s.Path(fingerprint), err)
	}
	return nil
}

// trialRow is the parquet row schema of the persisted trial corpus.
type trialRow struct {
	Row                 int64  `parquet:"row"`
	NCTID               string `parquet:"nct_id"`
	Title               string `parquet:"title"`
	Condition           string `parquet:"condition"`
	EligibilityCriteria string `parquet:"eligibility_criteria"`
	StudyType           string `parquet:"study_type"`
	Phase               string `parquet:"phase"`
	EnrollmentCount     int64  `parquet:"enrollment_count"`
	LocationCountries   string `parquet:"location_countries"`
	Status              string `parquet:"status"`
	StartDate           string `parquet:"start_date"`
	CompletionDate      string `parquet:"completion_date"`
}

// TrialsPath returns the path of the persisted trial corpus file.
func (s *Store) TrialsPath() string {
	return filepath.Join(s.dir, "trials.parquet")
}

// HasTrials reports whether a trial corpus is persisted.
func (s *Store) HasTrials() bool {
	_, err := os.Stat(s.TrialsPath())
	return err == nil
}

// SaveTrials writes the trial corpus, replacing any previous file.
func (s *Store) SaveTrials(records []types.TrialRecord) error {
	rows := make([]trialRow, len(records))
	for i, r := range records {
		rows[i] = trialRow{
			Row:                 int64(i),
			NCTID:               r.NCTID,
			Title:               r.Title,
			Condition:           r.Condition,
			EligibilityCriteria: r.EligibilityCriteria,
			StudyType:           r.StudyType,
			Phase:               r.Phase,
			EnrollmentCount:     int64(r.EnrollmentCount),
			LocationCountries:   r.LocationCountries,
			Status:              r.Status,
			StartDate:           r.StartDate,
			CompletionDate:      r.CompletionDate,
		}
	}
	if err := parquet.WriteFile(s.TrialsPath(), rows); err != nil {
		return fmt.Errorf("failed to write trial corpus %s: %w", s.TrialsPath(), err)
	}
	return nil
}

// LoadTrials reads the persisted trial corpus, restoring row order.
func (s *Store) LoadTrials() ([]types.TrialRecord, error) {
	rows, err := parquet.ReadFile[trialRow](s.TrialsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read trial corpus %s: %w", s.TrialsPath(), err)
	}
	records := make([]types.TrialRecord, len(rows))
	for _, r := range rows {
		if r.Row < 0 || r.Row >= int64(len(rows)) {
			return nil, fmt.Errorf("trial corpus %s has out-of-range row index %d", s.TrialsPath(), r.Row)
		}
		records[r.Row] = types.TrialRecord{
			NCTID:               r.NCTID,
			Title:               r.Title,
			Condition:           r.Condition,
			EligibilityCriteria: r.EligibilityCriteria,
			StudyType:           r.StudyType,
			Phase:               r.Phase,
			EnrollmentCount:     int(r.EnrollmentCount),
			LocationCountries:   r.LocationCountries,
			Status:              r.Status,
			StartDate:           r.StartDate,
			CompletionDate:      r.CompletionDate,
		}
	}
	return records, nil
}
