// Package patients loads patient profiles from disk.
//
// Profiles live as one JSON document per patient, <dir>/<patient_id>.json,
// matching the layout of the original service's demo data.
package patients

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// ErrPatientNotFound is returned when no profile exists for an identifier.
var ErrPatientNotFound = errors.New("patient not found")

// Store reads patient profiles from a directory.
type Store struct {
	dir string
}

// NewStore creates a patient store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns the available patient identifiers, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads one patient profile by identifier. A missing file surfaces as
// ErrPatientNotFound.
func (s *Store) Load(patientID string) (*types.PatientProfile, error) {
	// Identifiers come from the API surface; keep them from escaping the
	// profile directory.
	if patientID == "" || patientID != filepath.Base(patientID) {
		return nil, fmt.Errorf("%w: %q", ErrPatientNotFound, patientID)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, patientID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrPatientNotFound, patientID)
		}
		return nil, fmt.Errorf("failed to read patient %q: %w", patientID, err)
	}

	var profile types.PatientProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse patient %q: %w", patientID, err)
	}
	if profile.PatientID == "" {
		profile.PatientID = patientID
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patient %q: %w", patientID, err)
	}
	return &profile, nil
}
