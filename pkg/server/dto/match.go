package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// MatchRequest carries either an inline patient profile or the ID of a
// profile stored on disk. Exactly one of the two must be set.
type MatchRequest struct {
	PatientID string                `json:"patient_id,omitempty"`
	Patient   *types.PatientProfile `json:"patient,omitempty"`
	TopK      int                   `json:"top_k,omitempty"`
}

// Validate performs validation on MatchRequest
func (r *MatchRequest) Validate() error {
	hasID := strings.TrimSpace(r.PatientID) != ""
	if hasID && r.Patient != nil {
		return errors.New("specify either patient_id or patient, not both")
	}
	if !hasID && r.Patient == nil {
		return errors.New("patient_id or patient is required")
	}
	if r.TopK < 0 {
		return errors.New("top_k must be non-negative")
	}
	return nil
}

// MatchResponse is the ranked result list for a single patient.
type MatchResponse struct {
	PatientID   string                `json:"patient_id,omitempty"`
	Results     []types.RankingResult `json:"results"`
	Count       int                   `json:"count"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// RefreshRequest selects the registry preset used for a corpus refresh.
type RefreshRequest struct {
	Preset string `json:"preset,omitempty"`
}

// RefreshResponse reports the outcome of a corpus refresh or rebuild.
type RefreshResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TrialRows int    `json:"trials_rows"`
}

// PatientListResponse lists the patient profiles available on disk.
type PatientListResponse struct {
	Patients []string `json:"patients"`
	Count    int      `json:"count"`
}
