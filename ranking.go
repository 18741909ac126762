package matchmaker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/corpus"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/rules"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/utils"
)

// Scoring policy constants.
const (
	// DefaultTopK is the shortlist length used when a request passes 0.
	DefaultTopK = 50

	// inclusionBonus is added to the similarity per inclusion reason;
	// exclusionPenalty is subtracted per exclusion reason.
	inclusionBonus   = 0.1
	exclusionPenalty = 0.2
)

// trialURLPrefix builds the canonical registry URL from a trial identifier.
const trialURLPrefix = "https://clinicaltrials.gov/ct2/show/"

// Match ranks every trial of the current corpus against the patient and
// returns the top-K explained results, best first.
//
// For a fixed (patient, corpus, vectors, topK) the output is exactly
// reproducible: scores are deterministic and ties keep original corpus row
// order.
func (c *Client) Match(ctx context.Context, patient *types.PatientProfile, topK int) ([]types.RankingResult, error) {
	if patient == nil {
		return nil, ErrInvalidPatient
	}
	if err := patient.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPatient, err)
	}
	if topK <= 0 {
		topK = c.config.TopK
	}

	// One consistent (snapshot, vectors) pair for the whole request.
	state, err := c.corpus.Current()
	if err != nil {
		return nil, ErrNotReady
	}
	if state.Snapshot.Len() == 0 || state.Entry.Count() == 0 {
		return nil, ErrNotReady
	}

	queryVec, err := c.embedder.EmbedSingle(ctx, PatientQueryText(patient))
	if err != nil {
		return nil, fmt.Errorf("failed to encode patient query: %w", err)
	}

	return rank(patient, state, queryVec, topK), nil
}

// rank scores, sorts and materializes the shortlist. Pure given its inputs.
func rank(patient *types.PatientProfile, state *corpus.State, queryVec []float32, topK int) []types.RankingResult {
	n := state.Snapshot.Len()

	type scored struct {
		row        int
		score      float64
		assessment types.EligibilityAssessment
	}

	scoredRows := make([]scored, n)
	for i := 0; i < n; i++ {
		// Vectors are unit-normalized, so cosine similarity is a dot product.
		sim := utils.Dot(queryVec, state.Entry.Vectors[i])
		assessment := rules.Check(patient, state.Snapshot.EligibilityNorm[i])
		score := sim +
			inclusionBonus*float64(len(assessment.Inclusions)) -
			exclusionPenalty*float64(len(assessment.Exclusions))
		scoredRows[i] = scored{row: i, score: score, assessment: assessment}
	}

	// Stable: ties keep original corpus row order.
	sort.SliceStable(scoredRows, func(a, b int) bool {
		return scoredRows[a].score > scoredRows[b].score
	})

	if topK > len(scoredRows) {
		topK = len(scoredRows)
	}

	results := make([]types.RankingResult, 0, topK)
	for _, s := range scoredRows[:topK] {
		record := state.Snapshot.Records[s.row]
		results = append(results, types.RankingResult{
			NCTID:       record.NCTID,
			Title:       record.Title,
			Condition:   record.Condition,
			Score:       math.Round(s.score*1000) / 1000,
			WhyMatched:  s.assessment.Inclusions,
			WhyExcluded: s.assessment.Exclusions,
			URL:         trialURLPrefix + record.NCTID,
			Status:      record.Status,
		})
	}
	return results
}

// PatientQueryText builds the single query string a patient is embedded
// from: conditions, medications, "age N" and sex, lowercased and joined.
func PatientQueryText(p *types.PatientProfile) string {
	parts := make([]string, 0, len(p.Conditions)+len(p.Medications)+2)
	parts = append(parts, p.Conditions...)
	parts = append(parts, p.Medications...)
	parts = append(parts, "age "+strconv.Itoa(p.Age))
	if p.Sex != "" {
		parts = append(parts, p.Sex)
	}
	return strings.ToLower(strings.Join(parts, " ; "))
}
