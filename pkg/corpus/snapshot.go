package corpus

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/nlp"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// BuildSnapshot turns raw trial rows into an immutable corpus snapshot:
// rows without an identifier are dropped, duplicate identifiers collapse to
// the first occurrence, and the title/eligibility text of every surviving
// row is normalized. Input order is preserved.
func BuildSnapshot(records []types.TrialRecord) *types.CorpusSnapshot {
	seen := make(map[string]struct{}, len(records))
	kept := make([]types.TrialRecord, 0, len(records))
	for _, r := range records {
		if r.NCTID == "" {
			continue
		}
		if _, dup := seen[r.NCTID]; dup {
			continue
		}
		seen[r.NCTID] = struct{}{}
		kept = append(kept, r)
	}

	snapshot := &types.CorpusSnapshot{
		Records:         kept,
		TitleNorm:       make([]string, len(kept)),
		EligibilityNorm: make([]string, len(kept)),
		UpdatedAt:       time.Now(),
	}
	for i, r := range kept {
		snapshot.TitleNorm[i] = nlp.Normalize(r.Title)
		snapshot.EligibilityNorm[i] = nlp.Normalize(r.EligibilityCriteria)
	}
	return snapshot
}

// Fingerprint computes the content signature of a snapshot.
//
// Only the summed lengths of the identifier, title and eligibility columns
// enter the hash. This is a pure function of snapshot content, so two
// snapshots with identical content in those columns share a fingerprint
// regardless of when or how they were fetched.
func Fingerprint(s *types.CorpusSnapshot) string {
	var idLen, titleLen, eligLen int
	for _, r := range s.Records {
		idLen += len(r.NCTID)
		titleLen += len(r.Title)
		eligLen += len(r.EligibilityCriteria)
	}
	sample := fmt.Sprintf("NCTId:%d|BriefTitle:%d|EligibilityCriteria:%d", idLen, titleLen, eligLen)
	sum := md5.Sum([]byte(sample))
	return hex.EncodeToString(sum[:])[:12]
}
