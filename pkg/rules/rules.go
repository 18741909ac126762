// Package rules extracts structured eligibility constraints from free-text
// trial criteria and evaluates a patient against them.
//
// Patterns are kept as an ordered list of {pattern, extractor} pairs so the
// rule set can grow without touching the scoring pipeline. Within each pattern
// class the first match wins; keyword terms are matched whole-word and
// case-insensitively. Absence of a pattern is a valid, non-error outcome:
// every function in this package is pure and total.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// openEndedUpperBound is the upper bound assumed for "older than N" criteria.
const openEndedUpperBound = 200

// AgeBounds is an inclusive [Lower, Upper] age range asserted by eligibility
// text.
type AgeBounds struct {
	Lower int
	Upper int
}

// agePattern pairs a compiled pattern with the extractor that turns its
// submatches into bounds.
type agePattern struct {
	re      *regexp.Regexp
	extract func(groups []string) AgeBounds
}

// Ordered: "ages X to Y" is tried before the open-ended "older than N".
var agePatterns = []agePattern{
	{
		re: regexp.MustCompile(`(?i)ages?\s+(\d+)\s+to\s+(\d+)`),
		extract: func(groups []string) AgeBounds {
			lower, _ := strconv.Atoi(groups[1])
			upper, _ := strconv.Atoi(groups[2])
			return AgeBounds{Lower: lower, Upper: upper}
		},
	},
	{
		re: regexp.MustCompile(`(?i)older than\s+(\d+)`),
		extract: func(groups []string) AgeBounds {
			lower, _ := strconv.Atoi(groups[1])
			return AgeBounds{Lower: lower, Upper: openEndedUpperBound}
		},
	},
}

// sexPattern pairs a compiled pattern with the sex token it asserts.
type sexPattern struct {
	re  *regexp.Regexp
	sex string
}

// Ordered: "male(s) only" is checked before "female(s) only". The word
// boundary keeps "female only" from matching the male pattern.
var sexPatterns = []sexPattern{
	{re: regexp.MustCompile(`(?i)\bmales? only\b`), sex: "male"},
	{re: regexp.MustCompile(`(?i)\bfemales? only\b`), sex: "female"},
}

// ExtractAgeBounds scans eligibility text for an asserted age range. The
// returned bool is false when no pattern matches and no bound is asserted.
func ExtractAgeBounds(text string) (AgeBounds, bool) {
	for _, p := range agePatterns {
		if groups := p.re.FindStringSubmatch(text); groups != nil {
			return p.extract(groups), true
		}
	}
	return AgeBounds{}, false
}

// RequiresSex reports the sex requirement asserted by eligibility text, or
// the empty string when none is present.
func RequiresSex(text string) string {
	for _, p := range sexPatterns {
		if p.re.MatchString(text) {
			return p.sex
		}
	}
	return ""
}

// KeywordHits returns the subset of terms that occur whole-word in text,
// case-insensitively, preserving input term order. Each term is reported at
// most once regardless of repeated occurrences.
func KeywordHits(text string, terms []string) []string {
	var hits []string
	low := strings.ToLower(text)
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(t) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(low) {
			hits = append(hits, t)
		}
	}
	return hits
}

// Check evaluates a patient against free-text eligibility criteria and
// returns labeled evidence for and against a match.
//
// The medication rule treats any whole-word mention of a patient medication
// as a potential conflict to review, not a confirmed disqualification.
func Check(patient *types.PatientProfile, eligibilityText string) types.EligibilityAssessment {
	var assessment types.EligibilityAssessment

	if bounds, ok := ExtractAgeBounds(eligibilityText); ok {
		if patient.Age < bounds.Lower || patient.Age > bounds.Upper {
			assessment.Exclusions = append(assessment.Exclusions,
				fmt.Sprintf("Age outside range (%d-%d)", bounds.Lower, bounds.Upper))
		} else {
			assessment.Inclusions = append(assessment.Inclusions,
				fmt.Sprintf("Age within range (%d-%d)", bounds.Lower, bounds.Upper))
		}
	}

	if required := RequiresSex(eligibilityText); required != "" {
		if !strings.EqualFold(patient.Sex, required) {
			assessment.Exclusions = append(assessment.Exclusions, "Sex required: "+required)
		} else {
			assessment.Inclusions = append(assessment.Inclusions, "Sex matches: "+required)
		}
	}

	if hits := KeywordHits(eligibilityText, patient.Conditions); len(hits) > 0 {
		assessment.Inclusions = append(assessment.Inclusions,
			"Condition match: "+strings.Join(hits, ", "))
	}

	if hits := KeywordHits(eligibilityText, patient.Medications); len(hits) > 0 {
		assessment.Exclusions = append(assessment.Exclusions,
			"Medication mentioned: "+strings.Join(hits, ", ")+" (check exclusion)")
	}

	return assessment
}
